package graph

import (
	"sync"
	"testing"

	"github.com/hidra-sim/hidra/types"
	"github.com/stretchr/testify/require"
)

func TestAddNeuronAssignsMonotonicIDs(t *testing.T) {
	g := NewGraph()
	n1 := g.AddNeuron(types.Position3D{}, 1.0, 0.9, 3)
	n2 := g.AddNeuron(types.Position3D{}, 1.0, 0.9, 3)
	require.Equal(t, uint64(1), n1.Id)
	require.Equal(t, uint64(2), n2.Id)
	require.Equal(t, 1.0, n1.LVars[LVarFiringThreshold])
	require.Equal(t, 0.9, n1.LVars[LVarDecayRate])
	require.Equal(t, 1.0, n1.LVars[LVarHealth])
}

func TestEntityIDsSharedAcrossNeuronsAndIONodes(t *testing.T) {
	g := NewGraph()
	n := g.AddNeuron(types.Position3D{}, 1, 0.9, 3)
	in := g.AddInputNode()
	out := g.AddOutputNode()
	require.Equal(t, uint64(1), n.Id)
	require.Equal(t, uint64(2), in.Id)
	require.Equal(t, uint64(3), out.Id)
}

func TestSynapseIDsHaveIndependentCounter(t *testing.T) {
	g := NewGraph()
	g.AddNeuron(types.Position3D{}, 1, 0.9, 3)
	g.AddNeuron(types.Position3D{}, 1, 0.9, 3)
	s := g.AddSynapse(1, 2, Immediate, 1.0, 0)
	require.Equal(t, uint64(1), s.Id)
}

func TestApoptoseRetainsIDButMarksInactive(t *testing.T) {
	g := NewGraph()
	n := g.AddNeuron(types.Position3D{}, 1, 0.9, 3)
	require.NoError(t, g.ApoptoseNeuron(n.Id))

	got, ok := g.GetNeuron(n.Id)
	require.True(t, ok)
	require.False(t, got.IsActive)

	require.Contains(t, g.NeuronIDsSorted(), n.Id)
	require.NotContains(t, g.ActiveNeuronIDsSorted(), n.Id)
}

func TestApoptoseUnknownNeuronIsNotFound(t *testing.T) {
	g := NewGraph()
	err := g.ApoptoseNeuron(999)
	require.Error(t, err)
}

func TestPatchNeuronLVarsRejectsOutOfRangeAsAWhole(t *testing.T) {
	g := NewGraph()
	n := g.AddNeuron(types.Position3D{}, 1, 0.9, 3)
	err := g.PatchNeuronLVars(n.Id, map[int]float64{10: 5.0, 999: 1.0})
	require.Error(t, err)

	got, _ := g.GetNeuron(n.Id)
	require.Equal(t, 0.0, got.LVars[10])
}

func TestActiveSynapsesSortedAscendingByID(t *testing.T) {
	g := NewGraph()
	g.AddNeuron(types.Position3D{}, 1, 0.9, 3)
	g.AddNeuron(types.Position3D{}, 1, 0.9, 3)
	s3 := g.AddSynapse(1, 2, Immediate, 1, 0)
	s2 := g.AddSynapse(2, 1, Immediate, 1, 0)
	_ = s3
	_ = s2
	require.NoError(t, g.RemoveSynapse(1))
	sorted := g.ActiveSynapsesSorted()
	require.Len(t, sorted, 1)
	require.Equal(t, uint64(2), sorted[0].Id)
}

func TestRemoveSynapsesTouchingPrunesBothDirections(t *testing.T) {
	g := NewGraph()
	g.AddNeuron(types.Position3D{}, 1, 0.9, 3)
	g.AddNeuron(types.Position3D{}, 1, 0.9, 3)
	g.AddSynapse(1, 2, Immediate, 1, 0)
	g.AddSynapse(2, 1, Immediate, 1, 0)
	g.RemoveSynapsesTouching(1)
	require.Empty(t, g.ActiveSynapsesSorted())
}

func TestHormoneGetSetRoundTrip(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.SetHormone(10, 2.5))
	require.Equal(t, 2.5, g.GetHormone(10))
	require.Error(t, g.SetHormone(-1, 1.0))
	require.Error(t, g.SetHormone(HormoneCount, 1.0))
}

func TestCountersNeverDecrease(t *testing.T) {
	g := NewGraph()
	g.AddNeuron(types.Position3D{}, 1, 0.9, 3)
	entity, synapse := g.Counters()
	require.Equal(t, uint64(1), entity)
	require.Equal(t, uint64(0), synapse)

	g.SetCounters(0, 0)
	entity2, _ := g.Counters()
	require.Equal(t, entity, entity2)

	g.SetCounters(50, 50)
	entity3, synapse3 := g.Counters()
	require.Equal(t, uint64(50), entity3)
	require.Equal(t, uint64(50), synapse3)
}

func TestConcurrentAddNeuronProducesUniqueDenseIDs(t *testing.T) {
	g := NewGraph()
	initial := g.AddNeuron(types.Position3D{}, 1, 0.9, 3)

	const n = 100
	var wg sync.WaitGroup
	ids := make(chan uint64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			neuron := g.AddNeuron(types.Position3D{}, 1, 0.9, 3)
			ids <- neuron.Id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uint64]bool{initial.Id: true}
	for id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	require.Len(t, seen, n+1)
	require.Len(t, g.NeuronIDsSorted(), n+1)
}
