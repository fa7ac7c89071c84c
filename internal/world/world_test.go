package world

import (
	"sync"
	"testing"

	"github.com/hidra-sim/hidra/internal/config"
	"github.com/hidra-sim/hidra/internal/events"
	"github.com/hidra-sim/hidra/internal/graph"
	"github.com/hidra-sim/hidra/internal/hgl"
	"github.com/hidra-sim/hidra/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	cfg := config.Defaults()
	cfg.Seed0, cfg.Seed1 = 12345, 67890
	reg, err := hgl.ParseGenome("0000")
	require.NoError(t, err)
	return New(cfg, reg, zap.NewNop())
}

func TestImmediateSynapseDeliversSameTick(t *testing.T) {
	w := newTestWorld(t)
	in := w.AddInputNode()
	out := w.AddOutputNode()
	w.SetInputValue(in, 1.0)
	w.AddSynapse(in, out, graph.Immediate, 2.0, 0)

	w.Step()

	v, err := w.GetOutputValue(out)
	require.NoError(t, err)
	require.InDelta(t, 2.0, v, 1e-9)
}

func TestDelayedSynapseMaterializesAfterParameterTicks(t *testing.T) {
	w := newTestWorld(t)
	in := w.AddInputNode()
	out := w.AddOutputNode()
	w.SetInputValue(in, 1.0)
	w.AddSynapse(in, out, graph.Delayed, 1.0, 3)

	for i := 0; i < 3; i++ {
		w.Step()
		v, _ := w.GetOutputValue(out)
		require.Equal(t, 0.0, v, "tick %d should not have delivered yet", i+1)
	}
	w.Step()
	v, err := w.GetOutputValue(out)
	require.NoError(t, err)
	require.InDelta(t, 1.0, v, 1e-9)
}

func TestDelayedZeroParameterCollapsesToImmediate(t *testing.T) {
	w := newTestWorld(t)
	in := w.AddInputNode()
	out := w.AddOutputNode()
	w.SetInputValue(in, 1.0)
	w.AddSynapse(in, out, graph.Delayed, 1.0, 0)

	w.Step()
	v, err := w.GetOutputValue(out)
	require.NoError(t, err)
	require.InDelta(t, 1.0, v, 1e-9)
}

func TestNeuronFiresWhenThresholdCrossed(t *testing.T) {
	w := newTestWorld(t)
	in := w.AddInputNode()
	nid := w.AddNeuron(types.Position3D{})
	w.PatchNeuronLVars(nid, map[int]float64{graph.LVarFiringThreshold: 0.5, graph.LVarDecayRate: 1.0})
	out := w.AddOutputNode()
	w.SetInputValue(in, 1.0)
	w.AddSynapse(in, nid, graph.Immediate, 1.0, 0)
	w.AddSynapse(nid, out, graph.Immediate, 1.0, 0)

	w.Step() // neuron integrates the input and fires
	w.Step() // synapse pass now reads FiredThisTick from the prior tick

	v, err := w.GetOutputValue(out)
	require.NoError(t, err)
	require.InDelta(t, 1.0, v, 1e-9)
}

func TestApoptosisReclaimsSynapsesAndSpatialHash(t *testing.T) {
	w := newTestWorld(t)
	a := w.AddNeuron(types.Position3D{X: 1})
	b := w.AddNeuron(types.Position3D{X: 2})
	sid := w.AddSynapse(a, b, graph.Immediate, 1.0, 0)

	require.NoError(t, w.ApoptoseNeuron(a))

	_, ok := w.Graph().GetSynapse(sid)
	require.False(t, ok, "synapse touching an apoptosed neuron must be removed")

	ids := w.Graph().ActiveNeuronIDsSorted()
	require.NotContains(t, ids, a)
	require.Contains(t, ids, b)

	require.NotContains(t, w.Grid().QueryExact(types.Position3D{X: 1}, 0.5), a, "apoptosed neuron must be gone from the spatial hash")
}

func TestDeterminismUnderSameSeed(t *testing.T) {
	run := func() []float64 {
		cfg := config.Defaults()
		cfg.Seed0, cfg.Seed1 = 111, 222
		reg, _ := hgl.ParseGenome("0000")
		w := New(cfg, reg, zap.NewNop())

		parent := w.AddNeuron(types.Position3D{})
		w.PatchNeuronLVars(parent, map[int]float64{graph.LVarHealth: 0.0})

		var trail []float64
		for i := 0; i < 5; i++ {
			w.Step()
			n, ok := w.Graph().GetNeuron(parent)
			if ok {
				trail = append(trail, n.LVars[graph.LVarHealth])
			} else {
				trail = append(trail, -1)
			}
		}
		return trail
	}

	a := run()
	b := run()
	require.Equal(t, a, b)
}

func TestConcurrentMutationSafety(t *testing.T) {
	w := newTestWorld(t)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.AddNeuron(types.Position3D{})
		}()
	}
	wg.Wait()
	require.Len(t, w.Graph().ActiveNeuronIDsSorted(), 50)
}

func TestFiringResetsSomaPotentialPreventingRunawayRefiring(t *testing.T) {
	w := newTestWorld(t)
	nid := w.AddNeuron(types.Position3D{})
	// DecayRate near 1 and no refractory period: without a reset on
	// fire, SomaPotential would stay above threshold forever and the
	// neuron would fire every tick from here on with no further input,
	// which is exactly the runaway-latch bug this guards against.
	w.PatchNeuronLVars(nid, map[int]float64{
		graph.LVarFiringThreshold:  0.5,
		graph.LVarDecayRate:        0.999,
		graph.LVarRefractoryPeriod: 0,
	})
	out := w.AddOutputNode()
	w.AddSynapse(nid, out, graph.Immediate, 1.0, 0)

	n, _ := w.Graph().GetNeuron(nid)
	n.LVars[graph.LVarSomaPotential] = 10.0

	w.Step() // neuron fires, SomaPotential must reset to 0
	w.Step() // output observes the fire from the previous tick
	v, err := w.GetOutputValue(out)
	require.NoError(t, err)
	require.InDelta(t, 1.0, v, 1e-9, "neuron should have fired once and delivered its output")

	for i := 0; i < 5; i++ {
		w.Step()
	}
	v, err = w.GetOutputValue(out)
	require.NoError(t, err)
	require.InDelta(t, 0.0, v, 1e-9, "neuron must not keep refiring once SomaPotential has been reset and no further input arrives")
}

func TestContinuousSynapseReadsSourceSomaPotential(t *testing.T) {
	w := newTestWorld(t)
	src := w.AddNeuron(types.Position3D{})
	out := w.AddOutputNode()
	w.AddSynapse(src, out, graph.Continuous, 1.0, 0.5)

	n, _ := w.Graph().GetNeuron(src)
	n.LVars[graph.LVarSomaPotential] = 4.0

	w.Step()

	v, err := w.GetOutputValue(out)
	require.NoError(t, err)
	require.InDelta(t, 2.0, v, 1e-9, "Continuous synapse must blend the source's SomaPotential (4.0), not its binary fired state")
}

func TestConditionalSynapseTriggerQueuesExecuteGene(t *testing.T) {
	w := newTestWorld(t)
	// Gene 0 (Genesis) is an empty reserved slot; gene 1 pushes the
	// constant 5.0 (operand 0x50 / 16) and writes it to LVar 10:
	// OpPushConst(0x02) 0x50, OpSetLVar(0x05) 0x0A.
	reg, err := hgl.ParseGenome("GN0250050A")
	require.NoError(t, err)
	w.SetBrainStructure(reg)

	a := w.AddNeuron(types.Position3D{})
	b := w.AddNeuron(types.Position3D{})
	sid := w.AddSynapse(a, b, graph.Immediate, 1.0, 0)

	gid := 1
	require.NoError(t, w.ModifySynapse(sid, func(s *graph.Synapse) {
		s.TriggerGeneId = &gid
	}))

	w.Step()

	target, ok := w.Graph().GetNeuron(b)
	require.True(t, ok)
	require.InDelta(t, 5.0, target.LVars[10], 1e-9, "conditional synapse trigger must execute its gene against the synapse's target neuron")
}

func TestMitosisSystemGeneRunsOnMitosis(t *testing.T) {
	// Gene slots are positional: Genesis(0), Gestation(1), MitosisSystem(2).
	// MitosisSystem pushes 7.0 and writes it to LVar 20 of the invoking
	// (parent) neuron: OpPushConst(0x02) 0x70, OpSetLVar(0x05) 0x14.
	reg, err := hgl.ParseGenome("GN" + "GN" + "02700514")
	require.NoError(t, err)
	w := newTestWorld(t)
	w.SetBrainStructure(reg)

	parent := w.AddNeuron(types.Position3D{})
	w.events.Push(events.TypeMitosis, parent, w.currentTick+1, nil)
	w.Step()

	n, ok := w.Graph().GetNeuron(parent)
	require.True(t, ok)
	require.InDelta(t, 7.0, n.LVars[20], 1e-9, "GeneMitosisSystem must run against the mitosing parent")
}

func TestApoptosisSystemGeneRunsOnApoptosis(t *testing.T) {
	// Gene slots: Genesis(0), Gestation(1), MitosisSystem(2),
	// ApoptosisSystem(3), which writes 3.0 to LVar 21 of the invoking
	// (just-apoptosed) neuron.
	reg, err := hgl.ParseGenome("GN" + "GN" + "GN" + "02300515")
	require.NoError(t, err)
	w := newTestWorld(t)
	w.SetBrainStructure(reg)

	nid := w.AddNeuron(types.Position3D{})
	w.events.Push(events.TypeApoptosis, nid, w.currentTick+1, nil)
	w.Step()

	n, ok := w.Graph().GetNeuron(nid)
	require.True(t, ok)
	require.InDelta(t, 3.0, n.LVars[21], 1e-9, "GeneApoptosisSystem must run against the just-apoptosed neuron")
}

func TestStageInputsThenStepIsAtomic(t *testing.T) {
	w := newTestWorld(t)
	in := w.AddInputNode()
	out := w.AddOutputNode()
	w.AddSynapse(in, out, graph.Immediate, 1.0, 0)

	err := w.StageInputsThenStep(map[uint64]float64{in: 3.0})
	require.NoError(t, err)

	v, err := w.GetOutputValue(out)
	require.NoError(t, err)
	require.InDelta(t, 3.0, v, 1e-9)
}
