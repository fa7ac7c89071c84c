package snapshot

import (
	"testing"

	"github.com/hidra-sim/hidra/internal/brainx"
	"github.com/hidra-sim/hidra/internal/config"
	"github.com/hidra-sim/hidra/internal/graph"
	"github.com/hidra-sim/hidra/internal/hgl"
	"github.com/hidra-sim/hidra/internal/world"
	"github.com/hidra-sim/hidra/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestWorld(t *testing.T) *world.World {
	t.Helper()
	cfg := config.Defaults()
	cfg.Seed0, cfg.Seed1 = 111, 222
	reg, err := hgl.ParseGenome("0000")
	require.NoError(t, err)
	return world.New(cfg, reg, zap.NewNop())
}

func buildSampleWorld(t *testing.T) *world.World {
	t.Helper()
	w := newTestWorld(t)

	in := w.AddInputNode()
	out := w.AddOutputNode()
	nid := w.AddNeuron(types.Position3D{X: 1, Y: 2, Z: 3})
	require.NoError(t, w.SetNeuronBrain(nid, brainx.NewLogicGateBrain(brainx.GateXOR)))
	require.NoError(t, w.PatchNeuronLVars(nid, map[int]float64{graph.LVarFiringThreshold: 0.5}))

	w.AddSynapse(in, nid, graph.Immediate, 1.0, 0)
	w.AddSynapse(nid, out, graph.Delayed, 1.0, 3)
	require.NoError(t, w.SetInputValue(in, 1.0))

	for i := 0; i < 4; i++ {
		w.Step()
	}
	return w
}

func TestSnapshotRoundTripPreservesState(t *testing.T) {
	w := buildSampleWorld(t)

	doc, err := Build(w, "exp-1")
	require.NoError(t, err)
	require.Equal(t, SchemaVersion, doc.SchemaVersion)
	require.Equal(t, "exp-1", doc.ExperimentID)

	data, err := Marshal(doc)
	require.NoError(t, err)

	parsed, err := ParseDocument(data)
	require.NoError(t, err)
	require.Equal(t, doc.CurrentTick, parsed.CurrentTick)
	require.Equal(t, len(doc.Neurons), len(parsed.Neurons))
	require.Equal(t, len(doc.Synapses), len(parsed.Synapses))

	reg, err := hgl.ParseGenome("0000")
	require.NoError(t, err)
	restored, err := Restore(parsed, reg, zap.NewNop())
	require.NoError(t, err)

	require.Equal(t, w.CurrentTick(), restored.CurrentTick())

	origNeurons := w.Graph().NeuronIDsSorted()
	restNeurons := restored.Graph().NeuronIDsSorted()
	require.Equal(t, origNeurons, restNeurons)
	for _, id := range origNeurons {
		o, _ := w.Graph().GetNeuron(id)
		r, _ := restored.Graph().GetNeuron(id)
		require.Equal(t, o.LVars, r.LVars)
		require.Equal(t, o.IsActive, r.IsActive)
	}
}

func TestRestoreThenStepMatchesDirectStep(t *testing.T) {
	w := buildSampleWorld(t)

	doc, err := Build(w, "exp-2")
	require.NoError(t, err)

	reg, err := hgl.ParseGenome("0000")
	require.NoError(t, err)
	restored, err := Restore(doc, reg, zap.NewNop())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		w.Step()
		restored.Step()
	}

	origIDs := w.Graph().NeuronIDsSorted()
	restIDs := restored.Graph().NeuronIDsSorted()
	require.Equal(t, origIDs, restIDs)
	for _, id := range origIDs {
		o, _ := w.Graph().GetNeuron(id)
		r, _ := restored.Graph().GetNeuron(id)
		require.Equal(t, o.LVars, r.LVars)
	}

	origOut := w.Graph().OutputNodeIDsSorted()
	for _, id := range origOut {
		ov, err := w.GetOutputValue(id)
		require.NoError(t, err)
		rv, err := restored.GetOutputValue(id)
		require.NoError(t, err)
		require.InDelta(t, ov, rv, 1e-12)
	}
}

func TestSnapshotRoundTripsSynapseTriggerGeneId(t *testing.T) {
	w := newTestWorld(t)
	a := w.AddNeuron(types.Position3D{})
	b := w.AddNeuron(types.Position3D{})
	sid := w.AddSynapse(a, b, graph.Immediate, 1.0, 0)

	gid := 2
	require.NoError(t, w.ModifySynapse(sid, func(s *graph.Synapse) {
		s.TriggerGeneId = &gid
	}))

	doc, err := Build(w, "exp-trigger")
	require.NoError(t, err)

	reg, err := hgl.ParseGenome("0000")
	require.NoError(t, err)
	restored, err := Restore(doc, reg, zap.NewNop())
	require.NoError(t, err)

	s, ok := restored.Graph().GetSynapse(sid)
	require.True(t, ok)
	require.NotNil(t, s.TriggerGeneId)
	require.Equal(t, gid, *s.TriggerGeneId)
}

func TestParseDocumentRejectsUnknownSchemaVersion(t *testing.T) {
	doc := &Document{SchemaVersion: SchemaVersion + 1}
	data, err := Marshal(doc)
	require.NoError(t, err)
	_, err = ParseDocument(data)
	require.Error(t, err)
}
