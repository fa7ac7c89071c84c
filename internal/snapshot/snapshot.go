// Package snapshot implements the self-describing JSON codec for a
// world's full state: a Document captures everything a World needs to
// resume deterministically, plus a metadata envelope (SchemaVersion,
// EngineVersion, ExperimentID, CreatedAt) the way the teacher's
// persisted artifacts (e.g. `types/messages.go`'s wire structs) always
// carry their own identity rather than relying on the caller to track
// it out of band.
package snapshot

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hidra-sim/hidra/internal/brainx"
	"github.com/hidra-sim/hidra/internal/config"
	"github.com/hidra-sim/hidra/internal/events"
	"github.com/hidra-sim/hidra/internal/graph"
	"github.com/hidra-sim/hidra/internal/herr"
	"github.com/hidra-sim/hidra/internal/hgl"
	"github.com/hidra-sim/hidra/internal/world"
	"github.com/hidra-sim/hidra/types"
	"go.uber.org/zap"
)

// SchemaVersion is bumped whenever Document's shape changes in a way
// that breaks compatibility with older persisted snapshots.
const SchemaVersion = 1

// EngineVersion is a human-facing build identifier, independent of
// SchemaVersion.
const EngineVersion = "0.1.0"

// Document is the complete, self-describing serialized form of a World.
// The genome is deliberately not part of it — the caller pairs a
// Document with the genome text it was compiled from.
type Document struct {
	SchemaVersion int       `json:"schema_version"`
	EngineVersion string    `json:"engine_version"`
	ExperimentID  string    `json:"experiment_id"`
	CreatedAt     time.Time `json:"created_at"`

	CurrentTick    uint64              `json:"current_tick"`
	Config         config.HidraConfig  `json:"config"`
	GlobalHormones []float64           `json:"global_hormones"`
	Neurons        []NeuronRecord      `json:"neurons"`
	Synapses       []SynapseRecord     `json:"synapses"`
	InputNodes     []IONodeRecord      `json:"input_nodes"`
	OutputNodes    []IONodeRecord      `json:"output_nodes"`
	Events         []EventRecord       `json:"events"`

	SimRNG     [2]uint64 `json:"sim_rng"`
	MetricsRNG [2]uint64 `json:"metrics_rng"`

	EntityCounter  uint64 `json:"entity_counter"`
	SynapseCounter uint64 `json:"synapse_counter"`
}

// NeuronRecord is one neuron's persisted state. Brain is the tagged
// envelope produced by internal/brainx.Marshal, nil for a brainless
// neuron.
type NeuronRecord struct {
	Id            uint64                      `json:"id"`
	Position      types.Position3D            `json:"position"`
	IsActive      bool                        `json:"is_active"`
	LVars         [graph.LVarCount]float64    `json:"lvars"`
	Brain         json.RawMessage             `json:"brain,omitempty"`
	FiredThisTick bool                        `json:"fired_this_tick"`
}

// SynapseRecord is one synapse's persisted state, including the tick it
// was created on (for the Condition TickWindow operand across a
// restore).
type SynapseRecord struct {
	Id                  uint64           `json:"id"`
	SourceId            uint64           `json:"source_id"`
	TargetId            uint64           `json:"target_id"`
	IsActive            bool             `json:"is_active"`
	Type                int              `json:"type"`
	Weight              float64          `json:"weight"`
	Parameter           float64          `json:"parameter"`
	FatigueLevel        float64          `json:"fatigue_level"`
	FatigueRate         float64          `json:"fatigue_rate"`
	FatigueRecoveryRate float64          `json:"fatigue_recovery_rate"`
	Condition           *graph.Condition `json:"condition,omitempty"`
	CreatedAtTick       uint64           `json:"created_at_tick"`
	TriggerGeneId       *int             `json:"trigger_gene_id,omitempty"`
}

// IONodeRecord is one input or output node's persisted state.
type IONodeRecord struct {
	Id    uint64  `json:"id"`
	Value float64 `json:"value"`
}

// EventRecord is one queued event's persisted state. Exactly one of
// GeneId or (SourceId, Value) is populated, depending on Type; Mitosis,
// Apoptosis, and Fire events carry neither, since TargetId alone is
// their whole payload.
type EventRecord struct {
	Id            uint64   `json:"id"`
	Type          int      `json:"type"`
	TargetId      uint64   `json:"target_id"`
	ExecutionTick uint64   `json:"execution_tick"`
	GeneId        *int     `json:"gene_id,omitempty"`
	SourceId      *uint64  `json:"source_id,omitempty"`
	Value         *float64 `json:"value,omitempty"`
}

// Build captures w's complete current state into a Document. An empty
// experimentID is replaced with a freshly generated UUID, so every
// snapshot is traceable to a run even if the caller never assigned one.
func Build(w *world.World, experimentID string) (*Document, error) {
	if experimentID == "" {
		experimentID = uuid.NewString()
	}
	g := w.Graph()

	doc := &Document{
		SchemaVersion: SchemaVersion,
		EngineVersion: EngineVersion,
		ExperimentID:  experimentID,
		CreatedAt:     time.Now().UTC(),
		CurrentTick:   w.CurrentTick(),
		Config:        w.Config(),
	}
	hormones := g.Hormones()
	doc.GlobalHormones = append([]float64(nil), hormones[:]...)

	for _, id := range g.NeuronIDsSorted() {
		n, ok := g.GetNeuron(id)
		if !ok {
			continue
		}
		rec := NeuronRecord{Id: n.Id, Position: n.Position, IsActive: n.IsActive, LVars: n.LVars, FiredThisTick: n.FiredThisTick}
		if n.Brain != nil {
			data, err := brainx.Marshal(n.Brain)
			if err != nil {
				return nil, herr.Wrapf(herr.KindConfiguration, err, "marshaling brain for neuron %d", n.Id)
			}
			rec.Brain = data
		}
		doc.Neurons = append(doc.Neurons, rec)
	}

	createdAt := w.SynapseCreatedAtTicks()
	for _, s := range g.ActiveSynapsesSorted() {
		doc.Synapses = append(doc.Synapses, SynapseRecord{
			Id: s.Id, SourceId: s.SourceId, TargetId: s.TargetId, IsActive: s.IsActive,
			Type: int(s.Type), Weight: s.Weight, Parameter: s.Parameter,
			FatigueLevel: s.FatigueLevel, FatigueRate: s.FatigueRate, FatigueRecoveryRate: s.FatigueRecoveryRate,
			Condition: s.Condition, CreatedAtTick: createdAt[s.Id],
			TriggerGeneId: s.TriggerGeneId,
		})
	}

	for _, id := range g.InputNodeIDsSorted() {
		if n, ok := g.GetInputNode(id); ok {
			doc.InputNodes = append(doc.InputNodes, IONodeRecord{Id: n.Id, Value: n.Value})
		}
	}
	for _, id := range g.OutputNodeIDsSorted() {
		if n, ok := g.GetOutputNode(id); ok {
			doc.OutputNodes = append(doc.OutputNodes, IONodeRecord{Id: n.Id, Value: n.Value})
		}
	}

	for _, ev := range sortedEvents(w.Events().Snapshot()) {
		rec := EventRecord{Id: ev.Id, Type: int(ev.Type), TargetId: ev.TargetId, ExecutionTick: ev.ExecutionTick}
		switch ev.Type {
		case events.TypeExecuteGene:
			if geneID, ok := ev.Payload.(int); ok {
				rec.GeneId = &geneID
			}
		case events.TypeDelayedSignal:
			if p, ok := ev.Payload.(world.DelayedSignalPayload); ok {
				sourceID, value := p.SourceId, p.Value
				rec.SourceId = &sourceID
				rec.Value = &value
			}
		}
		doc.Events = append(doc.Events, rec)
	}

	s0, s1, m0, m1 := w.RNGState()
	doc.SimRNG = [2]uint64{s0, s1}
	doc.MetricsRNG = [2]uint64{m0, m1}

	doc.EntityCounter, doc.SynapseCounter = g.Counters()

	return doc, nil
}

func sortedEvents(evs []*events.Event) []*events.Event {
	sort.Slice(evs, func(i, j int) bool {
		if evs[i].ExecutionTick != evs[j].ExecutionTick {
			return evs[i].ExecutionTick < evs[j].ExecutionTick
		}
		return evs[i].Id < evs[j].Id
	})
	return evs
}

// Marshal renders doc as indented JSON.
func Marshal(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, herr.Wrapf(herr.KindConfiguration, err, "marshaling snapshot")
	}
	return data, nil
}

// ParseDocument decodes a snapshot document and rejects an unsupported
// schema version outright, before any attempt to restore a world from
// it.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, herr.Wrapf(herr.KindConfiguration, err, "unmarshaling snapshot")
	}
	if doc.SchemaVersion != SchemaVersion {
		return nil, herr.Configuration("snapshot schema version %d unsupported (engine expects %d)", doc.SchemaVersion, SchemaVersion)
	}
	return &doc, nil
}

// Restore builds a fresh World from doc, paired with genome (compiled
// separately by the caller, since a Document never carries genome
// text). It rebuilds the spatial hash from restored neuron positions
// and reinitializes metrics as part of world.New, exactly as the restore
// contract requires.
func Restore(doc *Document, genome *hgl.Registry, log *zap.Logger) (*world.World, error) {
	w := world.New(doc.Config, genome, log)
	g := w.Graph()

	var hormones [graph.HormoneCount]float64
	copy(hormones[:], doc.GlobalHormones)
	g.SetHormones(hormones)

	for _, rec := range doc.Neurons {
		n := &graph.Neuron{Id: rec.Id, Position: rec.Position, IsActive: rec.IsActive, LVars: rec.LVars, FiredThisTick: rec.FiredThisTick}
		if len(rec.Brain) > 0 {
			b, err := brainx.Unmarshal(rec.Brain)
			if err != nil {
				return nil, herr.Wrapf(herr.KindConfiguration, err, "unmarshaling brain for neuron %d", rec.Id)
			}
			n.Brain = b
		}
		g.RestoreNeuron(n)
		if n.IsActive {
			w.Grid().Insert(n.Id, n.Position)
		}
	}

	createdAtTick := make(map[uint64]uint64, len(doc.Synapses))
	for _, rec := range doc.Synapses {
		s := &graph.Synapse{
			Id: rec.Id, SourceId: rec.SourceId, TargetId: rec.TargetId, IsActive: rec.IsActive,
			Type: graph.SignalType(rec.Type), Weight: rec.Weight, Parameter: rec.Parameter,
			FatigueLevel: rec.FatigueLevel, FatigueRate: rec.FatigueRate, FatigueRecoveryRate: rec.FatigueRecoveryRate,
			Condition: rec.Condition, TriggerGeneId: rec.TriggerGeneId,
		}
		g.RestoreSynapse(s)
		createdAtTick[s.Id] = rec.CreatedAtTick
	}

	for _, rec := range doc.InputNodes {
		g.RestoreInputNode(&graph.InputNode{Id: rec.Id, Value: rec.Value})
	}
	for _, rec := range doc.OutputNodes {
		g.RestoreOutputNode(&graph.OutputNode{Id: rec.Id, Value: rec.Value})
	}

	g.SetCounters(doc.EntityCounter, doc.SynapseCounter)

	var evs []*events.Event
	for _, rec := range doc.Events {
		ev := &events.Event{Id: rec.Id, Type: events.Type(rec.Type), TargetId: rec.TargetId, ExecutionTick: rec.ExecutionTick}
		switch ev.Type {
		case events.TypeExecuteGene:
			if rec.GeneId != nil {
				ev.Payload = *rec.GeneId
			}
		case events.TypeDelayedSignal:
			if rec.SourceId != nil && rec.Value != nil {
				ev.Payload = world.DelayedSignalPayload{SourceId: *rec.SourceId, Value: *rec.Value}
			}
		}
		evs = append(evs, ev)
	}
	w.Events().Restore(evs)

	w.Restore(doc.CurrentTick, doc.SimRNG[0], doc.SimRNG[1], doc.MetricsRNG[0], doc.MetricsRNG[1], createdAtTick)

	return w, nil
}
