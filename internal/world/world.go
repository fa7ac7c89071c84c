// Package world wires graph, events, hgl, brainx, rng, kahan, and
// spatial into the single aggregate that runs Hidra's tick pipeline,
// the way the teacher's ExtracellularMatrix wires astrocyte network,
// chemical modulator, signal mediator, and microglia into one
// constructed-in-order aggregate — except here there is exactly one
// world-level mutex, not a per-subsystem one, since the specification's
// concurrency model is a single logical simulation thread plus
// serialized external mutation.
package world

import (
	"sync"

	"github.com/hidra-sim/hidra/internal/config"
	"github.com/hidra-sim/hidra/internal/events"
	"github.com/hidra-sim/hidra/internal/graph"
	"github.com/hidra-sim/hidra/internal/hgl"
	"github.com/hidra-sim/hidra/internal/kahan"
	"github.com/hidra-sim/hidra/internal/rng"
	"github.com/hidra-sim/hidra/internal/spatial"
	"go.uber.org/zap"
)

// sourceContribution is one synapse's delivered value to a target this
// tick, kept alongside the Kahan sum so a neuron's Brain can see
// per-source inputs instead of only their compensated total.
type sourceContribution struct {
	SourceId uint64
	Value    float64
}

// World is a single simulation instance: one graph, one event queue,
// one compiled genome, two RNG streams, and everything the tick
// pipeline needs to advance deterministically.
type World struct {
	mu sync.Mutex

	cfg    config.HidraConfig
	log    *zap.Logger
	graph  *graph.Graph
	events *events.Queue
	genome *hgl.Registry
	grid   *spatial.Grid

	simRNG     *rng.Stream
	metricsRNG *rng.Stream
	kahanSet   *kahan.Set

	currentTick uint64

	// dendriteSources is rebuilt every tick during the synapse pass,
	// keyed by target neuron ID, and consumed once by integration to
	// assemble Brain inputs in source-ID order.
	dendriteSources map[uint64][]sourceContribution

	// synapseCreatedAtTick backs the Condition TickWindow operand.
	synapseCreatedAtTick map[uint64]uint64

	metrics *Metrics
}

// New constructs an empty world from cfg. cfg.DebugStrict governs the
// event queue's underflow behavior (panic vs. drop).
func New(cfg config.HidraConfig, genome *hgl.Registry, log *zap.Logger) *World {
	var simStream *rng.Stream
	if cfg.AutoReseedPerRun && cfg.ExperimentID != "" {
		simStream = rng.SeedFromExperiment(cfg.ExperimentID)
	} else {
		simStream = rng.NewStream(cfg.Seed0, cfg.Seed1)
	}
	metricsStream := rng.NewStream(cfg.Seed1, cfg.Seed0)

	w := &World{
		cfg:                  cfg,
		log:                  log,
		graph:                graph.NewGraph(),
		events:               events.NewQueue(),
		genome:               genome,
		grid:                 spatial.NewGrid(2 * cfg.CompetitionRadius),
		simRNG:               simStream,
		metricsRNG:           metricsStream,
		kahanSet:             kahan.NewSet(),
		dendriteSources:      make(map[uint64][]sourceContribution),
		synapseCreatedAtTick: make(map[uint64]uint64),
		metrics:              NewMetrics(cfg),
	}
	return w
}

// CurrentTick returns the world's tick counter.
func (w *World) CurrentTick() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentTick
}

// Graph exposes the underlying graph for read-mostly callers
// (internal/activity, internal/snapshot) that already serialize through
// the world mutex via the caller's own discipline.
func (w *World) Graph() *graph.Graph { return w.graph }

// Metrics returns the world's metrics collector, primarily so cmd/hidra
// can register its Prometheus registry with an HTTP handler.
func (w *World) Metrics() *Metrics { return w.metrics }

// Events exposes the underlying event queue for internal/snapshot.
func (w *World) Events() *events.Queue { return w.events }

// Config returns the configuration the world was constructed with.
func (w *World) Config() config.HidraConfig { return w.cfg }

// Genome returns the world's currently compiled genome.
func (w *World) Genome() *hgl.Registry { return w.genome }

// RNGState returns both streams' persisted (s0, s1) state pairs, in the
// order (simulation, metrics).
func (w *World) RNGState() (simS0, simS1, metricsS0, metricsS1 uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s0, s1 := w.simRNG.State()
	m0, m1 := w.metricsRNG.State()
	return s0, s1, m0, m1
}

// SynapseCreatedAtTicks returns a copy of the synapse-creation-tick map,
// for snapshot persistence.
func (w *World) SynapseCreatedAtTicks() map[uint64]uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[uint64]uint64, len(w.synapseCreatedAtTick))
	for k, v := range w.synapseCreatedAtTick {
		out[k] = v
	}
	return out
}

// Restore is called once, immediately after New, by internal/snapshot to
// rehydrate a freshly constructed World with persisted state: the tick
// counter, both RNG streams, and the synapse-creation-tick map. The
// graph itself, the event queue, and the spatial grid are populated
// separately by the snapshot package via their own exported restore
// paths (Graph().RestoreNeuron/RestoreSynapse/..., Events().Restore,
// Grid().Insert) before or after this call; order between them does not
// matter since none of these mutate each other.
func (w *World) Restore(tick, simS0, simS1, metricsS0, metricsS1 uint64, synapseCreatedAtTick map[uint64]uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.currentTick = tick
	w.simRNG.SetState(simS0, simS1)
	w.metricsRNG.SetState(metricsS0, metricsS1)
	w.synapseCreatedAtTick = make(map[uint64]uint64, len(synapseCreatedAtTick))
	for k, v := range synapseCreatedAtTick {
		w.synapseCreatedAtTick[k] = v
	}
}

// Grid exposes the spatial hash so internal/snapshot can rebuild it
// after restoring the graph's neurons.
func (w *World) Grid() *spatial.Grid { return w.grid }

func (w *World) runGestation(childID uint64) {
	gene, ok := w.genome.Gene(hgl.GeneGestation)
	if !ok {
		return
	}
	if err := hgl.ExecuteGene(gene, childID, w.callbacks()); err != nil {
		w.log.Error("gestation gene failed", zap.Uint64("neuron_id", childID), zap.Error(err))
	}
}

func (w *World) runGenesis(id uint64) {
	gene, ok := w.genome.Gene(hgl.GeneGenesis)
	if !ok {
		return
	}
	if err := hgl.ExecuteGene(gene, id, w.callbacks()); err != nil {
		w.log.Error("genesis gene failed", zap.Uint64("neuron_id", id), zap.Error(err))
	}
}

// runMitosisSystem runs the reserved GeneMitosisSystem gene, if the
// genome defines one, in addition to the engine's own built-in mitosis
// handling (child creation, brain clone, Gestation). The slot is
// optional; a genome with nothing registered there still mitoses
// normally.
func (w *World) runMitosisSystem(invokingNeuronID uint64) {
	gene, ok := w.genome.Gene(hgl.GeneMitosisSystem)
	if !ok {
		return
	}
	if err := hgl.ExecuteGene(gene, invokingNeuronID, w.callbacks()); err != nil {
		w.log.Error("mitosis system gene failed", zap.Uint64("neuron_id", invokingNeuronID), zap.Error(err))
	}
}

// runApoptosisSystem runs the reserved GeneApoptosisSystem gene, if the
// genome defines one, in addition to the engine's own built-in apoptosis
// handling (deactivate, spatial-hash and synapse cleanup).
func (w *World) runApoptosisSystem(invokingNeuronID uint64) {
	gene, ok := w.genome.Gene(hgl.GeneApoptosisSystem)
	if !ok {
		return
	}
	if err := hgl.ExecuteGene(gene, invokingNeuronID, w.callbacks()); err != nil {
		w.log.Error("apoptosis system gene failed", zap.Uint64("neuron_id", invokingNeuronID), zap.Error(err))
	}
}

// callbacks builds the hgl.Callbacks surface bound to this world. A
// fresh struct is built per use rather than stored once so every field
// closes over the live *World, never a stale copy.
func (w *World) callbacks() hgl.Callbacks {
	return hgl.Callbacks{
		GetLVar: func(neuronID uint64, idx int) float64 {
			n, ok := w.graph.GetNeuron(neuronID)
			if !ok || idx < 0 || idx >= graph.LVarCount {
				return 0
			}
			return n.LVars[idx]
		},
		SetLVar: func(neuronID uint64, idx int, value float64) {
			if idx < 0 || idx >= graph.LVarCount {
				return
			}
			if n, ok := w.graph.GetNeuron(neuronID); ok {
				n.LVars[idx] = value
			}
		},
		GetHormone: func(idx int) float64 { return w.graph.GetHormone(idx) },
		SetHormone: func(idx int, value float64) {
			if err := w.graph.SetHormone(idx, value); err != nil {
				w.log.Error("hgl set_hormone failed", zap.Error(err))
			}
		},
		QueueMitosis: func(parentID uint64) {
			w.events.Push(events.TypeMitosis, parentID, w.currentTick+1, nil)
		},
		QueueApoptosis: func(neuronID uint64) {
			w.events.Push(events.TypeApoptosis, neuronID, w.currentTick+1, nil)
		},
		QueueSynapse: func(sourceID, targetID uint64, sigType int, weight float64) {
			s := w.graph.AddSynapse(sourceID, targetID, graph.SignalType(sigType), weight, 0)
			w.synapseCreatedAtTick[s.Id] = w.currentTick
		},
		CurrentTick: func() uint64 { return w.currentTick },
		RandFloat:   func() float64 { return w.simRNG.NextFloat64() },
	}
}
