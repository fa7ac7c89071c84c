package world

import (
	"math"

	"github.com/hidra-sim/hidra/internal/events"
	"github.com/hidra-sim/hidra/internal/graph"
	"github.com/hidra-sim/hidra/internal/hgl"
	"github.com/hidra-sim/hidra/types"
	"go.uber.org/zap"
)

// firingRateEMAAlpha is the smoothing coefficient for a neuron's
// FiringRate LVar: FiringRate = FiringRate*(1-alpha) + fired*alpha. Not
// externally configurable; neurons that need a different time constant
// get there through their own LVars and HGL, not a global knob.
const firingRateEMAAlpha = 0.1

// mitosisJitterFraction bounds how far a child neuron's position is displaced
// from its parent's, as a fraction of the competition radius.
const mitosisJitterFraction = 0.1

// Step advances the world by exactly one tick, running the full
// pipeline: clock, reset, synapse pass, signal-event drain, neuron
// integration, structural-event drain, output refresh, metrics
// sampling. It holds the world mutex for the whole call; external
// mutation never interleaves with a tick in progress.
func (w *World) Step() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.currentTick++
	w.resetForTick()
	w.synapsePass()

	due := w.events.ProcessDueEvents(w.currentTick, w.cfg.DebugStrict)
	var structural []*events.Event
	for _, ev := range due {
		if ev.Type == events.TypeDelayedSignal {
			w.deliverDelayedSignal(ev)
		} else {
			structural = append(structural, ev)
		}
	}

	w.integrate()

	fresh := w.events.ProcessDueEvents(w.currentTick, w.cfg.DebugStrict)
	structural = append(structural, fresh...)
	w.drainStructural(structural)

	w.sample()
}

func (w *World) resetForTick() {
	w.kahanSet.ResetAll()
	for k := range w.dendriteSources {
		delete(w.dendriteSources, k)
	}
	for _, id := range w.graph.ActiveNeuronIDsSorted() {
		n, ok := w.graph.GetNeuron(id)
		if ok {
			n.LVars[graph.LVarDendriticPotential] = 0
		}
	}
}

// synapsePass walks every active synapse in ascending ID order,
// resolving its source value, gating on Condition, dispatching by
// SignalType, updating fatigue, and firing the synapse's conditional
// HGL trigger (TriggerGeneId), if it has one, the tick its Condition
// passes.
func (w *World) synapsePass() {
	for _, s := range w.graph.ActiveSynapsesSorted() {
		sourceValue := w.resolveSourceValue(s.SourceId, s.Type)
		if !s.Condition.Eval(w.conditionContext(s)) {
			continue
		}

		if s.TriggerGeneId != nil {
			w.events.Push(events.TypeExecuteGene, s.TargetId, w.currentTick, *s.TriggerGeneId)
		}

		effectiveWeight := s.EffectiveWeight()
		delivered := sourceValue * effectiveWeight

		switch s.Type {
		case graph.Immediate:
			w.depositImmediate(s.TargetId, s.SourceId, delivered)
		case graph.Delayed:
			delayTicks := int64(math.Round(s.Parameter))
			if delayTicks <= 0 {
				w.depositImmediate(s.TargetId, s.SourceId, delivered)
			} else {
				w.events.Push(events.TypeDelayedSignal, s.TargetId, w.currentTick+uint64(delayTicks), DelayedSignalPayload{SourceId: s.SourceId, Value: delivered})
			}
		case graph.Continuous:
			w.blendContinuous(s.TargetId, s.SourceId, sourceValue*effectiveWeight, s.Parameter)
		}

		s.ApplyFatigue(delivered != 0)
	}
}

// DelayedSignalPayload is the event.Payload shape for a TypeDelayedSignal
// event, exported so internal/snapshot can encode/decode it without
// reaching into world internals.
type DelayedSignalPayload struct {
	SourceId uint64
	Value    float64
}

func (w *World) conditionContext(s *graph.Synapse) graph.EvalContext {
	return graph.EvalContext{
		SourceLVar: func(idx int) float64 {
			if n, ok := w.graph.GetNeuron(s.SourceId); ok {
				return n.LVars[idx]
			}
			return 0
		},
		TargetLVar: func(idx int) float64 {
			if n, ok := w.graph.GetNeuron(s.TargetId); ok {
				return n.LVars[idx]
			}
			return 0
		},
		Hormone:              w.graph.GetHormone,
		CurrentTick:          w.currentTick,
		SynapseCreatedAtTick: w.synapseCreatedAtTick[s.Id],
	}
}

// resolveSourceValue reads a synapse source's current output, whether it
// is an input node or a neuron. A neuron source's output is its firing
// output from the previous tick (1.0 if it fired, else 0.0), except for
// a Continuous synapse, whose source.SomaPotential is read directly as
// a graded signal instead of the binary fire/no-fire value (spec §4.H
// step 3: "SignalType=Continuous which uses SomaPotential filtered by
// Parameter as an EMA coefficient").
func (w *World) resolveSourceValue(sourceID uint64, sigType graph.SignalType) float64 {
	if in, ok := w.graph.GetInputNode(sourceID); ok {
		return in.Value
	}
	if n, ok := w.graph.GetNeuron(sourceID); ok {
		if sigType == graph.Continuous {
			return n.LVars[graph.LVarSomaPotential]
		}
		if n.FiredThisTick {
			return 1.0
		}
		return 0.0
	}
	return 0
}

func (w *World) depositImmediate(targetID, sourceID uint64, value float64) {
	w.dendriteSources[targetID] = append(w.dendriteSources[targetID], sourceContribution{SourceId: sourceID, Value: value})
	if _, ok := w.graph.GetNeuron(targetID); ok {
		w.kahanSet.Add(targetID, value)
		return
	}
	if err := w.graph.SetOutputValue(targetID, value); err != nil {
		w.log.Debug("immediate signal targets neither a live neuron nor an output node", zap.Uint64("target_id", targetID))
	}
}

func (w *World) blendContinuous(targetID, sourceID uint64, value, parameter float64) {
	w.dendriteSources[targetID] = append(w.dendriteSources[targetID], sourceContribution{SourceId: sourceID, Value: value})
	if n, ok := w.graph.GetNeuron(targetID); ok {
		old := n.LVars[graph.LVarSomaPotential]
		n.LVars[graph.LVarSomaPotential] = old*(1-parameter) + value*parameter
		return
	}
	if out, ok := w.graph.GetOutputNode(targetID); ok {
		newValue := out.Value*(1-parameter) + value*parameter
		_ = w.graph.SetOutputValue(targetID, newValue)
	}
}

func (w *World) deliverDelayedSignal(ev *events.Event) {
	payload, ok := ev.Payload.(DelayedSignalPayload)
	if !ok {
		return
	}
	w.depositImmediate(ev.TargetId, payload.SourceId, payload.Value)
}

// integrate runs the per-neuron update: decay, metabolic tax, aging,
// threshold recovery, refractory countdown, fire check, and the
// FiringRate EMA, in ascending neuron ID order.
func (w *World) integrate() {
	for _, id := range w.graph.ActiveNeuronIDsSorted() {
		n, ok := w.graph.GetNeuron(id)
		if !ok {
			continue
		}

		n.LVars[graph.LVarDendriticPotential] = w.kahanSet.Sum(id)
		n.LVars[graph.LVarSomaPotential] = n.LVars[graph.LVarSomaPotential]*n.LVars[graph.LVarDecayRate] + n.LVars[graph.LVarDendriticPotential]

		n.LVars[graph.LVarHealth] -= w.cfg.MetabolicTaxPerTick
		n.LVars[graph.LVarAge]++

		if n.LVars[graph.LVarAdaptiveThreshold] > 0 {
			n.LVars[graph.LVarAdaptiveThreshold] = math.Max(0, n.LVars[graph.LVarAdaptiveThreshold]-n.LVars[graph.LVarThresholdRecoveryRate])
		}
		if n.LVars[graph.LVarRefractoryTimeLeft] > 0 {
			n.LVars[graph.LVarRefractoryTimeLeft]--
		}

		fired := false
		if n.Brain != nil {
			out := n.Brain.Evaluate(w.brainInputs(id))
			if len(out) > 0 {
				n.LVars[graph.LVarSomaPotential] = out[0]
			}
		}
		if n.CanFire() && n.LVars[graph.LVarSomaPotential] >= n.EffectiveThreshold() {
			fired = true
			n.LVars[graph.LVarSomaPotential] = 0
			n.LVars[graph.LVarRefractoryTimeLeft] = n.LVars[graph.LVarRefractoryPeriod]
			n.LVars[graph.LVarAdaptiveThreshold] += n.LVars[graph.LVarThresholdAdaptationFactor]
			w.events.Push(events.TypeFire, id, w.currentTick, nil)
		}
		n.FiredThisTick = fired
		n.LVars[graph.LVarFiringRate] = n.LVars[graph.LVarFiringRate]*(1-firingRateEMAAlpha) + boolF(fired)*firingRateEMAAlpha

		if n.LVars[graph.LVarHealth] <= 0 {
			w.events.Push(events.TypeApoptosis, id, w.currentTick, nil)
		}
	}
}

func (w *World) brainInputs(neuronID uint64) []float64 {
	contribs := w.dendriteSources[neuronID]
	if len(contribs) == 0 {
		return nil
	}
	bySource := make(map[uint64]float64, len(contribs))
	for _, c := range contribs {
		bySource[c.SourceId] += c.Value
	}
	ids := make([]uint64, 0, len(bySource))
	for id := range bySource {
		ids = append(ids, id)
	}
	sortUint64s(ids)
	out := make([]float64, len(ids))
	for i, id := range ids {
		out[i] = bySource[id]
	}
	return out
}

func sortUint64s(ids []uint64) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

func boolF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// drainStructural executes ExecuteGene, Mitosis, Apoptosis, and Fire
// events in the order given, which is already ascending by Id (the
// pre-integration batch having strictly lower Ids than the
// post-integration batch). Fire has no handler of its own; it exists to
// be observable, not to act.
func (w *World) drainStructural(evs []*events.Event) {
	for _, ev := range evs {
		switch ev.Type {
		case events.TypeExecuteGene:
			w.runExecuteGene(ev)
		case events.TypeMitosis:
			w.runMitosis(ev)
		case events.TypeApoptosis:
			w.runApoptosis(ev)
		case events.TypeFire:
			w.log.Debug("neuron fired", zap.Uint64("neuron_id", ev.TargetId), zap.Uint64("tick", w.currentTick))
		}
	}
}

func (w *World) runExecuteGene(ev *events.Event) {
	geneID, ok := ev.Payload.(int)
	if !ok {
		return
	}
	gene, ok := w.genome.Gene(geneID)
	if !ok {
		w.log.Error("execute_gene references unknown gene", zap.Int("gene_id", geneID), zap.Uint64("neuron_id", ev.TargetId))
		return
	}
	if err := hgl.ExecuteGene(gene, ev.TargetId, w.callbacks()); err != nil {
		w.log.Error("gene execution failed, dropping event", zap.Int("gene_id", geneID), zap.Uint64("neuron_id", ev.TargetId), zap.Error(err))
	}
}

func (w *World) runMitosis(ev *events.Event) {
	parent, ok := w.graph.GetNeuron(ev.TargetId)
	if !ok || !parent.IsActive {
		return
	}
	jitter := w.cfg.CompetitionRadius * mitosisJitterFraction
	childPos := types.Position3D{
		X: parent.Position.X + (w.simRNG.NextFloat64()*2-1)*jitter,
		Y: parent.Position.Y + (w.simRNG.NextFloat64()*2-1)*jitter,
		Z: parent.Position.Z + (w.simRNG.NextFloat64()*2-1)*jitter,
	}
	child := w.graph.AddNeuron(childPos, w.cfg.DefaultFiringThreshold, w.cfg.DefaultDecayRate, w.cfg.DefaultRefractoryPeriod)
	if parent.Brain != nil {
		child.Brain = parent.Brain.Clone()
	}
	w.grid.Insert(child.Id, childPos)
	w.runGestation(child.Id)
	w.runMitosisSystem(parent.Id)
}

func (w *World) runApoptosis(ev *events.Event) {
	if err := w.graph.ApoptoseNeuron(ev.TargetId); err != nil {
		w.log.Debug("apoptosis event for already-gone neuron", zap.Uint64("neuron_id", ev.TargetId))
		return
	}
	w.runApoptosisSystem(ev.TargetId)
	w.grid.Remove(ev.TargetId)
	w.graph.RemoveSynapsesTouching(ev.TargetId)
	delete(w.dendriteSources, ev.TargetId)
}

func (w *World) sample() {
	w.metrics.tickGauge.Set(float64(w.currentTick))
	w.metrics.neuronCountGa.Set(float64(len(w.graph.ActiveNeuronIDsSorted())))
	w.metrics.synapseCountGa.Set(float64(len(w.graph.ActiveSynapsesSorted())))
	w.metrics.queueDepthGauge.Set(float64(w.events.Len()))

	if !w.cfg.MetricsEnabled || len(w.cfg.MetricsLVarIndices) == 0 {
		return
	}
	sample := Sample{Tick: w.currentTick, NeuronLVars: make(map[uint64]map[int]float64)}
	for _, id := range w.graph.ActiveNeuronIDsSorted() {
		if w.metricsRNG.NextFloat64() > w.cfg.MetricsNeuronSampleRate {
			continue
		}
		n, ok := w.graph.GetNeuron(id)
		if !ok {
			continue
		}
		lv := make(map[int]float64, len(w.cfg.MetricsLVarIndices))
		for _, idx := range w.cfg.MetricsLVarIndices {
			if idx >= 0 && idx < graph.LVarCount {
				lv[idx] = n.LVars[idx]
			}
		}
		sample.NeuronLVars[id] = lv
	}
	if w.cfg.MetricsIncludeSynapses {
		sample.SynapseWeights = make(map[uint64]float64)
		for _, s := range w.graph.ActiveSynapsesSorted() {
			sample.SynapseWeights[s.Id] = s.EffectiveWeight()
		}
	}
	if w.cfg.MetricsIncludeIO {
		sample.IOValues = make(map[uint64]float64)
		for _, id := range w.graph.OutputNodeIDsSorted() {
			if out, ok := w.graph.GetOutputNode(id); ok {
				sample.IOValues[id] = out.Value
			}
		}
	}
	w.metrics.record(sample)
}
