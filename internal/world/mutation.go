package world

import (
	"github.com/hidra-sim/hidra/internal/graph"
	"github.com/hidra-sim/hidra/internal/herr"
	"github.com/hidra-sim/hidra/internal/hgl"
	"github.com/hidra-sim/hidra/types"
)

// This file is the external Mutation API: every way a caller outside the
// tick pipeline is allowed to touch a world. Every exported method here
// takes the world mutex itself, so calling one mid-Step would deadlock —
// by design, since a Step holds the same mutex for its entire duration
// and mutation is only ever valid between ticks.

// AddInputNode registers a new input node and returns its ID.
func (w *World) AddInputNode() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.graph.AddInputNode().Id
}

// RemoveInputNode deletes an input node.
func (w *World) RemoveInputNode(id uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.graph.RemoveInputNode(id)
}

// SetInputValue writes an input node's current value, typically called
// once per tick by the driving Activity before Step.
func (w *World) SetInputValue(id uint64, value float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.graph.SetInputValue(id, value)
}

// GetOutputValue reads an output node's current value.
func (w *World) GetOutputValue(id uint64) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, ok := w.graph.GetOutputNode(id)
	if !ok {
		return 0, herr.NotFound("output node %d does not exist", id)
	}
	return n.Value, nil
}

// AddOutputNode registers a new output node and returns its ID.
func (w *World) AddOutputNode() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.graph.AddOutputNode().Id
}

// RemoveOutputNode deletes an output node.
func (w *World) RemoveOutputNode(id uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.graph.RemoveOutputNode(id)
}

// AddNeuron creates a new neuron at pos using the world's configured
// defaults, runs its Genesis gene if one is registered, inserts it into
// the spatial grid, and returns its ID.
func (w *World) AddNeuron(pos types.Position3D) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := w.graph.AddNeuron(pos, w.cfg.DefaultFiringThreshold, w.cfg.DefaultDecayRate, w.cfg.DefaultRefractoryPeriod)
	w.grid.Insert(n.Id, pos)
	w.runGenesis(n.Id)
	return n.Id
}

// ApoptoseNeuron immediately deactivates a neuron and reclaims it from
// the spatial hash and synapse list, bypassing the event queue — for
// external callers that want the effect to land before the next Step
// rather than scheduled for one.
func (w *World) ApoptoseNeuron(id uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.graph.ApoptoseNeuron(id); err != nil {
		return err
	}
	w.grid.Remove(id)
	w.graph.RemoveSynapsesTouching(id)
	delete(w.dendriteSources, id)
	return nil
}

// PatchNeuronLVars applies a sparse LVar update to a neuron.
func (w *World) PatchNeuronLVars(id uint64, patch map[int]float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.graph.PatchNeuronLVars(id, patch)
}

// SetNeuronBrain replaces a neuron's Brain outright (the external
// equivalent of what mitosis does via Clone internally).
func (w *World) SetNeuronBrain(id uint64, b graph.Brain) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, ok := w.graph.GetNeuron(id)
	if !ok {
		return herr.NotFound("neuron %d does not exist", id)
	}
	n.Brain = b
	return nil
}

// AddSynapse creates a new synapse and returns its ID.
func (w *World) AddSynapse(sourceID, targetID uint64, sigType graph.SignalType, weight, parameter float64) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.graph.AddSynapse(sourceID, targetID, sigType, weight, parameter)
	w.synapseCreatedAtTick[s.Id] = w.currentTick
	return s.Id
}

// RemoveSynapse deletes a synapse outright.
func (w *World) RemoveSynapse(id uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.synapseCreatedAtTick, id)
	return w.graph.RemoveSynapse(id)
}

// ModifySynapse applies fn to the synapse with id under the world lock,
// the general-purpose escape hatch for updating Weight, Parameter,
// FatigueRate, Condition, or any other field a caller needs to adjust
// without reconstructing the synapse from scratch.
func (w *World) ModifySynapse(id uint64, fn func(*graph.Synapse)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.graph.GetSynapse(id)
	if !ok {
		return herr.NotFound("synapse %d does not exist", id)
	}
	fn(s)
	return nil
}

// SetHormone writes a global hormone level.
func (w *World) SetHormone(idx int, value float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.graph.SetHormone(idx, value)
}

// GetHormone reads a global hormone level.
func (w *World) GetHormone(idx int) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.graph.GetHormone(idx)
}

// SetBrainStructure replaces the world's compiled genome wholesale, the
// named bulk operation a genetic search uses to install a new candidate
// between generations. It does not touch any neuron's already-cloned
// Brain; only future Genesis/Gestation/ExecuteGene calls see the new
// genes.
func (w *World) SetBrainStructure(genome *hgl.Registry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.genome = genome
}

// StageInputsThenStep writes every entry of inputs (input node ID to
// value) and then runs exactly one Step, atomically with respect to any
// other caller of the Mutation API — the combination an Activity needs
// so that "set this tick's inputs, then advance" can never be split by a
// concurrent mutation from another goroutine.
func (w *World) StageInputsThenStep(inputs map[uint64]float64) error {
	w.mu.Lock()
	for id, v := range inputs {
		if err := w.graph.SetInputValue(id, v); err != nil {
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()
	w.Step()
	return nil
}
