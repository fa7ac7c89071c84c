package graph

import "github.com/hidra-sim/hidra/types"

// Neuron is a single computational unit: a position, a fixed-width local
// variable array with reserved semantic slots, and one Brain. Apoptosed
// neurons stay in the owning Graph's map (for ID stability) with
// IsActive false; they are excluded from propagation and spatial
// queries.
type Neuron struct {
	Id       uint64
	Position types.Position3D
	IsActive bool
	LVars    [LVarCount]float64
	Brain    Brain

	// FiredThisTick is true for the tick in which the neuron fired; the
	// next tick's synapse pass reads it as the neuron's output value, then
	// the integration phase resets it to false before deciding whether to
	// fire again.
	FiredThisTick bool
}

// newNeuron constructs a neuron with its reserved LVars initialized from
// the given world defaults. Free LVar slots (5..238) start at zero.
func newNeuron(id uint64, pos types.Position3D, defaultThreshold, defaultDecayRate, defaultRefractoryPeriod float64) *Neuron {
	n := &Neuron{Id: id, Position: pos, IsActive: true}
	n.LVars[LVarFiringThreshold] = defaultThreshold
	n.LVars[LVarDecayRate] = defaultDecayRate
	n.LVars[LVarRefractoryPeriod] = defaultRefractoryPeriod
	n.LVars[LVarHealth] = 1.0
	return n
}

// EffectiveThreshold returns the neuron's effective firing threshold: the base
// FiringThreshold plus the current AdaptiveThreshold.
func (n *Neuron) EffectiveThreshold() float64 {
	return n.LVars[LVarFiringThreshold] + n.LVars[LVarAdaptiveThreshold]
}

// CanFire reports whether the neuron is out of its refractory period.
func (n *Neuron) CanFire() bool {
	return n.LVars[LVarRefractoryTimeLeft] <= 0
}
