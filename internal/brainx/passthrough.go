// Package brainx implements the concrete Brain variants a neuron can
// hold: a feed-forward network evaluated with gonum, a logic-gate and a
// flip-flop for hand-wired digital circuits, and a pass-through for
// neurons whose dynamics are entirely governed by synapse weights and
// firing threshold.
package brainx

import "github.com/hidra-sim/hidra/internal/graph"

// PassThrough returns its inputs unchanged, for a neuron whose
// decision-making lives in the threshold/decay/refractory LVars rather
// than in the brain. It is not installed automatically: a freshly
// created neuron has a nil Brain until one is set.
type PassThrough struct{}

func NewPassThrough() *PassThrough { return &PassThrough{} }

func (p *PassThrough) Evaluate(inputs []float64) []float64 {
	out := make([]float64, len(inputs))
	copy(out, inputs)
	return out
}

func (p *PassThrough) Clone() graph.Brain { return &PassThrough{} }

func (p *PassThrough) Kind() string { return "pass_through" }
