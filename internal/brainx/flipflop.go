package brainx

import "github.com/hidra-sim/hidra/internal/graph"

// FlipFlopBrain is an SR-latch: inputs[0] is Set, inputs[1] is Reset.
// Set asserted with Reset low sets State true; Reset asserted with Set
// low clears it; both low leaves State unchanged; both high (the
// invalid SR condition) clears State, matching a reset-dominant latch.
type FlipFlopBrain struct {
	State bool
}

func NewFlipFlopBrain() *FlipFlopBrain { return &FlipFlopBrain{} }

func (b *FlipFlopBrain) Evaluate(inputs []float64) []float64 {
	set := boolAt(inputs, 0)
	reset := boolAt(inputs, 1)
	switch {
	case set && reset:
		b.State = false
	case set:
		b.State = true
	case reset:
		b.State = false
	}
	if b.State {
		return []float64{1}
	}
	return []float64{0}
}

func (b *FlipFlopBrain) Clone() graph.Brain {
	return &FlipFlopBrain{State: b.State}
}

func (b *FlipFlopBrain) Kind() string { return "flip_flop" }
