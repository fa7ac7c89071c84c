// Package kahan implements classical compensated (Kahan) summation, the
// primitive that makes a tick's dendritic integration order-independent:
// synapses are visited in ascending synapse ID, not input order, but two
// numerically equivalent wire sets must still land on the same sum to
// within one ULP.
package kahan

// Accumulator is a single compensated running sum. One is kept per active
// target neuron per tick (internal/world allocates a map keyed by
// neuron ID) and is zeroed at the start of every tick's integration
// phase — never mid-tick.
type Accumulator struct {
	sum float64
	c   float64 // running compensation for lost low-order bits
}

// Add folds v into the running sum. No locking: accumulators are
// per-target and the synapse pass that calls Add is single-threaded.
func (a *Accumulator) Add(v float64) {
	y := v - a.c
	t := a.sum + y
	a.c = (t - a.sum) - y
	a.sum = t
}

// Sum returns the compensated total accumulated so far.
func (a *Accumulator) Sum() float64 { return a.sum }

// Reset zeroes both the running sum and the compensation term, returning
// the accumulator to its just-constructed state.
func (a *Accumulator) Reset() {
	a.sum = 0
	a.c = 0
}

// Set is a map of per-target accumulators, the shape internal/world keeps
// for a tick's dendritic integration phase.
type Set struct {
	byTarget map[uint64]*Accumulator
}

// NewSet constructs an empty accumulator set.
func NewSet() *Set {
	return &Set{byTarget: make(map[uint64]*Accumulator)}
}

// Add deposits v into the accumulator for targetID, allocating it on
// first use.
func (s *Set) Add(targetID uint64, v float64) {
	acc, ok := s.byTarget[targetID]
	if !ok {
		acc = &Accumulator{}
		s.byTarget[targetID] = acc
	}
	acc.Add(v)
}

// Sum returns the accumulated total for targetID, or 0 if nothing was
// ever added to it this tick.
func (s *Set) Sum(targetID uint64) float64 {
	if acc, ok := s.byTarget[targetID]; ok {
		return acc.Sum()
	}
	return 0
}

// ResetAll clears every accumulator's running sum in place without
// discarding the map itself, so the same Set can be reused tick after
// tick without its backing map being reallocated once it has grown to
// cover the live neuron population.
func (s *Set) ResetAll() {
	for _, acc := range s.byTarget {
		acc.Reset()
	}
}

// Prune drops accumulators for target IDs not present in live, so the
// set need not keep entries for dead neuron IDs. internal/world does not
// call it; its Set keeps an entry for every neuron ID it has ever fed.
func (s *Set) Prune(live map[uint64]struct{}) {
	for id := range s.byTarget {
		if _, ok := live[id]; !ok {
			delete(s.byTarget, id)
		}
	}
}
