package activity

import (
	"math"

	"github.com/hidra-sim/hidra/internal/herr"
	"github.com/hidra-sim/hidra/internal/world"
)

// Predicate is a boolean test over a World's current state, evaluated
// at tick boundaries by RunUntil.
type Predicate interface {
	Evaluate(w *world.World) bool
}

// PredicateKind names the string tag a PredicateSpec carries, matching
// the leaf predicate vocabulary plus the "and"/"or" combinators.
type PredicateKind string

const (
	PredicateTickAtLeast PredicateKind = "tick>=N"
	PredicateOutputEq    PredicateKind = "output_eq"
	PredicateOutputGE    PredicateKind = "output_ge"
	PredicateOutputLE    PredicateKind = "output_le"
	PredicateStableForN  PredicateKind = "stable_for_n"
	PredicateAnd         PredicateKind = "and"
	PredicateOr          PredicateKind = "or"
)

// PredicateSpec is a declarative, JSON/config-friendly description of a
// Predicate tree, so a run's termination condition can come from a
// config file or CLI flag rather than only from Go code.
type PredicateSpec struct {
	Kind     PredicateKind   `mapstructure:"kind" json:"kind"`
	Tick     uint64          `mapstructure:"tick,omitempty" json:"tick,omitempty"`
	OutputId uint64          `mapstructure:"output_id,omitempty" json:"output_id,omitempty"`
	Value    float64         `mapstructure:"value,omitempty" json:"value,omitempty"`
	N        int             `mapstructure:"n,omitempty" json:"n,omitempty"`
	Epsilon  float64         `mapstructure:"epsilon,omitempty" json:"epsilon,omitempty"`
	Children []PredicateSpec `mapstructure:"children,omitempty" json:"children,omitempty"`
}

// Build compiles a PredicateSpec tree into a live Predicate.
func Build(spec PredicateSpec) (Predicate, error) {
	switch spec.Kind {
	case PredicateTickAtLeast:
		return TickAtLeast(spec.Tick), nil
	case PredicateOutputEq:
		return OutputEq(spec.OutputId, spec.Value), nil
	case PredicateOutputGE:
		return OutputGE(spec.OutputId, spec.Value), nil
	case PredicateOutputLE:
		return OutputLE(spec.OutputId, spec.Value), nil
	case PredicateStableForN:
		if spec.N <= 0 {
			return nil, herr.Argument("stable_for_n requires n > 0, got %d", spec.N)
		}
		return StableForN(spec.OutputId, spec.N, spec.Epsilon), nil
	case PredicateAnd:
		children, err := buildChildren(spec.Children)
		if err != nil {
			return nil, err
		}
		return And(children...), nil
	case PredicateOr:
		children, err := buildChildren(spec.Children)
		if err != nil {
			return nil, err
		}
		return Or(children...), nil
	default:
		return nil, herr.Configuration("unknown predicate kind %q", spec.Kind)
	}
}

func buildChildren(specs []PredicateSpec) ([]Predicate, error) {
	if len(specs) == 0 {
		return nil, herr.Configuration("predicate combinator requires at least one child")
	}
	preds := make([]Predicate, 0, len(specs))
	for _, s := range specs {
		p, err := Build(s)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

type tickAtLeast struct{ n uint64 }

// TickAtLeast builds the "tick>=N" predicate.
func TickAtLeast(n uint64) Predicate { return tickAtLeast{n: n} }

func (p tickAtLeast) Evaluate(w *world.World) bool { return w.CurrentTick() >= p.n }

type outputCompare struct {
	id    uint64
	value float64
	cmp   func(actual, target float64) bool
}

func (p outputCompare) Evaluate(w *world.World) bool {
	v, err := w.GetOutputValue(p.id)
	if err != nil {
		return false
	}
	return p.cmp(v, p.value)
}

// OutputEq builds the "output_eq" predicate: exact equality on an
// output node's value.
func OutputEq(id uint64, value float64) Predicate {
	return outputCompare{id: id, value: value, cmp: func(a, t float64) bool { return a == t }}
}

// OutputGE builds the "output_ge" predicate.
func OutputGE(id uint64, value float64) Predicate {
	return outputCompare{id: id, value: value, cmp: func(a, t float64) bool { return a >= t }}
}

// OutputLE builds the "output_le" predicate.
func OutputLE(id uint64, value float64) Predicate {
	return outputCompare{id: id, value: value, cmp: func(a, t float64) bool { return a <= t }}
}

// stableForNPredicate tracks a sliding window of an output's recent
// values across repeated Evaluate calls, since "stable for N ticks" is
// inherently stateful — a single world snapshot can't answer it.
type stableForNPredicate struct {
	id      uint64
	n       int
	epsilon float64
	history []float64
}

// StableForN builds the "stable_for_n" predicate: true once the last n
// consecutive Evaluate calls observed an output value within epsilon of
// each other.
func StableForN(id uint64, n int, epsilon float64) Predicate {
	return &stableForNPredicate{id: id, n: n, epsilon: epsilon}
}

func (p *stableForNPredicate) Evaluate(w *world.World) bool {
	v, err := w.GetOutputValue(p.id)
	if err != nil {
		return false
	}
	p.history = append(p.history, v)
	if len(p.history) > p.n {
		p.history = p.history[len(p.history)-p.n:]
	}
	if len(p.history) < p.n {
		return false
	}
	first := p.history[0]
	for _, x := range p.history {
		if math.Abs(x-first) > p.epsilon {
			return false
		}
	}
	return true
}

type andPredicate struct{ preds []Predicate }

// And combines predicates: true only once every one of them is true.
func And(preds ...Predicate) Predicate { return andPredicate{preds: preds} }

func (p andPredicate) Evaluate(w *world.World) bool {
	for _, pr := range p.preds {
		if !pr.Evaluate(w) {
			return false
		}
	}
	return true
}

type orPredicate struct{ preds []Predicate }

// Or combines predicates: true as soon as any one of them is true.
func Or(preds ...Predicate) Predicate { return orPredicate{preds: preds} }

func (p orPredicate) Evaluate(w *world.World) bool {
	for _, pr := range p.preds {
		if pr.Evaluate(w) {
			return true
		}
	}
	return false
}
