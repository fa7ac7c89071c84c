// Package activity defines the task-adapter boundary the core hands
// external collaborators: the Activity interface itself, the Predicate
// types a predicate-bounded run terminates on, and the synchronous
// run_until driver loop. Concrete task adapters (CartPole, XOR,
// TicTacToe, DMTS) are external collaborators, not part of this
// package — this package only owns the contract they implement against.
package activity

import (
	"github.com/hidra-sim/hidra/internal/herr"
	"github.com/hidra-sim/hidra/internal/world"
)

// ActivityConfig is the configuration an Activity is initialized with:
// named input/output node bindings plus opaque task-specific
// parameters.
type ActivityConfig struct {
	InputMapping  map[string]uint64
	OutputMapping map[string]uint64
	Params        map[string]string
}

// Activity adapts a running World into an external task: it feeds
// input-node values, reads output-node values, and scores the run.
// Step is called once per engine tick by the driver loop (RunUntil),
// after the tick it reports on has already executed, and before the
// next one.
type Activity interface {
	Initialize(cfg ActivityConfig) error
	Step(w *world.World) (done bool, err error)
	GetFitnessScore() float64
	GetRunMetadata() map[string]string
}

// RunUntil drives w forward one tick at a time, calling act.Step after
// each tick, until act reports it is done, pred (if non-nil) is
// satisfied, or maxTicks is reached (0 means unbounded — pred or act
// must eventually terminate the run).
func RunUntil(w *world.World, act Activity, pred Predicate, maxTicks uint64) error {
	if act == nil {
		return herr.Argument("RunUntil requires a non-nil Activity")
	}
	for {
		w.Step()
		done, err := act.Step(w)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if pred != nil && pred.Evaluate(w) {
			return nil
		}
		if maxTicks > 0 && w.CurrentTick() >= maxTicks {
			return nil
		}
	}
}
