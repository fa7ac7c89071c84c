// Package events implements the deterministic min-heap event queue: a
// priority queue keyed by (ExecutionTick, Id), written by both external
// mutators and the tick pipeline, drained exactly one tick at a time
// under a lock that nests inside the world mutex.
package events

import (
	"container/heap"
	"sync"
)

// Type enumerates the event kinds the core dispatches.
type Type int

const (
	TypeExecuteGene Type = iota
	TypeDelayedSignal
	TypeMitosis
	TypeApoptosis
	TypeFire
)

func (t Type) String() string {
	switch t {
	case TypeExecuteGene:
		return "ExecuteGene"
	case TypeDelayedSignal:
		return "DelayedSignal"
	case TypeMitosis:
		return "Mitosis"
	case TypeApoptosis:
		return "Apoptosis"
	case TypeFire:
		return "Fire"
	default:
		return "Unknown"
	}
}

// Event is a single scheduled effect. TargetId is 0 for world-scoped
// events. Payload is opaque to the queue; internal/world knows how to
// interpret it per Type.
type Event struct {
	Id            uint64
	Type          Type
	TargetId      uint64
	ExecutionTick uint64
	Payload       interface{}
}

// heapSlice is the container/heap.Interface implementation, ordered by
// (ExecutionTick, Id) ascending so that draining a tick in heap-pop order
// already yields ascending Id within that tick.
type heapSlice []*Event

func (h heapSlice) Len() int { return len(h) }
func (h heapSlice) Less(i, j int) bool {
	if h[i].ExecutionTick != h[j].ExecutionTick {
		return h[i].ExecutionTick < h[j].ExecutionTick
	}
	return h[i].Id < h[j].Id
}
func (h heapSlice) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *heapSlice) Push(x interface{}) {
	*h = append(*h, x.(*Event))
}
func (h *heapSlice) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Queue is the thread-safe min-heap. Producers (external mutation API,
// brain effects, HGL opcodes) call Push concurrently; consumption is
// single-threaded by the tick pipeline via ProcessDueEvents.
type Queue struct {
	mu   sync.Mutex
	h    heapSlice
	next uint64 // monotonic event ID counter
}

// NewQueue constructs an empty queue.
func NewQueue() *Queue {
	q := &Queue{h: make(heapSlice, 0)}
	heap.Init(&q.h)
	return q
}

// Push enqueues a new event for executionTick, assigning it a fresh,
// strictly monotonic Id, and returns that Id. It does not check whether
// executionTick is already in the past — that belongs to whoever
// schedules the event (internal/world), since the queue itself has no
// notion of "now".
func (q *Queue) Push(eventType Type, targetID uint64, executionTick uint64, payload interface{}) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next++
	ev := &Event{Id: q.next, Type: eventType, TargetId: targetID, ExecutionTick: executionTick, Payload: payload}
	heap.Push(&q.h, ev)
	return ev.Id
}

// ProcessDueEvents drains, under the queue's lock, exactly the events
// with ExecutionTick == currentTick — never earlier, never later — and
// returns them already sorted ascending by Id. Events found to be
// stamped for a tick strictly less than currentTick are a bug in the
// caller (the engine never silently catches up); debugStrict controls
// whether that condition panics (debug builds) or the stale event is
// dropped (release builds). A dropped event is neither returned nor
// logged, so the caller cannot see it.
func (q *Queue) ProcessDueEvents(currentTick uint64, debugStrict bool) []*Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []*Event
	for q.h.Len() > 0 {
		top := q.h[0]
		if top.ExecutionTick > currentTick {
			break
		}
		item := heap.Pop(&q.h).(*Event)
		if item.ExecutionTick < currentTick {
			if debugStrict {
				panic("events: queue underflow, event scheduled for a past tick")
			}
			// release mode: drop silently; nothing is logged.
			continue
		}
		due = append(due, item)
	}
	// heap.Pop already yields ExecutionTick-ascending order; since we
	// only ever pop events with ExecutionTick == currentTick in this
	// call, what remains is ties on Id, which Less already orders
	// ascending — due is already in the required order.
	return due
}

// Len reports the number of events currently queued, across all ticks —
// used by metrics to report queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.h.Len()
}

// PeekNextTick returns the ExecutionTick of the earliest queued event and
// true, or (0, false) if the queue is empty. Used by tests, never by the
// tick pipeline itself.
func (q *Queue) PeekNextTick() (uint64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.h.Len() == 0 {
		return 0, false
	}
	return q.h[0].ExecutionTick, true
}

// Snapshot returns a copy of every event still queued, for persistence —
// the event queue is part of a world snapshot. The copy is unsorted
// relative to heap order; internal/snapshot sorts deterministically.
func (q *Queue) Snapshot() []*Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Event, len(q.h))
	copy(out, q.h)
	return out
}

// Restore replaces the queue's contents with events (as persisted by a
// snapshot) and advances the Id counter past the highest Id among them,
// preserving the "IDs never reused" invariant across a restore.
func (q *Queue) Restore(evs []*Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.h = make(heapSlice, 0, len(evs))
	var maxID uint64
	for _, e := range evs {
		cp := *e
		q.h = append(q.h, &cp)
		if cp.Id > maxID {
			maxID = cp.Id
		}
	}
	heap.Init(&q.h)
	if maxID > q.next {
		q.next = maxID
	}
}
