package simnet

import (
	"sort"

	"github.com/netreconf/bgpplan/pkg/model"
)

// EventKind discriminates the variants of Event. Session establishment
// and termination are network-level events: they have no router-side
// return value, they only exist to be observed and to drive
// RIB cleanup at the destination.
type EventKind int

const (
	EventBgpUpdate EventKind = iota
	EventBgpWithdraw
	EventSessionEstablish
	EventSessionTerminate
)

// Event is a single message in flight between two routers, the unit
// the queue orders and the network delivers.
type Event struct {
	From    model.RouterId
	To      model.RouterId
	Kind    EventKind
	Route   model.BgpRoute // meaningful for EventBgpUpdate
	Prefix  model.Prefix   // meaningful for EventBgpWithdraw

	// Priority is an optional ordering hint a caller can attach when
	// enqueuing; the basic FIFO queue ignores it, a priority-aware
	// queue could use it to explore alternate valid interleavings. Not
	// currently consulted by either queue kind below, held for callers
	// that want to tag events for their own bookkeeping.
	Priority int

	// arrival and sequence are queue bookkeeping, stamped by Queue.Push
	// rather than by the caller.
	arrival  float64
	sequence int
}

// QueueKind selects the event-ordering discipline a Network uses.
type QueueKind int

const (
	// QueueFIFO preserves arrival (enqueue) order exactly.
	QueueFIFO QueueKind = iota
	// QueueTimed draws each event an arrival time from a distribution
	// and reorders by it, breaking ties by enqueue sequence.
	QueueTimed
)

func (k QueueKind) String() string {
	if k == QueueTimed {
		return "timed"
	}
	return "fifo"
}

// ArrivalSource supplies arrival times for a timed queue. Implementations
// are expected to be deterministic for a given seed, per spec.md §4.3's
// "convergence is deterministic given the queue kind and an optional
// random seed."
type ArrivalSource interface {
	Next() float64
}

// constantArrival is the degenerate ArrivalSource used when no
// distribution is configured: every event arrives at sequence order,
// which makes a Queue in QueueTimed mode with no configured source
// behave identically to QueueFIFO.
type constantArrival struct{ seq int }

func (c *constantArrival) Next() float64 {
	c.seq++
	return float64(c.seq)
}

// Queue is the event queue a Network drains to convergence. It is not
// safe for concurrent use; the simulator is single-threaded cooperative
// per spec.md §4.3.
type Queue struct {
	kind    QueueKind
	arrival ArrivalSource
	items   []Event
	nextSeq int
}

// NewQueue returns an empty queue of the given kind. source is only
// consulted for QueueTimed; pass nil to get the deterministic default
// (arrival order equals enqueue order).
func NewQueue(kind QueueKind, source ArrivalSource) *Queue {
	if source == nil {
		source = &constantArrival{}
	}
	return &Queue{kind: kind, arrival: source}
}

// Kind reports the queue's ordering discipline.
func (q *Queue) Kind() QueueKind { return q.kind }

// Push enqueues e, stamping it with arrival and sequence bookkeeping.
func (q *Queue) Push(e Event) {
	e.sequence = q.nextSeq
	q.nextSeq++
	if q.kind == QueueTimed {
		e.arrival = q.arrival.Next()
	} else {
		e.arrival = float64(e.sequence)
	}
	q.items = append(q.items, e)
	if q.kind == QueueTimed {
		sort.SliceStable(q.items, func(i, j int) bool {
			if q.items[i].arrival != q.items[j].arrival {
				return q.items[i].arrival < q.items[j].arrival
			}
			return q.items[i].sequence < q.items[j].sequence
		})
	}
}

// Pop removes and returns the next event in delivery order, or false if
// the queue is empty.
func (q *Queue) Pop() (Event, bool) {
	if len(q.items) == 0 {
		return Event{}, false
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e, true
}

// Len reports how many events are still pending.
func (q *Queue) Len() int { return len(q.items) }
