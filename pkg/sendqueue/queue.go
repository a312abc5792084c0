// Package sendqueue holds SD entries waiting to be transmitted.
//
// Entries come from a fixed pool. Every entry is either free or linked
// into exactly one destination's pending list. Each destination carries
// the earliest time any of its entries should go out, so entries for the
// same destination are batched into as few messages as possible.
package sendqueue

import (
	"errors"
	"iter"

	"github.com/someip-sd/sd-go/pkg/registry"
	"github.com/someip-sd/sd-go/pkg/slotmap"
	"github.com/someip-sd/sd-go/pkg/timer"
)

// ErrNoFreeEntry is returned when the pool is exhausted.
var ErrNoFreeEntry = errors.New("send queue pool exhausted")

// Kind is the kind of a queued entry.
type Kind uint8

const (
	KindFind Kind = iota
	KindOffer
	KindStopOffer
	KindSubscribe
	KindStopSubscribe
	KindSubscribeAck
	KindSubscribeNack
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFind:
		return "FIND"
	case KindOffer:
		return "OFFER"
	case KindStopOffer:
		return "STOP_OFFER"
	case KindSubscribe:
		return "SUBSCRIBE"
	case KindStopSubscribe:
		return "STOP_SUBSCRIBE"
	case KindSubscribeAck:
		return "SUBSCRIBE_ACK"
	case KindSubscribeNack:
		return "SUBSCRIBE_NACK"
	default:
		return "UNKNOWN"
	}
}

// IsStop reports whether the kind withdraws something. Such entries are
// sent even after their owner went away.
func (k Kind) IsStop() bool {
	return k == KindStopOffer || k == KindStopSubscribe || k == KindSubscribeNack
}

// Handle refers to a queued entry.
type Handle = slotmap.Handle

// Item is a queued entry.
type Item[T any] struct {
	Kind    Kind
	Dest    registry.Handle
	SendAt  timer.Stamp
	Payload T
}

type node[T any] struct {
	item       Item[T]
	prev, next Handle
}

type destination struct {
	head, tail Handle
	n          int
	sendAt     timer.Stamp
}

// Queue is the per-instance send queue.
type Queue[T any] struct {
	pool  *slotmap.Map[node[T]]
	dests map[registry.Handle]*destination
	order []registry.Handle
}

// New creates a queue with room for capacity entries.
func New[T any](capacity int) *Queue[T] {
	return &Queue[T]{
		pool:  slotmap.New[node[T]](capacity),
		dests: make(map[registry.Handle]*destination),
	}
}

// Push appends item to the pending list of item.Dest and pulls the
// destination's send time forward to item.SendAt if that is earlier.
func (q *Queue[T]) Push(item Item[T]) (Handle, error) {
	h, ok := q.pool.Insert(node[T]{item: item})
	if !ok {
		return Handle{}, ErrNoFreeEntry
	}

	d := q.dests[item.Dest]
	if d == nil {
		d = &destination{sendAt: timer.Invalid}
		q.dests[item.Dest] = d
		q.order = append(q.order, item.Dest)
	}
	if d.tail.IsZero() {
		d.head = h
	} else {
		tail, _ := q.pool.Get(d.tail)
		tail.next = h
		n, _ := q.pool.Get(h)
		n.prev = d.tail
	}
	d.tail = h
	d.n++
	d.sendAt = timer.Earliest(d.sendAt, item.SendAt)
	return h, nil
}

// Get returns the queued item for h.
func (q *Queue[T]) Get(h Handle) (*Item[T], bool) {
	n, ok := q.pool.Get(h)
	if !ok {
		return nil, false
	}
	return &n.item, true
}

// Remove unlinks h and returns its item to the caller. The destination is
// dropped once its list is empty.
func (q *Queue[T]) Remove(h Handle) (Item[T], bool) {
	n, ok := q.pool.Get(h)
	if !ok {
		return Item[T]{}, false
	}
	d := q.dests[n.item.Dest]
	if p, ok := q.pool.Get(n.prev); ok {
		p.next = n.next
	} else {
		d.head = n.next
	}
	if nx, ok := q.pool.Get(n.next); ok {
		nx.prev = n.prev
	} else {
		d.tail = n.prev
	}
	d.n--
	item := n.item
	q.pool.Remove(h)
	if d.n == 0 {
		q.dropDest(item.Dest)
	}
	return item, true
}

func (q *Queue[T]) dropDest(dest registry.Handle) {
	delete(q.dests, dest)
	for i, o := range q.order {
		if o == dest {
			q.order = append(q.order[:i], q.order[i+1:]...)
			return
		}
	}
}

// Entries iterates over the pending entries of dest in queue order. The
// current entry may be removed during iteration.
func (q *Queue[T]) Entries(dest registry.Handle) iter.Seq2[Handle, *Item[T]] {
	return func(yield func(Handle, *Item[T]) bool) {
		d := q.dests[dest]
		if d == nil {
			return
		}
		for h := d.head; !h.IsZero(); {
			n, ok := q.pool.Get(h)
			if !ok {
				return
			}
			next := n.next
			if !yield(h, &n.item) {
				return
			}
			h = next
		}
	}
}

// Destinations returns the destinations with pending entries in the
// order they were first used.
func (q *Queue[T]) Destinations() []registry.Handle {
	return append([]registry.Handle(nil), q.order...)
}

// Due returns the destinations whose send time has been reached. With
// force set every destination is due.
func (q *Queue[T]) Due(now timer.Stamp, force bool) []registry.Handle {
	var due []registry.Handle
	for _, dest := range q.order {
		if force || q.dests[dest].sendAt.Expired(now) {
			due = append(due, dest)
		}
	}
	return due
}

// SendAt returns the send time of dest, Invalid if nothing is pending.
func (q *Queue[T]) SendAt(dest registry.Handle) timer.Stamp {
	if d := q.dests[dest]; d != nil {
		return d.sendAt
	}
	return timer.Invalid
}

// Rearm sets the send time of dest.
func (q *Queue[T]) Rearm(dest registry.Handle, at timer.Stamp) {
	if d := q.dests[dest]; d != nil {
		d.sendAt = at
	}
}

// NextSendAt returns the earliest send time over all destinations.
func (q *Queue[T]) NextSendAt() timer.Stamp {
	next := timer.Invalid
	for _, d := range q.dests {
		next = timer.Earliest(next, d.sendAt)
	}
	return next
}

// Len returns the number of entries pending for dest.
func (q *Queue[T]) Len(dest registry.Handle) int {
	if d := q.dests[dest]; d != nil {
		return d.n
	}
	return 0
}

// Total returns the number of queued entries.
func (q *Queue[T]) Total() int {
	return q.pool.Len()
}

// Free returns the number of unused pool entries.
func (q *Queue[T]) Free() int {
	return q.pool.Cap() - q.pool.Len()
}

// Clear removes every entry, passing each to fn first.
func (q *Queue[T]) Clear(fn func(Item[T])) {
	for _, dest := range q.Destinations() {
		for h := range q.Entries(dest) {
			item, _ := q.Remove(h)
			if fn != nil {
				fn(item)
			}
		}
	}
}
