package sd

import (
	"cmp"
	"container/heap"
	"slices"

	"github.com/someip-sd/sd-go/pkg/timer"
)

type entityKind uint8

// Kinds in canonical run order.
const (
	kindServer entityKind = iota
	kindHandler
	kindClient
	kindEventgroup
)

type entityRef struct {
	kind entityKind
	idx  int
}

func compareRefs(a, b entityRef) int {
	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	return cmp.Compare(a.idx, b.idx)
}

type wakeItem struct {
	at  timer.Stamp
	ref entityRef
}

// wakeHeap is a min-heap of wake times. Entries are not removed when an
// entity re-arms; stale entries are skipped when popped.
type wakeHeap []wakeItem

func (h wakeHeap) Len() int { return len(h) }
func (h wakeHeap) Less(i, j int) bool {
	if h[i].at == h[j].at {
		return compareRefs(h[i].ref, h[j].ref) < 0
	}
	return h[i].at.Before(h[j].at)
}
func (h wakeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *wakeHeap) Push(x any) { *h = append(*h, x.(wakeItem)) }
func (h *wakeHeap) Pop() any {
	old := *h
	it := old[len(old)-1]
	*h = old[:len(old)-1]
	return it
}

func (e *Engine) schedOf(ref entityRef) *sched {
	switch ref.kind {
	case kindServer:
		return &e.servers[ref.idx].sched
	case kindHandler:
		return &e.handlers[ref.idx].sched
	case kindClient:
		return &e.clients[ref.idx].sched
	default:
		return &e.eventgroups[ref.idx].sched
	}
}

// request schedules ref to run in the current or next pass.
func (e *Engine) request(inst *instance, ref entityRef) {
	s := e.schedOf(ref)
	if s.requested {
		return
	}
	s.requested = true
	inst.requested = append(inst.requested, ref)
}

// arm sets the single wake time of ref.
func (e *Engine) arm(inst *instance, ref entityRef, at timer.Stamp) {
	s := e.schedOf(ref)
	if s.wake == at {
		return
	}
	s.wake = at
	if !at.IsFinite() {
		return
	}
	heap.Push(&inst.wake, wakeItem{at: at, ref: ref})
	if len(inst.wake) > 4*e.entityCount(inst)+16 {
		e.compactWake(inst)
	}
}

func (e *Engine) entityCount(inst *instance) int {
	return len(inst.servers) + len(inst.handlers) + len(inst.clients) + len(inst.eventgroups)
}

// compactWake drops stale heap entries.
func (e *Engine) compactWake(inst *instance) {
	live := inst.wake[:0]
	for _, it := range inst.wake {
		if e.schedOf(it.ref).wake == it.at {
			live = append(live, it)
		}
	}
	inst.wake = live
	heap.Init(&inst.wake)
}

// collectDue returns the entities that must run now in canonical order
// and clears their pending flags.
func (e *Engine) collectDue(inst *instance) []entityRef {
	due := inst.requested
	inst.requested = nil
	for _, ref := range due {
		e.schedOf(ref).requested = false
	}

	for len(inst.wake) > 0 && inst.wake[0].at.Expired(e.now) {
		it := heap.Pop(&inst.wake).(wakeItem)
		s := e.schedOf(it.ref)
		if s.wake != it.at {
			continue
		}
		s.wake = timer.Invalid
		due = append(due, it.ref)
	}

	slices.SortFunc(due, compareRefs)
	return slices.Compact(due)
}

// nextWake returns the earliest pending wake time of inst.
func (e *Engine) nextWake(inst *instance) timer.Stamp {
	for len(inst.wake) > 0 {
		top := inst.wake[0]
		if e.schedOf(top.ref).wake == top.at {
			break
		}
		heap.Pop(&inst.wake)
	}
	next := inst.queue.NextSendAt()
	if len(inst.wake) > 0 {
		next = timer.Earliest(next, inst.wake[0].at)
	}
	return next
}
