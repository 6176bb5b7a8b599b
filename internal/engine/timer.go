package engine

import "container/heap"

// Timer is one scheduled callback, fired no earlier than FireAt (engine
// clock milliseconds). Grounded on spec §5's three-source loop, whose
// first source is "a timer queue of scheduled callbacks (ordered by fire
// time)" — implemented here the idiomatic Go way, a container/heap
// priority queue, rather than the teacher's goroutine-per-timer
// time.AfterFunc pattern, since the loop thread must be the only thing
// that ever runs timer callbacks (§5's single-threaded core invariant).
type Timer struct {
	ID     uint64
	FireAt int64
	Fn     func(now int64)

	index int // heap bookkeeping
}

type timerHeap []*Timer

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].FireAt < h[j].FireAt }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerHeap) Push(x interface{}) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// TimerQueue is the engine loop's timer source. Not safe for concurrent
// use — like everything else reachable from Engine.Run, it is only ever
// touched from the loop goroutine.
type TimerQueue struct {
	h      timerHeap
	nextID uint64
	byID   map[uint64]*Timer
}

func NewTimerQueue() *TimerQueue {
	return &TimerQueue{byID: make(map[uint64]*Timer)}
}

// Schedule arranges for fn to run once the loop's clock reaches fireAt.
func (q *TimerQueue) Schedule(fireAt int64, fn func(now int64)) uint64 {
	q.nextID++
	t := &Timer{ID: q.nextID, FireAt: fireAt, Fn: fn}
	heap.Push(&q.h, t)
	q.byID[t.ID] = t
	return t.ID
}

// Cancel removes a pending timer; a no-op if it already fired or was
// never scheduled.
func (q *TimerQueue) Cancel(id uint64) {
	t, ok := q.byID[id]
	if !ok {
		return
	}
	heap.Remove(&q.h, t.index)
	delete(q.byID, id)
}

// NextFireAt reports when the next timer is due, and whether one exists
// at all. Engine.Run does not consult it: due timers fire from PopDue on
// each fixed-rate tick.
func (q *TimerQueue) NextFireAt() (int64, bool) {
	if len(q.h) == 0 {
		return 0, false
	}
	return q.h[0].FireAt, true
}

// PopDue fires (and removes) every timer due at or before now, in fire
// order, so a single late tick doesn't reorder simultaneous callbacks.
func (q *TimerQueue) PopDue(now int64) {
	for len(q.h) > 0 && q.h[0].FireAt <= now {
		t := heap.Pop(&q.h).(*Timer)
		delete(q.byID, t.ID)
		t.Fn(now)
	}
}

func (q *TimerQueue) Len() int { return len(q.h) }
