package physics

import "github.com/annel0/mmo-game/internal/vec"

// PathEventKind tags one queued client path message (§4.4).
type PathEventKind int

const (
	PathStart PathEventKind = iota
	PathUpdate
	PathBlocked
)

// PathEvent is one client-reported path message, normalized to an absolute
// tick time so the queue can be drained in order regardless of kind.
type PathEvent struct {
	Kind      PathEventKind
	AtMs      int64 // absolute engine-clock time this event takes effect
	Pos       vec.Vec3Float
	Velocity  vec.Vec3Float
	InputBits uint32
}

// pathQueueCapacity is the bounded queue depth from §4.4; overflow is
// treated as desync, same as a computed-vs-claimed divergence.
const pathQueueCapacity = 8

// PathQueue buffers one entity's pending path events between ticks.
type PathQueue struct {
	events []PathEvent
}

func NewPathQueue() *PathQueue {
	return &PathQueue{}
}

// Push enqueues an event in arrival order, reporting overflow if the queue
// is already at capacity (the caller should treat this as desync and reset
// the entity's motion).
func (q *PathQueue) Push(e PathEvent) (overflowed bool) {
	if len(q.events) >= pathQueueCapacity {
		return true
	}
	q.events = append(q.events, e)
	return false
}

// DrainUntil removes and returns every queued event with AtMs <= horizon,
// in arrival order ("dequeues events up to now + TICK_MS", §4.4).
func (q *PathQueue) DrainUntil(horizon int64) []PathEvent {
	i := 0
	for i < len(q.events) && q.events[i].AtMs <= horizon {
		i++
	}
	drained := q.events[:i:i]
	rest := make([]PathEvent, len(q.events)-i)
	copy(rest, q.events[i:])
	q.events = rest
	return drained
}

func (q *PathQueue) Len() int { return len(q.events) }

// Reset clears all pending events, used when a Conflict forces the entity
// back to server-authoritative motion.
func (q *PathQueue) Reset() {
	q.events = nil
}
