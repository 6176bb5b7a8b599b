package physics

import (
	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/annel0/mmo-game/internal/shapecache"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// TickMS is the fixed per-tick wall-clock budget physics advances by (§4.4).
const TickMS int64 = 32

// Event tags which motion message (if any) a tick's update should emit.
type Event int

const (
	EventNone Event = iota
	EventStart
	EventEnd
	EventStartAndEnd
)

// Result is what one Advance call produces for the caller to apply to the
// entity and broadcast.
type Result struct {
	Motion   worldstore.Motion
	Facing   vec.Vec2Float
	Anim     catalog.AnimationID
	Event    Event
	Conflict bool
}

// Mover runs the five-step per-tick update from §4.4 for one entity at a
// time; the caller (engine) owns iterating tracked moving entities and
// writing Result back into the store.
type Mover struct {
	Collider *Collider
}

func NewMover(c *Collider) *Mover {
	return &Mover{Collider: c}
}

// Advance snapshots the entity's motion at `now`, clips target velocity
// against the shape cache, walks it for the tick, and reports the
// resulting motion plus which start/end events fired.
func (m *Mover) Advance(plane shapecache.PlaneStableID, cur worldstore.Motion, size, target vec.Vec3Float, now int64) Result {
	pos := cur.PositionAt(now)
	eff := m.Collider.CalcVelocity(plane, pos, size, target)
	_, durMs := m.Collider.Walk(plane, pos, size, eff, float64(TickMS))

	next := worldstore.Motion{StartPos: pos, Velocity: eff, StartTime: now}
	event := EventNone
	if !sameVelocity(eff, cur.Velocity) {
		event = EventStart
	}
	if durMs < TickMS {
		next.HasEnd = true
		next.EndTime = now + durMs
		if event == EventStart {
			event = EventStartAndEnd
		} else {
			event = EventEnd
		}
	}

	return Result{
		Motion: next,
		Facing: target.Facing(),
		Anim:   animFor(target.Facing(), eff),
		Event:  event,
	}
}

// animFor derives an animation id from facing and speed (§4.4 step 5):
// standing still plays the idle clip, otherwise the walk clip.
func animFor(facing vec.Vec2Float, eff vec.Vec3Float) catalog.AnimationID {
	if eff.X == 0 && eff.Y == 0 {
		return catalog.AnimIdle
	}
	return catalog.AnimWalk
}

func sameVelocity(a, b vec.Vec3Float) bool {
	return a.X == b.X && a.Y == b.Y && a.Z == b.Z
}

// Diverges reports whether a client-claimed position is far enough from
// the server's authoritative one to require a Conflict reset (§4.4):
// "the client claimed a position the server's shape cache contradicts".
func Diverges(authoritative, claimed vec.Vec3Float, toleranceUnits float64) bool {
	return authoritative.Sub(claimed).Length() > toleranceUnits
}
