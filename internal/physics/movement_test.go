package physics

import (
	"testing"

	"github.com/annel0/mmo-game/internal/shapecache"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/worldstore"
	"github.com/stretchr/testify/assert"
)

func TestAdvanceEmitsStartOnVelocityChange(t *testing.T) {
	cache := shapecache.New()
	cache.UpdateChunk(testPlane, vec.Vec2{}, vec.Vec3{X: 0, Y: 0, Z: -1}.CellIndex(), shapecache.Floor)
	cache.UpdateChunk(testPlane, vec.Vec2{}, vec.Vec3{X: 1, Y: 0, Z: -1}.CellIndex(), shapecache.Floor)
	mover := NewMover(New(cache))
	size := vec.Vec3Float{X: 16, Y: 16, Z: 32}

	cur := worldstore.Motion{StartPos: vec.Vec3Float{X: 16, Y: 16}, StartTime: 0}
	target := vec.Vec3Float{X: 1, Y: 0, Z: 0}

	result := mover.Advance(testPlane, cur, size, target, 0)
	assert.Equal(t, EventStart, result.Event)
	assert.Equal(t, target.X, result.Motion.Velocity.X)
}

func TestAdvanceEmitsEndWhenWalkStopsShortOfTick(t *testing.T) {
	cache := shapecache.New()
	placeSolid(cache, vec.Vec2{X: 0, Y: 0}, 1, 0, 0)
	mover := NewMover(New(cache))
	size := vec.Vec3Float{X: 8, Y: 8, Z: 32}

	cur := worldstore.Motion{StartPos: vec.Vec3Float{X: 0, Y: 0, Z: 0}, Velocity: vec.Vec3Float{X: 1}, StartTime: 0}
	target := vec.Vec3Float{X: 1, Y: 0, Z: 0}

	result := mover.Advance(testPlane, cur, size, target, 0)
	assert.True(t, result.Motion.HasEnd)
	assert.Contains(t, []Event{EventEnd, EventStartAndEnd}, result.Event)
}

func TestDivergesDetectsOutOfToleranceClaim(t *testing.T) {
	authoritative := vec.Vec3Float{X: 0, Y: 0, Z: 0}
	close := vec.Vec3Float{X: 1, Y: 0, Z: 0}
	far := vec.Vec3Float{X: 100, Y: 0, Z: 0}

	assert.False(t, Diverges(authoritative, close, 4))
	assert.True(t, Diverges(authoritative, far, 4))
}
