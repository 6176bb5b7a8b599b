package physics

import (
	"testing"

	"github.com/annel0/mmo-game/internal/shapecache"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPlane shapecache.PlaneStableID = 1

// placeSolid installs one chunk with a single solid cell at local (lx, ly, lz).
func placeSolid(cache *shapecache.Cache, chunk vec.Vec2, lx, ly, lz int) {
	idx := vec.Vec3{X: lx, Y: ly, Z: lz}.CellIndex()
	cache.AddChunk(testPlane, chunk, func(localIdx int) shapecache.Flag {
		if localIdx == idx {
			return shapecache.Solid
		}
		return shapecache.Empty
	})
}

// TestCalcVelocityBlockedBySolid covers S1: with a solid block placed at
// chunk-pos (1,1) and no floor under the box, every axis is blocked and the
// box gets zero velocity.
func TestCalcVelocityBlockedBySolid(t *testing.T) {
	cache := shapecache.New()
	placeSolid(cache, vec.Vec2{X: 1, Y: 1}, 0, 0, 0)

	c := New(cache)
	pos := vec.Vec3Float{X: 32, Y: 32, Z: 0}
	size := vec.Vec3Float{X: 32, Y: 32, Z: 48}
	target := vec.Vec3Float{X: 10, Y: 10, Z: 0}

	eff := c.CalcVelocity(testPlane, pos, size, target)
	assert.Equal(t, vec.Vec3Float{}, eff)

	disp, dur := c.Walk(testPlane, pos, size, eff, 100)
	assert.Equal(t, vec.Vec3Float{}, disp)
	assert.Equal(t, int64(0), dur)
}

// buildRampWorld installs a floor strip, a north-facing ramp, and an upper
// floor running along consecutive y blocks, all in the z=-1 block layer
// under the walking level (S2's layout).
func buildRampWorld(t *testing.T) *shapecache.Cache {
	t.Helper()
	cache := shapecache.New()
	set := func(pos vec.Vec3, shape shapecache.Flag) {
		chunk := pos.ToChunkPos()
		local := pos.LocalInChunk()
		idx := local.CellIndex()
		cache.UpdateChunk(testPlane, chunk, idx, shape)
	}
	set(vec.Vec3{X: 0, Y: 0, Z: -1}, shapecache.Floor)
	set(vec.Vec3{X: 0, Y: -1, Z: -1}, shapecache.RampNorth)
	set(vec.Vec3{X: 0, Y: -2, Z: -1}, shapecache.Floor)
	set(vec.Vec3{X: 0, Y: -3, Z: -1}, shapecache.Floor)
	return cache
}

// TestCalcVelocityRampCouplesZToY covers S2: walking north onto a ramp
// raises z in lockstep with y, then levels off once on the upper floor.
func TestCalcVelocityRampCouplesZToY(t *testing.T) {
	cache := buildRampWorld(t)
	c := New(cache)
	size := vec.Vec3Float{X: 16, Y: 16, Z: 32}
	target := vec.Vec3Float{X: 0, Y: -10, Z: 0}

	onRamp := c.CalcVelocity(testPlane, vec.Vec3Float{X: 16, Y: -16, Z: 0}, size, target)
	require.Equal(t, -10.0, onRamp.Y)
	assert.Equal(t, 10.0, onRamp.Z, "moving north onto a ramp should raise z at the same rate as y")

	onTop := c.CalcVelocity(testPlane, vec.Vec3Float{X: 16, Y: -80, Z: 32}, size, target)
	assert.Equal(t, -10.0, onTop.Y)
	assert.Equal(t, 0.0, onTop.Z, "once clear of the ramp, z should stay level")
}

// TestWalkStopsAtCollision checks that Walk never travels past the first
// blocked step even when max_dist would otherwise cover more ground.
func TestWalkStopsAtCollision(t *testing.T) {
	cache := shapecache.New()
	placeSolid(cache, vec.Vec2{X: 0, Y: 0}, 2, 0, 0)

	c := New(cache)
	pos := vec.Vec3Float{X: 16, Y: 16, Z: 0}
	size := vec.Vec3Float{X: 8, Y: 8, Z: 32}
	set := func(lz int) {
		cache.UpdateChunk(testPlane, vec.Vec2{}, vec.Vec3{X: 0, Y: 0, Z: lz}.CellIndex(), shapecache.Floor)
		cache.UpdateChunk(testPlane, vec.Vec2{}, vec.Vec3{X: 1, Y: 0, Z: lz}.CellIndex(), shapecache.Floor)
		cache.UpdateChunk(testPlane, vec.Vec2{}, vec.Vec3{X: 2, Y: 0, Z: lz}.CellIndex(), shapecache.Floor)
	}
	set(-1)

	disp, dur := c.Walk(testPlane, pos, size, vec.Vec3Float{X: 1}, 200)
	assert.Less(t, pos.X+disp.X, 64.0, "should stop before reaching the solid block at block x=2")
	assert.Greater(t, dur, int64(0))
}
