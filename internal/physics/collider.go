// Package physics implements the per-tick movement update and the
// axis-aligned box collider described in §4.4: target velocity is clipped
// against the shape cache into an effective velocity, then walked up to a
// tick's worth of distance.
//
// Grounded on the teacher's internal/physics/collision.go, whose
// BoxCollider samples a handful of points on a 2D tile footprint against a
// caller-supplied blockChecker. This package keeps that point-sampling
// idiom but operates on a 3D box in sub-voxel units against the shape
// cache's merged occupancy, and adds ramp coupling between the y and z
// axes that the teacher's flat-world collider never needed.
package physics

import (
	"math"

	"github.com/annel0/mmo-game/internal/shapecache"
	"github.com/annel0/mmo-game/internal/vec"
)

// Collider clips and walks entity motion against one shape cache. A single
// instance serves every plane; PlaneStableID selects which plane's cells a
// call reads (shapecache.Cache is itself plane-keyed).
type Collider struct {
	Shapes *shapecache.Cache
}

func New(shapes *shapecache.Cache) *Collider {
	return &Collider{Shapes: shapes}
}

// blockAt floors a sub-voxel position down to the block it falls in,
// matching vec.BlockFromUnits's negative-aware floor division.
func blockAt(p vec.Vec3Float) vec.Vec3 {
	return vec.Vec3{
		X: vec.BlockFromUnits(int(math.Floor(p.X))),
		Y: vec.BlockFromUnits(int(math.Floor(p.Y))),
		Z: vec.BlockFromUnits(int(math.Floor(p.Z))),
	}
}

// footprintCorners returns the box's four horizontal corners at its
// current bottom height, mirroring the teacher's GetCollisionPoints corner
// sampling (pos is the box center on X/Y; size is the full width/depth/height,
// so half-extents are size/2; the box's bottom sits at pos.Z).
func footprintCorners(pos, size vec.Vec3Float) []vec.Vec3Float {
	hw := size.X / 2
	hd := size.Y / 2
	if hw == 0 && hd == 0 {
		return []vec.Vec3Float{pos}
	}
	return []vec.Vec3Float{
		{X: pos.X - hw, Y: pos.Y - hd, Z: pos.Z},
		{X: pos.X + hw, Y: pos.Y - hd, Z: pos.Z},
		{X: pos.X - hw, Y: pos.Y + hd, Z: pos.Z},
		{X: pos.X + hw, Y: pos.Y + hd, Z: pos.Z},
	}
}

// blockedAt reports whether the box's footprint at pos clips a Solid cell.
func (c *Collider) blockedAt(plane shapecache.PlaneStableID, pos, size vec.Vec3Float) bool {
	for _, corner := range footprintCorners(pos, size) {
		if c.Shapes.Computed(plane, blockAt(corner)).Shape()&shapecache.Solid != 0 {
			return true
		}
	}
	return false
}

// supportedAt reports whether every footprint corner rests on Floor,
// Solid or a ramp surface (§4.4 — "the destination footprint is supported").
func (c *Collider) supportedAt(plane shapecache.PlaneStableID, pos, size vec.Vec3Float) bool {
	for _, corner := range footprintCorners(pos, size) {
		below := corner
		below.Z -= 1
		if !c.Shapes.Computed(plane, blockAt(below)).Supports() {
			return false
		}
	}
	return true
}

// rampZDelta reports the z adjustment a box moving by yDelta undergoes when
// the cell under its new position is a ramp oriented to couple with that
// direction of travel. Walking north (-y) onto a RampNorth cell raises z by
// the same magnitude as the y displacement; walking south (+y) off the same
// ramp lowers it back down. RampSouth is the mirror for the opposite
// approach (§4.4).
func (c *Collider) rampZDelta(plane shapecache.PlaneStableID, newPos, size vec.Vec3Float, yDelta float64) float64 {
	if yDelta == 0 {
		return 0
	}
	below := newPos
	below.Z -= 1
	shape := c.Shapes.Computed(plane, blockAt(below)).Shape()
	switch {
	case shape == shapecache.RampNorth:
		return -yDelta
	case shape == shapecache.RampSouth:
		return yDelta
	default:
		return 0
	}
}

// tryAxis reports whether moving from pos by delta on one axis (the other
// two components of delta are zero) lands the box somewhere unblocked and
// supported, honoring ramp z-coupling for a y move.
func (c *Collider) tryAxis(plane shapecache.PlaneStableID, pos, size, delta vec.Vec3Float) (vec.Vec3Float, bool) {
	next := pos.Add(delta)
	next.Z += c.rampZDelta(plane, next, size, delta.Y)
	if c.blockedAt(plane, next, size) || !c.supportedAt(plane, next, size) {
		return vec.Vec3Float{}, false
	}
	return next, true
}

// CalcVelocity clips a target velocity against the shape cache: each axis
// is tried independently (by the sign of its component) and zeroed if
// blocked; if both horizontal axes clear independently but the diagonal
// step between them does not, both are blocked together rather than
// letting the box cut the corner (the ramp-corner open question from §9,
// resolved this way and documented in the design ledger). z is always
// derived from ramp coupling, never taken from the caller's target.
func (c *Collider) CalcVelocity(plane shapecache.PlaneStableID, pos, size, target vec.Vec3Float) vec.Vec3Float {
	result := vec.Vec3Float{}

	stepX := vec.Vec3Float{X: math.Copysign(1, target.X)}
	stepY := vec.Vec3Float{Y: math.Copysign(1, target.Y)}

	okX := target.X == 0
	okY := target.Y == 0
	if target.X != 0 {
		if _, ok := c.tryAxis(plane, pos, size, stepX); ok {
			result.X = target.X
			okX = true
		}
	}
	if target.Y != 0 {
		if _, ok := c.tryAxis(plane, pos, size, stepY); ok {
			result.Y = target.Y
			okY = true
		}
	}

	if okX && okY && target.X != 0 && target.Y != 0 {
		diag := vec.Vec3Float{X: stepX.X, Y: stepY.Y}
		if _, ok := c.tryAxis(plane, pos, size, diag); !ok {
			result.X = 0
			result.Y = 0
		}
	}

	result.Z = c.rampZDelta(plane, pos.Add(vec.Vec3Float{Y: result.Y}), size, result.Y)
	return result
}

// Walk advances the box along v in unit sub-voxel steps until it travels
// maxDist units or hits a collision, returning the actual displacement and
// how many milliseconds of the tick that displacement consumed (§4.4).
// Velocity is in units/ms, so duration is distance travelled divided by
// speed.
func (c *Collider) Walk(plane shapecache.PlaneStableID, pos, size, v vec.Vec3Float, maxDist float64) (vec.Vec3Float, int64) {
	speed := v.Length()
	if speed == 0 || maxDist <= 0 {
		return vec.Vec3Float{}, 0
	}
	dir := v.Normalized()
	const step = 1.0

	cur := pos
	traveled := 0.0
	for traveled < maxDist {
		d := step
		if traveled+d > maxDist {
			d = maxDist - traveled
		}
		delta := dir.Mul(d)
		next := cur.Add(delta)
		next.Z += c.rampZDelta(plane, next, size, delta.Y)
		if c.blockedAt(plane, next, size) || !c.supportedAt(plane, next, size) {
			break
		}
		cur = next
		traveled += d
	}

	disp := cur.Sub(pos)
	durationMs := int64(math.Round(traveled / speed))
	return disp, durationMs
}
