package vec

import "math"

// Vec2 represents a horizontal chunk-grid coordinate: (cx, cy).
// Planes are a 2D grid of chunks (see glossary); every TerrainChunk spans
// the world's full vertical extent, so only two axes are needed to name one.
type Vec2 struct {
	X, Y int
}

// DistanceTo computes the Euclidean distance to another chunk coordinate.
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Add sums two chunk coordinates.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub subtracts another chunk coordinate.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// InSquare reports whether v lies within radius chunks of center (inclusive),
// under Chebyshev distance — the shape vision windows and chunk neighborhoods use.
func (v Vec2) InSquare(center Vec2, radius int) bool {
	dx := v.X - center.X
	if dx < 0 {
		dx = -dx
	}
	dy := v.Y - center.Y
	if dy < 0 {
		dy = -dy
	}
	return dx <= radius && dy <= radius
}
