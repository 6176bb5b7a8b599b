package worldstore

import "github.com/annel0/mmo-game/internal/vec"

// Motion is a linear trajectory: position at time t interpolates between
// StartPos and StartPos+Velocity*(t-StartTime), optionally clamped at
// EndTime (§3.2, §4.4). Positions and velocity are in sub-voxel units
// (32 units/block, vec.UnitsPerBlock).
type Motion struct {
	StartPos  vec.Vec3Float
	Velocity  vec.Vec3Float // units per millisecond
	StartTime int64         // ms, monotonic engine clock
	HasEnd    bool
	EndTime   int64
}

// PositionAt linearly interpolates position at time t (ms), clamping to
// EndTime if the motion has already finished.
func (m Motion) PositionAt(t int64) vec.Vec3Float {
	if m.HasEnd && t > m.EndTime {
		t = m.EndTime
	}
	dt := float64(t - m.StartTime)
	if dt < 0 {
		dt = 0
	}
	return m.StartPos.Add(m.Velocity.Mul(dt))
}

// Ended reports whether the motion has a declared end and t is past it.
func (m Motion) Ended(t int64) bool {
	return m.HasEnd && t >= m.EndTime
}
