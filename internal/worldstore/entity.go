package worldstore

import (
	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/annel0/mmo-game/internal/extra"
	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/vec"
)

// Entity is an animate object with a Motion, facing, animation and target
// velocity (§3.2). Attachment ∈ {World, Chunk, Client(cid)}.
type Entity struct {
	ver uint64

	Motion         Motion
	Facing         vec.Vec2Float
	AnimationID    catalog.AnimationID
	Appearance     uint32
	TargetVelocity vec.Vec3Float

	// StablePlane is always set once the entity has been placed in a
	// plane; Plane is the transient id of that plane *if currently
	// loaded*, else util.NoTransientID (LIMBO, §3.3 invariant 6).
	StablePlane util.StableID
	Plane       util.TransientID

	Attachment Attachment
	Extra      extra.Value

	ChildInventories map[util.TransientID]struct{}

	// Size is the collider box's full extent in sub-voxel units (§4.4);
	// physics centres the box on the position and uses Size/2 per side.
	Size vec.Vec3Float
}

func NewEntity(pos vec.Vec3Float, size vec.Vec3Float, startTime int64) *Entity {
	return &Entity{
		Motion:           Motion{StartPos: pos, StartTime: startTime},
		AnimationID:      catalog.AnimIdle,
		Extra:            extra.Hash(nil),
		ChildInventories: make(map[util.TransientID]struct{}),
		Size:             size,
		Plane:            util.NoTransientID,
	}
}

func (e *Entity) Version() uint64     { return e.ver }
func (e *Entity) setVersion(v uint64) { e.ver = v }

func (e *Entity) Clone() interface{} {
	cp := *e
	cp.ChildInventories = cloneSet(e.ChildInventories)
	return &cp
}

// IsLimbo reports whether this entity's containing plane is unloaded.
func (e *Entity) IsLimbo() bool { return e.Plane == util.NoTransientID }
