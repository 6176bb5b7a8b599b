package worldstore

import (
	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/annel0/mmo-game/internal/extra"
	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/vec"
)

// Structure is a placed instance of a template at a position in a plane,
// with child inventories (§3.2). Attachment ∈ {Plane, Chunk}.
type Structure struct {
	ver uint64

	TemplateID catalog.TemplateID
	Pos        vec.Vec3

	StablePlane util.StableID
	Plane       util.TransientID // util.NoTransientID when LIMBO

	Attachment Attachment
	Extra      extra.Value

	ChildInventories map[util.TransientID]struct{}
}

func NewStructure(tmpl catalog.TemplateID, pos vec.Vec3, stablePlane util.StableID, plane util.TransientID) *Structure {
	return &Structure{
		TemplateID:       tmpl,
		Pos:              pos,
		StablePlane:      stablePlane,
		Plane:            plane,
		Extra:            extra.Hash(nil),
		ChildInventories: make(map[util.TransientID]struct{}),
	}
}

func (s *Structure) Version() uint64     { return s.ver }
func (s *Structure) setVersion(v uint64) { s.ver = v }

func (s *Structure) Clone() interface{} {
	cp := *s
	cp.ChildInventories = cloneSet(s.ChildInventories)
	return &cp
}

func (s *Structure) IsLimbo() bool { return s.Plane == util.NoTransientID }
