package worldstore

import (
	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/annel0/mmo-game/internal/extra"
	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/vec"
)

// ChunkFlags marks chunk lifecycle state (§3.2 "Flags indicate dirty/generated/etc.").
type ChunkFlags uint8

const (
	ChunkDirty     ChunkFlags = 1 << 0
	ChunkGenerated ChunkFlags = 1 << 1
)

// TerrainChunk is a 16x16x16 array of block ids plus its containing plane,
// chunk position and child structures (§3.2).
type TerrainChunk struct {
	ver uint64

	Blocks      [4096]catalog.BlockID
	StablePlane util.StableID
	Plane       util.TransientID // the loaded Plane owning this chunk
	Pos         vec.Vec2
	Flags       ChunkFlags
	Extra       extra.Value

	ChildStructures map[util.TransientID]struct{}
	ChildEntities   map[util.TransientID]struct{}
}

func NewTerrainChunk(stablePlane util.StableID, plane util.TransientID, pos vec.Vec2) *TerrainChunk {
	return &TerrainChunk{
		StablePlane:     stablePlane,
		Plane:           plane,
		Pos:             pos,
		Extra:           extra.Hash(nil),
		ChildStructures: make(map[util.TransientID]struct{}),
		ChildEntities:   make(map[util.TransientID]struct{}),
	}
}

func (c *TerrainChunk) Version() uint64     { return c.ver }
func (c *TerrainChunk) setVersion(v uint64) { c.ver = v }

func (c *TerrainChunk) Clone() interface{} {
	cp := *c
	cp.ChildStructures = cloneSet(c.ChildStructures)
	cp.ChildEntities = cloneSet(c.ChildEntities)
	return &cp
}

// BlockAt returns the block id at a chunk-local index (0..4095).
func (c *TerrainChunk) BlockAt(localIdx int) catalog.BlockID {
	return c.Blocks[localIdx]
}

// SetBlockAt writes a block id at a chunk-local index, marking the chunk dirty.
func (c *TerrainChunk) SetBlockAt(localIdx int, id catalog.BlockID) {
	c.Blocks[localIdx] = id
	c.Flags |= ChunkDirty
}
