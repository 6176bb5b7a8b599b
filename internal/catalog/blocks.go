// Package catalog holds the immutable content tables spec §2 calls "Data
// tables": blocks, items, structure templates, animations and recipes,
// each keyed by a small integer id. None of this is mutable at runtime —
// the world store only ever looks entries up by id.
//
// Block ids and names are grounded directly on the teacher's
// internal/world/block/registry.go constants (Air/Stone/Grass/Water/Dirt/
// Tree/Cactus/Chest/Door); the shapes attached to them are new, since the
// teacher's world is 2D top-down and never needed an occupancy shape.
package catalog

import "github.com/annel0/mmo-game/internal/shapecache"

// BlockID identifies a block type in the catalog.
type BlockID uint16

const (
	AirBlockID    BlockID = 0
	StoneBlockID  BlockID = 1
	GrassBlockID  BlockID = 2
	WaterBlockID  BlockID = 3
	SandBlockID   BlockID = 4
	DirtBlockID   BlockID = 5
	FlowerBlockID BlockID = 100
	TreeBlockID   BlockID = 101
	CactusBlockID BlockID = 102
	ChestBlockID  BlockID = 200
	DoorBlockID   BlockID = 201

	// RampNorthBlockID..RampWestBlockID are the ramp blocks physics/§4.4
	// and scenario S2 exercise: traversable, coupling y movement to z.
	RampNorthBlockID BlockID = 300
	RampSouthBlockID BlockID = 301
	RampEastBlockID  BlockID = 302
	RampWestBlockID  BlockID = 303
)

// BlockDef is one catalog entry: display name and the occupancy shape the
// shape cache's base layer derives for it (§4.2).
type BlockDef struct {
	Name  string
	Shape shapecache.Flag
}

var blocks = map[BlockID]BlockDef{
	AirBlockID:       {Name: "air", Shape: shapecache.Empty},
	StoneBlockID:     {Name: "stone", Shape: shapecache.Solid},
	GrassBlockID:     {Name: "grass", Shape: shapecache.Floor},
	WaterBlockID:     {Name: "water", Shape: shapecache.Empty},
	SandBlockID:      {Name: "sand", Shape: shapecache.Floor},
	DirtBlockID:      {Name: "dirt", Shape: shapecache.Floor},
	FlowerBlockID:    {Name: "flower", Shape: shapecache.Floor},
	TreeBlockID:      {Name: "tree", Shape: shapecache.Solid},
	CactusBlockID:    {Name: "cactus", Shape: shapecache.Solid},
	ChestBlockID:     {Name: "chest", Shape: shapecache.Solid},
	DoorBlockID:      {Name: "door", Shape: shapecache.Floor},
	RampNorthBlockID: {Name: "ramp_north", Shape: shapecache.RampNorth},
	RampSouthBlockID: {Name: "ramp_south", Shape: shapecache.RampSouth},
	RampEastBlockID:  {Name: "ramp_east", Shape: shapecache.RampEast},
	RampWestBlockID:  {Name: "ramp_west", Shape: shapecache.RampWest},
}

// Block looks up a block's catalog entry. Unknown ids behave as air —
// the bundle codec is the layer responsible for rejecting bad ids on import.
func Block(id BlockID) BlockDef {
	if def, ok := blocks[id]; ok {
		return def
	}
	return blocks[AirBlockID]
}

// BlockNameToID supports the bundle codec's string-table import path
// (foreign block-name strings are remapped to local ids, §4.6).
func BlockNameToID(name string) (BlockID, bool) {
	for id, def := range blocks {
		if def.Name == name {
			return id, true
		}
	}
	return 0, false
}
