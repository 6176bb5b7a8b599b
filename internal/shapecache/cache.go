package shapecache

import (
	"sync"

	"github.com/annel0/mmo-game/internal/vec"
)

// PlaneStableID identifies the plane a chunk belongs to. Shapecache takes a
// plain uint64 rather than importing worldstore's StableID type, so
// worldstore (which needs shapecache for occupancy checks) doesn't form an
// import cycle; worldstore converts at the boundary.
type PlaneStableID = uint64

// ChunkCells is one chunk's sparse cell map; the map's length tells
// whether the chunk "became fully empty" (§4.2 eviction) without a scan.
type ChunkCells struct {
	cells map[int]*Cell
}

func newChunkCells() *ChunkCells {
	return &ChunkCells{cells: make(map[int]*Cell)}
}

// Cache is the shape cache: a map from (plane, chunk-pos) to that chunk's
// cell map (§4.2). One Cache instance serves the whole engine.
type Cache struct {
	mu     sync.RWMutex
	chunks map[cacheKey]*ChunkCells
}

type cacheKey struct {
	plane PlaneStableID
	chunk vec.Vec2
}

func New() *Cache {
	return &Cache{chunks: make(map[cacheKey]*ChunkCells)}
}

// Computed returns the merged occupancy at a block position, or Empty if
// the chunk isn't loaded or the cell carries no occupancy (both cases are
// indistinguishable to a caller and both mean "nothing blocks here").
func (c *Cache) Computed(plane PlaneStableID, pos vec.Vec3) Flag {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cc, ok := c.chunks[cacheKey{plane, pos.ToChunkPos()}]
	if !ok {
		return Empty
	}
	cell, ok := cc.cells[pos.LocalInChunk().CellIndex()]
	if !ok {
		return Empty
	}
	return cell.Computed
}

// AddChunk (re)computes the base layer for every non-empty cell a block
// source function reports, installing the chunk entry if it wasn't loaded
// yet. blockShape maps a local cell index to its base Flag (Empty for air).
func (c *Cache) AddChunk(plane PlaneStableID, chunk vec.Vec2, blockShape func(localIdx int) Flag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey{plane, chunk}
	cc, ok := c.chunks[key]
	if !ok {
		cc = newChunkCells()
	}
	for idx := 0; idx < 4096; idx++ {
		shape := blockShape(idx)
		cell, ok := cc.cells[idx]
		if !ok {
			if shape == Empty {
				continue
			}
			cell = &Cell{}
			cc.cells[idx] = cell
		}
		cell.Base = shape
		cell.recompute()
		if cell.IsEmpty() {
			delete(cc.cells, idx)
		}
	}
	if len(cc.cells) > 0 {
		c.chunks[key] = cc
	} else {
		delete(c.chunks, key)
	}
}

// UpdateChunk recomputes the base layer for a single cell after a block
// change, preserving any structure layers already present there.
func (c *Cache) UpdateChunk(plane PlaneStableID, chunk vec.Vec2, localIdx int, base Flag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey{plane, chunk}
	cc, ok := c.chunks[key]
	if !ok {
		if base == Empty {
			return
		}
		cc = newChunkCells()
		c.chunks[key] = cc
	}
	cell, ok := cc.cells[localIdx]
	if !ok {
		if base == Empty {
			return
		}
		cell = &Cell{}
		cc.cells[localIdx] = cell
	}
	cell.Base = base
	cell.recompute()
	c.evictIfEmpty(key, cc, localIdx, cell)
}

// RemoveChunk clears the base layer for every cell, evicting any cell left
// with no structure layers and the chunk entry itself if it becomes empty.
func (c *Cache) RemoveChunk(plane PlaneStableID, chunk vec.Vec2) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey{plane, chunk}
	cc, ok := c.chunks[key]
	if !ok {
		return
	}
	for idx, cell := range cc.cells {
		cell.Base = Empty
		cell.recompute()
		if cell.IsEmpty() {
			delete(cc.cells, idx)
		}
	}
	if len(cc.cells) == 0 {
		delete(c.chunks, key)
	}
}

// CellOccupancyAt reports the current computed flags and part mask at a
// cell, used by structure placement's occupancy check (§4.1).
func (c *Cache) CellOccupancyAt(plane PlaneStableID, pos vec.Vec3) (shape Flag, parts Flag) {
	computed := c.Computed(plane, pos)
	return computed.Shape(), computed.PartMask()
}

// CanPlaceLayer reports whether writing `shape`/`parts` into layer `layer`
// of the cell at pos would be legal: the target cell's computed occupancy
// must be clear for the layer (or only the same part bits, for a
// pointwise-subset replacement handled by the caller), and part-mask bits
// must not collide with any existing layer (§4.1).
func (c *Cache) CanPlaceLayer(plane PlaneStableID, pos vec.Vec3, layer int, shape, parts Flag) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cc, ok := c.chunks[cacheKey{plane, pos.ToChunkPos()}]
	if !ok {
		return true
	}
	cell, ok := cc.cells[pos.LocalInChunk().CellIndex()]
	if !ok {
		return true
	}
	for i, l := range cell.Layers {
		if i == layer {
			continue
		}
		if l.PartMask()&parts != 0 {
			return false // part-mask bits must be disjoint across layers
		}
		if l.Shape() != 0 && shape != 0 && l.Shape() != shape {
			return false // conflicting non-part shape already claims this cell
		}
	}
	_ = shape
	return true
}

// AddStructureCell writes a structure layer's contribution into one cell,
// creating the chunk/cell entries on demand.
func (c *Cache) AddStructureCell(plane PlaneStableID, pos vec.Vec3, layer int, shape, parts Flag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey{plane, pos.ToChunkPos()}
	cc, ok := c.chunks[key]
	if !ok {
		cc = newChunkCells()
		c.chunks[key] = cc
	}
	idx := pos.LocalInChunk().CellIndex()
	cell, ok := cc.cells[idx]
	if !ok {
		cell = &Cell{}
		cc.cells[idx] = cell
	}
	cell.Layers[layer] = shape | parts
	cell.recompute()
}

// RemoveStructureCell clears a structure layer's contribution from one
// cell, evicting the cell (and chunk, if now empty) per §4.2.
func (c *Cache) RemoveStructureCell(plane PlaneStableID, pos vec.Vec3, layer int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey{plane, pos.ToChunkPos()}
	cc, ok := c.chunks[key]
	if !ok {
		return
	}
	idx := pos.LocalInChunk().CellIndex()
	cell, ok := cc.cells[idx]
	if !ok {
		return
	}
	cell.Layers[layer] = Empty
	cell.recompute()
	c.evictIfEmpty(key, cc, idx, cell)
}

func (c *Cache) evictIfEmpty(key cacheKey, cc *ChunkCells, idx int, cell *Cell) {
	if cell.IsEmpty() {
		delete(cc.cells, idx)
	}
	if len(cc.cells) == 0 {
		delete(c.chunks, key)
	}
}

// IsLoaded reports whether a (plane, chunk) entry currently exists — used
// by the §8.3 consistency test to confirm an all-empty chunk was evicted.
func (c *Cache) IsLoaded(plane PlaneStableID, chunk vec.Vec2) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.chunks[cacheKey{plane, chunk}]
	return ok
}

// VerifyConsistency recomputes base∪layers for every stored cell in a
// chunk and compares against the stored Computed value — the property
// §8.3 requires after any add_structure/remove_structure/update_chunk.
func (c *Cache) VerifyConsistency(plane PlaneStableID, chunk vec.Vec2) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cc, ok := c.chunks[cacheKey{plane, chunk}]
	if !ok {
		return true
	}
	for _, cell := range cc.cells {
		want := cell.Base.Shape()
		parts := cell.Base.PartMask()
		for _, l := range cell.Layers {
			if l.Shape() != 0 {
				want = l.Shape()
			}
			parts |= l.PartMask()
		}
		if cell.Computed != want|parts {
			return false
		}
		if cell.IsEmpty() {
			return false // no cell may be stored all-empty (§3.3 inv. 8)
		}
	}
	return true
}
