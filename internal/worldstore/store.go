package worldstore

import (
	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/annel0/mmo-game/internal/shapecache"
	"github.com/annel0/mmo-game/internal/snapshot"
	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/werr"
)

// Observer receives notifications of store mutations that other
// subsystems (vision, physics, storage) care about. Grounded on the
// teacher's NetworkManager interface in world/world.go
// ("SendBlockUpdate"), generalized to every structural event vision needs
// to republish (§4.1, §4.3).
type Observer interface {
	OnStructurePlaced(id util.TransientID, s *Structure)
	OnStructureRemoved(id util.TransientID, s *Structure)
	OnEntityCreated(id util.TransientID, e *Entity)
	OnEntityRemoved(id util.TransientID, e *Entity)
	OnEntityChunkChanged(id util.TransientID, e *Entity, oldChunk, newChunk vec.Vec2)
	OnChunkLoaded(id util.TransientID, c *TerrainChunk)
	OnChunkUnloaded(id util.TransientID, c *TerrainChunk)
}

type noopObserver struct{}

func (noopObserver) OnStructurePlaced(util.TransientID, *Structure)                    {}
func (noopObserver) OnStructureRemoved(util.TransientID, *Structure)                   {}
func (noopObserver) OnEntityCreated(util.TransientID, *Entity)                         {}
func (noopObserver) OnEntityRemoved(util.TransientID, *Entity)                         {}
func (noopObserver) OnEntityChunkChanged(util.TransientID, *Entity, vec.Vec2, vec.Vec2) {}
func (noopObserver) OnChunkLoaded(util.TransientID, *TerrainChunk)                     {}
func (noopObserver) OnChunkUnloaded(util.TransientID, *TerrainChunk)                   {}

// Store is the world object store (§3, §4.1): the arena of every object
// kind, the shape cache backing structure placement, and the shared
// snapshot every mutating accessor reports to.
type Store struct {
	Clients     *Arena[Client]
	Entities    *Arena[Entity]
	Inventories *Arena[Inventory]
	Planes      *Arena[Plane]
	Chunks      *Arena[TerrainChunk]
	Structures  *Arena[Structure]

	Shapes *shapecache.Cache
	Snap   *snapshot.Snapshot

	observer Observer

	// limboEntities/limboStructures index objects currently in LIMBO, keyed
	// by their stable_plane (§3.3 invariant 7) — kept at the Store level
	// because a limbo object's plane, by definition, isn't loaded and so
	// has no live Plane object to hang this off of.
	limboEntities   map[util.StableID]map[util.TransientID]struct{}
	limboStructures map[util.StableID]map[util.TransientID]struct{}
}

func New() *Store {
	snap := snapshot.New()
	return &Store{
		Clients:         newArena[Client](KindClient, snap),
		Entities:        newArena[Entity](KindEntity, snap),
		Inventories:     newArena[Inventory](KindInventory, snap),
		Planes:          newArena[Plane](KindPlane, snap),
		Chunks:          newArena[TerrainChunk](KindChunk, snap),
		Structures:      newArena[Structure](KindStructure, snap),
		Shapes:          shapecache.New(),
		Snap:            snap,
		observer:        noopObserver{},
		limboEntities:   make(map[util.StableID]map[util.TransientID]struct{}),
		limboStructures: make(map[util.StableID]map[util.TransientID]struct{}),
	}
}

func (s *Store) SetObserver(o Observer) {
	if o == nil {
		o = noopObserver{}
	}
	s.observer = o
}

// ---- Client ----

func (s *Store) CreateClient(displayName string) util.TransientID {
	return s.Clients.Insert(NewClient(displayName))
}

// SetPawn attaches an existing entity to a client as its pawn, requiring
// the entity already be attached to that client (§3.2).
func (s *Store) SetPawn(clientID, entityID util.TransientID) error {
	if _, ok := s.Clients.Get(clientID); !ok {
		return werr.New(werr.NotFound, "worldstore.SetPawn", nil)
	}
	ent, ok := s.Entities.Get(entityID)
	if !ok {
		return werr.New(werr.NotFound, "worldstore.SetPawn", nil)
	}
	if (*ent).Attachment.Kind != AttachClient || (*ent).Attachment.ID != clientID {
		return werr.New(werr.InvalidRef, "worldstore.SetPawn", nil)
	}
	s.Clients.Mutate(clientID, func(c *Client) { c.Pawn = entityID })
	return nil
}

// DestroyClient tears a client session down, destroying its child entities
// and inventories top-down (§3.4).
func (s *Store) DestroyClient(id util.TransientID) error {
	if _, ok := s.Clients.Get(id); !ok {
		return werr.New(werr.NotFound, "worldstore.DestroyClient", nil)
	}
	s.destroyObject(KindClient, id)
	return nil
}

// ---- Entity ----

// CreateEntity places a new entity under the given attachment (World,
// Chunk, or Client) and links it into the parent's child set (§4.1).
func (s *Store) CreateEntity(stablePlane util.StableID, plane util.TransientID, pos vec.Vec3Float, size vec.Vec3Float, startTime int64, attach Attachment) (util.TransientID, error) {
	if err := s.checkParentExists(attach); err != nil {
		return 0, err
	}
	e := NewEntity(pos, size, startTime)
	e.StablePlane = stablePlane
	e.Plane = plane
	e.Attachment = attach
	id := s.Entities.Insert(e)
	s.linkChild(attach, KindEntity, id)
	if plane == util.NoTransientID {
		s.addLimbo(s.limboEntities, stablePlane, id)
	}
	s.observer.OnEntityCreated(id, e)
	return id, nil
}

// DestroyEntity removes an entity and its child inventories (§3.4).
func (s *Store) DestroyEntity(id util.TransientID) error {
	if _, ok := s.Entities.Get(id); !ok {
		return werr.New(werr.NotFound, "worldstore.DestroyEntity", nil)
	}
	s.destroyObject(KindEntity, id)
	return nil
}

// MoveEntityChunk notifies the observer that an entity crossed a chunk
// boundary, before any motion message would be emitted (§4.5 "Integration
// with movement").
func (s *Store) MoveEntityChunk(id util.TransientID, oldChunk, newChunk vec.Vec2) {
	ent, ok := s.Entities.Get(id)
	if !ok {
		return
	}
	s.observer.OnEntityChunkChanged(id, *ent, oldChunk, newChunk)
}

// EnterLimbo transitions an entity to LIMBO because its plane unloaded.
func (s *Store) EnterLimbo(id util.TransientID) {
	s.Entities.Mutate(id, func(e *Entity) {
		if e.Plane == util.NoTransientID {
			return
		}
		e.Plane = util.NoTransientID
		s.addLimbo(s.limboEntities, e.StablePlane, id)
	})
}

// ExitLimbo transitions an entity out of LIMBO when its plane (re)loads.
func (s *Store) ExitLimbo(id util.TransientID, plane util.TransientID) {
	s.Entities.Mutate(id, func(e *Entity) {
		s.removeLimbo(s.limboEntities, e.StablePlane, id)
		e.Plane = plane
	})
}

// LimboEntities returns the entities currently in limbo for a stable plane.
func (s *Store) LimboEntities(stablePlane util.StableID) []util.TransientID {
	return limboList(s.limboEntities, stablePlane)
}

// ---- Inventory ----

func (s *Store) CreateInventory(size int, attach Attachment) (util.TransientID, error) {
	if err := s.checkParentExists(attach); err != nil {
		return 0, err
	}
	inv := NewInventory(size)
	inv.Attachment = attach
	id := s.Inventories.Insert(inv)
	s.linkChild(attach, KindInventory, id)
	return id, nil
}

func (s *Store) DestroyInventory(id util.TransientID) error {
	if _, ok := s.Inventories.Get(id); !ok {
		return werr.New(werr.NotFound, "worldstore.DestroyInventory", nil)
	}
	s.destroyObject(KindInventory, id)
	return nil
}

// MoveItem moves up to count units of whatever sits in fromIID[fromSlot]
// into toIID[toSlot] (§6.1 MoveItem, scenario S4). Bulk slots combine with
// an equal item already in the destination (clamped to 255, the remainder
// staying behind); Special slots move as a whole regardless of count and
// only into an Empty destination. Both inventories are recorded to the
// snapshot exactly once each via Arena.Mutate, even if the move touches
// both of their slot arrays.
func (s *Store) MoveItem(fromIID util.TransientID, fromSlot int, toIID util.TransientID, toSlot int, count uint8) error {
	from, ok := s.Inventories.Get(fromIID)
	if !ok {
		return werr.New(werr.NotFound, "worldstore.MoveItem", nil)
	}
	to, ok := s.Inventories.Get(toIID)
	if !ok {
		return werr.New(werr.NotFound, "worldstore.MoveItem", nil)
	}
	if fromSlot < 0 || fromSlot >= len((*from).Slots) {
		return werr.New(werr.InvalidRef, "worldstore.MoveItem", nil)
	}
	if toSlot < 0 || toSlot >= len((*to).Slots) {
		return werr.New(werr.InvalidRef, "worldstore.MoveItem", nil)
	}

	src := (*from).Slots[fromSlot]
	switch src.Kind {
	case SlotEmpty:
		return werr.New(werr.InvalidRef, "worldstore.MoveItem", nil)
	case SlotSpecial:
		dst := (*to).Slots[toSlot]
		if dst.Kind != SlotEmpty {
			return werr.New(werr.PlacementBlocked, "worldstore.MoveItem", nil)
		}
		s.Inventories.Mutate(fromIID, func(inv *Inventory) { inv.Slots[fromSlot] = EmptySlot() })
		s.Inventories.Mutate(toIID, func(inv *Inventory) { inv.Slots[toSlot] = src })
		return nil
	default: // SlotBulk
		dst := (*to).Slots[toSlot]
		if dst.Kind == SlotSpecial || (dst.Kind == SlotBulk && dst.ItemID != src.ItemID) {
			return werr.New(werr.PlacementBlocked, "worldstore.MoveItem", nil)
		}
		moved := count
		if moved > src.Count {
			moved = src.Count
		}
		dstCount := uint8(0)
		if dst.Kind == SlotBulk {
			dstCount = dst.Count
		}
		room := int(catalog.Item(src.ItemID).MaxCount) - int(dstCount)
		if room < 0 {
			room = 0
		}
		if int(moved) > room {
			moved = uint8(room)
		}
		if moved == 0 {
			return werr.New(werr.QuotaExceeded, "worldstore.MoveItem", nil)
		}
		remaining := src.Count - moved
		s.Inventories.Mutate(fromIID, func(inv *Inventory) {
			if remaining == 0 {
				inv.Slots[fromSlot] = EmptySlot()
			} else {
				inv.Slots[fromSlot] = BulkSlot(remaining, src.ItemID)
			}
		})
		s.Inventories.Mutate(toIID, func(inv *Inventory) {
			inv.Slots[toSlot] = BulkSlot(dstCount+moved, src.ItemID)
		})
		return nil
	}
}

// ---- Plane ----

func (s *Store) CreatePlane(name string) util.TransientID {
	return s.Planes.Insert(NewPlane(name))
}

// ---- TerrainChunk ----

// InstallChunk registers an already-decoded chunk (from save-layer load or
// generator import) as loaded in its plane, publishes it to the shape
// cache, and notifies the observer (§4.3 load path).
func (s *Store) InstallChunk(planeID util.TransientID, pos vec.Vec2, blocks [4096]catalog.BlockID) (util.TransientID, error) {
	if _, ok := s.Planes.Get(planeID); !ok {
		return 0, werr.New(werr.NotFound, "worldstore.InstallChunk", nil)
	}
	stablePlane, _ := s.Planes.Pin(planeID)
	chunk := NewTerrainChunk(stablePlane, planeID, pos)
	chunk.Blocks = blocks
	id := s.Chunks.Insert(chunk)
	chunkStableID, _ := s.Chunks.Pin(id)
	s.Planes.Mutate(planeID, func(p *Plane) {
		p.LoadedChunks[pos] = id
		p.SavedChunks[pos] = chunkStableID
	})
	s.Shapes.AddChunk(uint64(stablePlane), pos, func(localIdx int) shapecache.Flag {
		return catalog.Block(blocks[localIdx]).Shape
	})
	s.observer.OnChunkLoaded(id, chunk)
	return id, nil
}

// UnloadChunk removes a chunk from residency. Its child structures and
// entities are NOT destroyed — they transition to LIMBO, since a structure
// or entity outlives the chunk that currently hosts it (§3.3 invariant 6).
// The chunk's own terrain array is discarded; it is recreated from the
// save layer (or generator) on next load. Restoring limbo occupants back
// onto a freshly loaded chunk at the right position is the chunk-lifecycle
// manager's job, not the store's.
func (s *Store) UnloadChunk(chunkID util.TransientID) error {
	chunk, ok := s.Chunks.Get(chunkID)
	if !ok {
		return werr.New(werr.NotFound, "worldstore.UnloadChunk", nil)
	}
	c := *chunk

	for sid := range c.ChildStructures {
		s.sendStructureToLimbo(sid)
	}
	for eid := range c.ChildEntities {
		s.EnterLimbo(eid)
	}

	s.Shapes.RemoveChunk(uint64(c.StablePlane), c.Pos)
	s.Planes.Mutate(c.Plane, func(p *Plane) { delete(p.LoadedChunks, c.Pos) })
	s.Chunks.Remove(chunkID)
	s.observer.OnChunkUnloaded(chunkID, &c)
	return nil
}

func (s *Store) sendStructureToLimbo(id util.TransientID) {
	st, ok := s.Structures.Get(id)
	if !ok || (*st).IsLimbo() {
		return
	}
	tmpl, _ := catalog.Template((*st).TemplateID)
	pos := (*st).Pos
	stablePlane := (*st).StablePlane
	for _, cell := range tmpl.Cells {
		cellPos := pos.Add(vec.Vec3{X: cell.Offset[0], Y: cell.Offset[1], Z: cell.Offset[2]})
		s.Shapes.RemoveStructureCell(uint64(stablePlane), cellPos, tmpl.Layer)
	}
	s.Structures.Mutate(id, func(s2 *Structure) { s2.Plane = util.NoTransientID })
	s.addLimbo(s.limboStructures, stablePlane, id)
}

// ---- Structure ----

// CreateStructure places a template instance, checking occupancy against
// the shape cache for every cell the template occupies (§4.1). On success
// it writes the structure's layer into the shape cache and notifies the
// observer.
func (s *Store) CreateStructure(templateID catalog.TemplateID, pos vec.Vec3, stablePlane util.StableID, plane util.TransientID, attach Attachment) (util.TransientID, error) {
	tmpl, ok := catalog.Template(templateID)
	if !ok {
		return 0, werr.New(werr.InvalidRef, "worldstore.CreateStructure", nil)
	}
	if err := s.checkParentExists(attach); err != nil {
		return 0, err
	}
	if plane != util.NoTransientID {
		for _, cell := range tmpl.Cells {
			cellPos := pos.Add(vec.Vec3{X: cell.Offset[0], Y: cell.Offset[1], Z: cell.Offset[2]})
			if !s.Shapes.CanPlaceLayer(uint64(stablePlane), cellPos, tmpl.Layer, cell.Shape, shapecache.PartsFromBox(true)) {
				return 0, werr.New(werr.PlacementBlocked, "worldstore.CreateStructure", nil)
			}
		}
	}
	st := NewStructure(templateID, pos, stablePlane, plane)
	st.Attachment = attach
	id := s.Structures.Insert(st)
	s.linkChild(attach, KindStructure, id)
	if plane != util.NoTransientID {
		for _, cell := range tmpl.Cells {
			cellPos := pos.Add(vec.Vec3{X: cell.Offset[0], Y: cell.Offset[1], Z: cell.Offset[2]})
			s.Shapes.AddStructureCell(uint64(stablePlane), cellPos, tmpl.Layer, cell.Shape, shapecache.PartsFromBox(true))
		}
	} else {
		s.addLimbo(s.limboStructures, stablePlane, id)
	}
	s.observer.OnStructurePlaced(id, st)
	return id, nil
}

// ReplaceStructure swaps a structure's template in place, re-checking
// occupancy unless the new template's shape is pointwise a subset of the
// old one's (§4.1 optimization).
func (s *Store) ReplaceStructure(id util.TransientID, newTemplateID catalog.TemplateID) error {
	st, ok := s.Structures.Get(id)
	if !ok {
		return werr.New(werr.NotFound, "worldstore.ReplaceStructure", nil)
	}
	old, _ := catalog.Template((*st).TemplateID)
	next, ok := catalog.Template(newTemplateID)
	if !ok {
		return werr.New(werr.InvalidRef, "worldstore.ReplaceStructure", nil)
	}
	limbo := (*st).IsLimbo()
	pos := (*st).Pos
	stablePlane := (*st).StablePlane
	if !limbo && !isPointwiseSubset(next, old) {
		for _, cell := range next.Cells {
			cellPos := pos.Add(vec.Vec3{X: cell.Offset[0], Y: cell.Offset[1], Z: cell.Offset[2]})
			if !s.Shapes.CanPlaceLayer(uint64(stablePlane), cellPos, next.Layer, cell.Shape, shapecache.PartsFromBox(true)) {
				return werr.New(werr.PlacementBlocked, "worldstore.ReplaceStructure", nil)
			}
		}
	}
	if !limbo {
		for _, cell := range old.Cells {
			cellPos := pos.Add(vec.Vec3{X: cell.Offset[0], Y: cell.Offset[1], Z: cell.Offset[2]})
			s.Shapes.RemoveStructureCell(uint64(stablePlane), cellPos, old.Layer)
		}
	}
	s.Structures.Mutate(id, func(s2 *Structure) { s2.TemplateID = newTemplateID })
	if !limbo {
		for _, cell := range next.Cells {
			cellPos := pos.Add(vec.Vec3{X: cell.Offset[0], Y: cell.Offset[1], Z: cell.Offset[2]})
			s.Shapes.AddStructureCell(uint64(stablePlane), cellPos, next.Layer, cell.Shape, shapecache.PartsFromBox(true))
		}
	}
	return nil
}

// isPointwiseSubset reports whether every cell next occupies is also
// occupied by old with the same shape (§4.1's skip-recheck optimization).
func isPointwiseSubset(next, old catalog.TemplateDef) bool {
	oldCells := make(map[[3]int]catalog.TemplateCell, len(old.Cells))
	for _, c := range old.Cells {
		oldCells[c.Offset] = c
	}
	for _, c := range next.Cells {
		oc, ok := oldCells[c.Offset]
		if !ok || oc.Shape != c.Shape {
			return false
		}
	}
	return true
}

// DestroyStructure permanently removes a structure and its child
// inventories (§3.4), releasing its shape-cache cells (or its limbo-list
// entry, if it was in limbo).
func (s *Store) DestroyStructure(id util.TransientID) error {
	if _, ok := s.Structures.Get(id); !ok {
		return werr.New(werr.NotFound, "worldstore.DestroyStructure", nil)
	}
	s.destroyObject(KindStructure, id)
	return nil
}

// ---- Attachment changes (§4.1) ----

// ChangeAttachment re-parents a child, updating its Attachment field and
// both the old and new parent's child sets in one call so neither is ever
// observed out of sync (§4.1, §3.3 invariant 3). Only Entity, Inventory and
// Structure carry a generic Attachment field — Client is always a root and
// Plane/TerrainChunk track membership through their own typed maps.
func (s *Store) ChangeAttachment(kind Kind, id util.TransientID, newAttach Attachment) error {
	if kind != KindEntity && kind != KindInventory && kind != KindStructure {
		return werr.New(werr.InvalidRef, "worldstore.ChangeAttachment", nil)
	}
	if err := s.checkParentExists(newAttach); err != nil {
		return err
	}
	oldAttach, ok := s.attachmentOf(kind, id)
	if !ok {
		return werr.New(werr.NotFound, "worldstore.ChangeAttachment", nil)
	}
	s.unlinkChild(oldAttach, kind, id)
	s.linkChild(newAttach, kind, id)
	s.setAttachment(kind, id, newAttach)
	return nil
}

func (s *Store) attachmentOf(kind Kind, id util.TransientID) (Attachment, bool) {
	switch kind {
	case KindEntity:
		e, ok := s.Entities.Get(id)
		if !ok {
			return Attachment{}, false
		}
		return (*e).Attachment, true
	case KindInventory:
		inv, ok := s.Inventories.Get(id)
		if !ok {
			return Attachment{}, false
		}
		return (*inv).Attachment, true
	case KindStructure:
		st, ok := s.Structures.Get(id)
		if !ok {
			return Attachment{}, false
		}
		return (*st).Attachment, true
	}
	return Attachment{}, false
}

func (s *Store) setAttachment(kind Kind, id util.TransientID, attach Attachment) {
	switch kind {
	case KindEntity:
		s.Entities.Mutate(id, func(e *Entity) { e.Attachment = attach })
	case KindInventory:
		s.Inventories.Mutate(id, func(inv *Inventory) { inv.Attachment = attach })
	case KindStructure:
		s.Structures.Mutate(id, func(st *Structure) { st.Attachment = attach })
	}
}

// linkChild adds id to whatever child set attach.Kind's parent tracks.
// AttachNone/AttachWorld/AttachPlane have no explicit child set to update:
// clients are roots, the world root tracks nothing, and planes track
// membership through LoadedChunks/SavedChunks instead.
func (s *Store) linkChild(attach Attachment, kind Kind, id util.TransientID) {
	switch attach.Kind {
	case AttachClient:
		switch kind {
		case KindEntity:
			s.Clients.Mutate(attach.ID, func(c *Client) { c.ChildEntities[id] = struct{}{} })
		case KindInventory:
			s.Clients.Mutate(attach.ID, func(c *Client) { c.ChildInventories[id] = struct{}{} })
		}
	case AttachEntity:
		s.Entities.Mutate(attach.ID, func(e *Entity) { e.ChildInventories[id] = struct{}{} })
	case AttachChunk:
		switch kind {
		case KindEntity:
			s.Chunks.Mutate(attach.ID, func(c *TerrainChunk) { c.ChildEntities[id] = struct{}{} })
		case KindStructure:
			s.Chunks.Mutate(attach.ID, func(c *TerrainChunk) { c.ChildStructures[id] = struct{}{} })
		}
	case AttachStructure:
		s.Structures.Mutate(attach.ID, func(st *Structure) { st.ChildInventories[id] = struct{}{} })
	}
}

func (s *Store) unlinkChild(attach Attachment, kind Kind, id util.TransientID) {
	switch attach.Kind {
	case AttachClient:
		switch kind {
		case KindEntity:
			s.Clients.Mutate(attach.ID, func(c *Client) { delete(c.ChildEntities, id) })
		case KindInventory:
			s.Clients.Mutate(attach.ID, func(c *Client) { delete(c.ChildInventories, id) })
		}
	case AttachEntity:
		s.Entities.Mutate(attach.ID, func(e *Entity) { delete(e.ChildInventories, id) })
	case AttachChunk:
		switch kind {
		case KindEntity:
			s.Chunks.Mutate(attach.ID, func(c *TerrainChunk) { delete(c.ChildEntities, id) })
		case KindStructure:
			s.Chunks.Mutate(attach.ID, func(c *TerrainChunk) { delete(c.ChildStructures, id) })
		}
	case AttachStructure:
		s.Structures.Mutate(attach.ID, func(st *Structure) { delete(st.ChildInventories, id) })
	}
}

func (s *Store) checkParentExists(attach Attachment) error {
	switch attach.Kind {
	case AttachNone, AttachWorld:
		return nil
	}
	pk := attach.storeKind()
	if pk < 0 {
		return werr.New(werr.InvalidRef, "worldstore.checkParentExists", nil)
	}
	if !s.objectExists(pk, attach.ID) {
		return werr.New(werr.InvalidRef, "worldstore.checkParentExists", nil)
	}
	return nil
}

func (s *Store) objectExists(kind Kind, id util.TransientID) bool {
	switch kind {
	case KindClient:
		_, ok := s.Clients.Get(id)
		return ok
	case KindEntity:
		_, ok := s.Entities.Get(id)
		return ok
	case KindInventory:
		_, ok := s.Inventories.Get(id)
		return ok
	case KindPlane:
		_, ok := s.Planes.Get(id)
		return ok
	case KindChunk:
		_, ok := s.Chunks.Get(id)
		return ok
	case KindStructure:
		_, ok := s.Structures.Get(id)
		return ok
	}
	return false
}

// destroyObject performs a permanent, top-down recursive destruction of an
// object and everything it owns (§3.4), unconditionally — used by the
// public Destroy* operations and the cascades they trigger. Unlike
// UnloadChunk, destroying a chunk through here destroys its structures and
// entities outright rather than sending them to limbo: this path is for
// tearing a plane down for good, not a routine residency change.
func (s *Store) destroyObject(kind Kind, id util.TransientID) {
	switch kind {
	case KindClient:
		obj, ok := s.Clients.Get(id)
		if !ok {
			return
		}
		c := *obj
		s.Clients.Remove(id)
		for eid := range c.ChildEntities {
			s.destroyObject(KindEntity, eid)
		}
		for iid := range c.ChildInventories {
			s.destroyObject(KindInventory, iid)
		}

	case KindEntity:
		obj, ok := s.Entities.Get(id)
		if !ok {
			return
		}
		e := *obj
		s.unlinkChild(e.Attachment, KindEntity, id)
		if e.IsLimbo() {
			s.removeLimbo(s.limboEntities, e.StablePlane, id)
		}
		s.Entities.Remove(id)
		s.observer.OnEntityRemoved(id, &e)
		for iid := range e.ChildInventories {
			s.destroyObject(KindInventory, iid)
		}

	case KindInventory:
		obj, ok := s.Inventories.Get(id)
		if !ok {
			return
		}
		inv := *obj
		s.unlinkChild(inv.Attachment, KindInventory, id)
		s.Inventories.Remove(id)

	case KindPlane:
		obj, ok := s.Planes.Get(id)
		if !ok {
			return
		}
		p := *obj
		stablePlane, _ := s.Planes.StableOf(id)
		for _, cid := range p.LoadedChunks {
			s.destroyObject(KindChunk, cid)
		}
		for eid := range s.limboEntities[stablePlane] {
			s.destroyObject(KindEntity, eid)
		}
		for sid := range s.limboStructures[stablePlane] {
			s.destroyObject(KindStructure, sid)
		}
		s.Planes.Remove(id)

	case KindChunk:
		obj, ok := s.Chunks.Get(id)
		if !ok {
			return
		}
		c := *obj
		for sid := range c.ChildStructures {
			s.destroyObject(KindStructure, sid)
		}
		for eid := range c.ChildEntities {
			s.destroyObject(KindEntity, eid)
		}
		s.Chunks.Remove(id)

	case KindStructure:
		obj, ok := s.Structures.Get(id)
		if !ok {
			return
		}
		st := *obj
		if st.IsLimbo() {
			s.removeLimbo(s.limboStructures, st.StablePlane, id)
		} else {
			tmpl, _ := catalog.Template(st.TemplateID)
			for _, cell := range tmpl.Cells {
				cellPos := st.Pos.Add(vec.Vec3{X: cell.Offset[0], Y: cell.Offset[1], Z: cell.Offset[2]})
				s.Shapes.RemoveStructureCell(uint64(st.StablePlane), cellPos, tmpl.Layer)
			}
		}
		s.unlinkChild(st.Attachment, KindStructure, id)
		s.Structures.Remove(id)
		s.observer.OnStructureRemoved(id, &st)
		for iid := range st.ChildInventories {
			s.destroyObject(KindInventory, iid)
		}
	}
}

func limboList(m map[util.StableID]map[util.TransientID]struct{}, plane util.StableID) []util.TransientID {
	set, ok := m[plane]
	if !ok {
		return nil
	}
	out := make([]util.TransientID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (s *Store) addLimbo(m map[util.StableID]map[util.TransientID]struct{}, plane util.StableID, id util.TransientID) {
	set, ok := m[plane]
	if !ok {
		set = make(map[util.TransientID]struct{})
		m[plane] = set
	}
	set[id] = struct{}{}
}

func (s *Store) removeLimbo(m map[util.StableID]map[util.TransientID]struct{}, plane util.StableID, id util.TransientID) {
	if set, ok := m[plane]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(m, plane)
		}
	}
}
