package bundle

// This file translates a live worldstore.Store subgraph into a Bundle,
// assigning LocalRefs as objects are visited. Grounded on the teacher's
// internal/storage/world_storage.go "collect then encode" shape, generalized
// from its flat per-chunk JSON blob to the tree-shaped export the spec's
// object model requires (an entity/structure can itself own inventories).

import (
	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/werr"
	"github.com/annel0/mmo-game/internal/worldstore"
	"github.com/google/uuid"
)

type exporter struct {
	store *worldstore.Store
	b     *Bundle

	chunkRef     map[util.TransientID]LocalRef
	entityRef    map[util.TransientID]LocalRef
	structureRef map[util.TransientID]LocalRef
	inventoryRef map[util.TransientID]LocalRef
	clientRef    map[util.TransientID]LocalRef
}

func newExporter(store *worldstore.Store) *exporter {
	return &exporter{
		store:        store,
		b:            New(),
		chunkRef:     make(map[util.TransientID]LocalRef),
		entityRef:    make(map[util.TransientID]LocalRef),
		structureRef: make(map[util.TransientID]LocalRef),
		inventoryRef: make(map[util.TransientID]LocalRef),
		clientRef:    make(map[util.TransientID]LocalRef),
	}
}

func (ex *exporter) encodeAttach(a worldstore.Attachment) AttachRecord {
	switch a.Kind {
	case worldstore.AttachClient:
		return AttachRecord{Kind: uint8(a.Kind), Ref: ex.clientRef[a.ID]}
	case worldstore.AttachEntity:
		return AttachRecord{Kind: uint8(a.Kind), Ref: ex.entityRef[a.ID]}
	case worldstore.AttachChunk:
		return AttachRecord{Kind: uint8(a.Kind), Ref: ex.chunkRef[a.ID]}
	case worldstore.AttachStructure:
		return AttachRecord{Kind: uint8(a.Kind), Ref: ex.structureRef[a.ID]}
	default:
		return AttachRecord{Kind: uint8(a.Kind), Ref: NoRef}
	}
}

func (ex *exporter) exportInventory(id util.TransientID) LocalRef {
	if ref, ok := ex.inventoryRef[id]; ok {
		return ref
	}
	inv, ok := ex.store.Inventories.Get(id)
	if !ok {
		return NoRef
	}
	stableID, _ := ex.store.Inventories.Pin(id)
	slots := make([]SlotRecord, len(inv.Slots))
	for i, it := range inv.Slots {
		itemName := -1
		if it.Kind != worldstore.SlotEmpty {
			itemName = ex.b.Items.Intern(catalog.Item(it.ItemID).Name)
		}
		slots[i] = SlotRecord{Kind: uint8(it.Kind), Count: it.Count, ItemName: itemName, Param: it.Param}
	}
	extraBytes, err := inv.Extra.MarshalJSON()
	if err != nil {
		extraBytes = []byte("null")
	}
	ex.b.Inventories = append(ex.b.Inventories, InventoryRecord{
		StableID: uint64(stableID),
		Attach:   ex.encodeAttach(inv.Attachment),
		Slots:    slots,
		Extra:    extraBytes,
	})
	ref := LocalRef(len(ex.b.Inventories))
	ex.inventoryRef[id] = ref
	return ref
}

func (ex *exporter) exportEntity(id util.TransientID) LocalRef {
	if ref, ok := ex.entityRef[id]; ok {
		return ref
	}
	e, ok := ex.store.Entities.Get(id)
	if !ok {
		return NoRef
	}
	stableID, _ := ex.store.Entities.Pin(id)
	ref := LocalRef(len(ex.entityRef) + 1)
	ex.entityRef[id] = ref

	var childInv []LocalRef
	for iid := range e.ChildInventories {
		childInv = append(childInv, ex.exportInventory(iid))
	}
	extraBytes, err := e.Extra.MarshalJSON()
	if err != nil {
		extraBytes = []byte("null")
	}
	ex.b.Entities = append(ex.b.Entities, EntityRecord{
		StableID:         uint64(stableID),
		StablePlane:      uint64(e.StablePlane),
		Attach:           ex.encodeAttach(e.Attachment),
		StartPos:         [3]float64{e.Motion.StartPos.X, e.Motion.StartPos.Y, e.Motion.StartPos.Z},
		Velocity:         [3]float64{e.Motion.Velocity.X, e.Motion.Velocity.Y, e.Motion.Velocity.Z},
		StartTime:        e.Motion.StartTime,
		HasEnd:           e.Motion.HasEnd,
		EndTime:          e.Motion.EndTime,
		FacingX:          e.Facing.X,
		FacingY:          e.Facing.Y,
		AnimName:         ex.b.Animations.Intern(catalog.AnimationName(e.AnimationID)),
		Appearance:       e.Appearance,
		TargetVelocity:   [3]float64{e.TargetVelocity.X, e.TargetVelocity.Y, e.TargetVelocity.Z},
		Size:             [3]float64{e.Size.X, e.Size.Y, e.Size.Z},
		ChildInventories: childInv,
		Extra:            extraBytes,
	})
	return ref
}

func (ex *exporter) exportStructure(id util.TransientID) LocalRef {
	if ref, ok := ex.structureRef[id]; ok {
		return ref
	}
	st, ok := ex.store.Structures.Get(id)
	if !ok {
		return NoRef
	}
	stableID, _ := ex.store.Structures.Pin(id)
	ref := LocalRef(len(ex.structureRef) + 1)
	ex.structureRef[id] = ref

	var childInv []LocalRef
	for iid := range st.ChildInventories {
		childInv = append(childInv, ex.exportInventory(iid))
	}
	tmpl, _ := catalog.Template(st.TemplateID)
	extraBytes, err := st.Extra.MarshalJSON()
	if err != nil {
		extraBytes = []byte("null")
	}
	ex.b.Structures = append(ex.b.Structures, StructureRecord{
		StableID:         uint64(stableID),
		TemplateName:     ex.b.Templates.Intern(tmpl.Name),
		Pos:              [3]int32{int32(st.Pos.X), int32(st.Pos.Y), int32(st.Pos.Z)},
		StablePlane:      uint64(st.StablePlane),
		Attach:           ex.encodeAttach(st.Attachment),
		ChildInventories: childInv,
		Extra:            extraBytes,
	})
	return ref
}

// exportChunk encodes a single resident chunk and everything rooted under
// it (its structures, entities, and their inventories). Limbo occupants are
// not included: a chunk bundle only ever carries what is currently attached
// to it, since limbo membership is store-local bookkeeping the chunk
// lifecycle manager re-establishes on the next load, not wire state (§4.3).
func (ex *exporter) exportChunk(id util.TransientID) (LocalRef, error) {
	if ref, ok := ex.chunkRef[id]; ok {
		return ref, nil
	}
	c, ok := ex.store.Chunks.Get(id)
	if !ok {
		return NoRef, werr.New(werr.NotFound, "bundle.exportChunk", nil)
	}
	stableID, _ := ex.store.Chunks.Pin(id)
	ref := LocalRef(len(ex.chunkRef) + 1)
	ex.chunkRef[id] = ref

	names := make([]int, len(c.Blocks))
	for i, bid := range c.Blocks {
		names[i] = ex.b.Blocks.Intern(catalog.Block(bid).Name)
	}
	var childStructs, childEnts []LocalRef
	for sid := range c.ChildStructures {
		childStructs = append(childStructs, ex.exportStructure(sid))
	}
	for eid := range c.ChildEntities {
		childEnts = append(childEnts, ex.exportEntity(eid))
	}
	extraBytes, err := c.Extra.MarshalJSON()
	if err != nil {
		extraBytes = []byte("null")
	}
	ex.b.Chunks = append(ex.b.Chunks, ChunkRecord{
		StableID:        uint64(stableID),
		StablePlane:     uint64(c.StablePlane),
		Pos:             [2]int32{int32(c.Pos.X), int32(c.Pos.Y)},
		Flags:           uint8(c.Flags),
		BlockNames:      names,
		ChildStructures: childStructs,
		ChildEntities:   childEnts,
		Extra:           extraBytes,
	})
	return ref, nil
}

// ExportChunk bundles one resident chunk for handoff to a terrain generator
// subprocess or a per-chunk save write (§4.6, §6.3).
func ExportChunk(store *worldstore.Store, chunkID util.TransientID) (*Bundle, error) {
	ex := newExporter(store)
	if _, err := ex.exportChunk(chunkID); err != nil {
		return nil, err
	}
	ex.b.ExportID = uuid.NewString()
	return ex.b, nil
}

// ExportPlane bundles a plane record plus every one of its currently
// resident chunks — the shape a full save-file write consumes (§6.2).
func ExportPlane(store *worldstore.Store, planeID util.TransientID) (*Bundle, error) {
	p, ok := store.Planes.Get(planeID)
	if !ok {
		return nil, werr.New(werr.NotFound, "bundle.ExportPlane", nil)
	}
	ex := newExporter(store)
	for _, cid := range p.LoadedChunks {
		if _, err := ex.exportChunk(cid); err != nil {
			return nil, err
		}
	}
	stableID, _ := store.Planes.Pin(planeID)
	pos := make([][2]int32, 0, len(p.SavedChunks))
	stables := make([]uint64, 0, len(p.SavedChunks))
	for cpos, sid := range p.SavedChunks {
		pos = append(pos, [2]int32{int32(cpos.X), int32(cpos.Y)})
		stables = append(stables, uint64(sid))
	}
	ex.b.Planes = append(ex.b.Planes, PlaneRecord{
		StableID:         uint64(stableID),
		Name:             p.Name,
		SavedChunkPos:    pos,
		SavedChunkStable: stables,
	})
	ex.b.ExportID = uuid.NewString()
	return ex.b, nil
}

// ExportClient bundles a client session — its record, its pawn and other
// child entities, and every inventory reachable from them — for
// persistence across a reconnect (§3.2, §6.2).
func ExportClient(store *worldstore.Store, clientID util.TransientID) (*Bundle, error) {
	c, ok := store.Clients.Get(clientID)
	if !ok {
		return nil, werr.New(werr.NotFound, "bundle.ExportClient", nil)
	}
	ex := newExporter(store)
	stableID, _ := store.Clients.Pin(clientID)
	ref := LocalRef(1)
	ex.clientRef[clientID] = ref

	var childEnts, childInv []LocalRef
	for eid := range c.ChildEntities {
		childEnts = append(childEnts, ex.exportEntity(eid))
	}
	for iid := range c.ChildInventories {
		childInv = append(childInv, ex.exportInventory(iid))
	}
	pawnRef := NoRef
	if c.Pawn != util.NoTransientID {
		pawnRef = ex.entityRef[c.Pawn]
	}
	extraBytes, err := c.Extra.MarshalJSON()
	if err != nil {
		extraBytes = []byte("null")
	}
	ex.b.Clients = append(ex.b.Clients, ClientRecord{
		StableID:         uint64(stableID),
		DisplayName:      c.DisplayName,
		Pawn:             pawnRef,
		ChildEntities:    childEnts,
		ChildInventories: childInv,
		Extra:            extraBytes,
	})
	ex.b.ExportID = uuid.NewString()
	return ex.b, nil
}
