package bundle

// Import reverses Export: it replays a Bundle's records into a live
// worldstore.Store, remapping every LocalRef to a freshly allocated
// TransientID as it goes. Creation runs in dependency order — chunks,
// then structures, then entities, then inventories — since worldstore's
// checked factories (CreateStructure/CreateEntity/CreateInventory) refuse
// to attach a child under a parent that doesn't exist yet (§4.1
// checkParentExists). Malformed bundle data is rejected by Read before
// any of this runs, so nothing from a corrupt file reaches the store. An
// error during the replay itself (an unknown block, template or item
// name, or a factory call the store refuses) returns at once: the records
// replayed before it stay created and wired into the store, and are not
// rolled back.
import (
	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/annel0/mmo-game/internal/extra"
	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/werr"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// refTables holds the LocalRef -> TransientID remapping built up as each
// section of a bundle is replayed, plus the plane an AttachPlane record
// resolves against (planes themselves are never LocalRef-addressed —
// there is at most one per import call).
type refTables struct {
	chunk     []util.TransientID
	entity    []util.TransientID
	structure []util.TransientID
	client    []util.TransientID
	plane     util.TransientID
}

func pick(tids []util.TransientID, ref LocalRef) util.TransientID {
	if ref == NoRef || int(ref) >= len(tids) {
		return util.NoTransientID
	}
	return tids[ref]
}

func (rt refTables) resolve(rec AttachRecord) worldstore.Attachment {
	kind := worldstore.AttachKind(rec.Kind)
	switch kind {
	case worldstore.AttachClient:
		return worldstore.Attachment{Kind: kind, ID: pick(rt.client, rec.Ref)}
	case worldstore.AttachEntity:
		return worldstore.Attachment{Kind: kind, ID: pick(rt.entity, rec.Ref)}
	case worldstore.AttachChunk:
		return worldstore.Attachment{Kind: kind, ID: pick(rt.chunk, rec.Ref)}
	case worldstore.AttachStructure:
		return worldstore.Attachment{Kind: kind, ID: pick(rt.structure, rec.Ref)}
	case worldstore.AttachPlane:
		return worldstore.Attachment{Kind: kind, ID: rt.plane}
	default:
		return worldstore.Attachment{Kind: kind}
	}
}

func decodeExtra(raw []byte) extra.Value {
	var v extra.Value
	if len(raw) == 0 {
		return extra.Hash(nil)
	}
	if err := v.UnmarshalJSON(raw); err != nil {
		return extra.Hash(nil)
	}
	return v
}

func decodeBlockNames(table *StringTable, names []int) ([4096]catalog.BlockID, error) {
	var out [4096]catalog.BlockID
	if len(names) != 4096 {
		return out, werr.Bundle("chunk block count mismatch", errBadLength)
	}
	for i, idx := range names {
		name, ok := table.At(idx)
		if !ok {
			return out, werr.Bundle("unknown block name index", errBadTag)
		}
		bid, ok := catalog.BlockNameToID(name)
		if !ok {
			return out, werr.Bundle("unrecognized block name", errBadTag)
		}
		out[i] = bid
	}
	return out, nil
}

func importChunkRecord(store *worldstore.Store, rec ChunkRecord, b *Bundle, planeTID util.TransientID) (util.TransientID, error) {
	blocks, err := decodeBlockNames(b.Blocks, rec.BlockNames)
	if err != nil {
		return 0, err
	}
	pos := vec.Vec2{X: int(rec.Pos[0]), Y: int(rec.Pos[1])}
	id, err := store.InstallChunk(planeTID, pos, blocks)
	if err != nil {
		return 0, err
	}
	extraVal := decodeExtra(rec.Extra)
	store.Chunks.Mutate(id, func(c *worldstore.TerrainChunk) {
		c.Flags = worldstore.ChunkFlags(rec.Flags)
		c.Extra = extraVal
	})
	store.Chunks.RestoreStable(id, util.StableID(rec.StableID))
	return id, nil
}

func importStructure(store *worldstore.Store, rec StructureRecord, b *Bundle, rt refTables) (util.TransientID, error) {
	name, ok := b.Templates.At(rec.TemplateName)
	if !ok {
		return 0, werr.Bundle("unknown template index", errBadTag)
	}
	tmplID, ok := catalog.TemplateNameToID(name)
	if !ok {
		return 0, werr.Bundle("unrecognized template name", errBadTag)
	}
	attach := rt.resolve(rec.Attach)
	pos := vec.Vec3{X: int(rec.Pos[0]), Y: int(rec.Pos[1]), Z: int(rec.Pos[2])}
	id, err := store.CreateStructure(tmplID, pos, util.StableID(rec.StablePlane), rt.plane, attach)
	if err != nil {
		return 0, err
	}
	extraVal := decodeExtra(rec.Extra)
	store.Structures.Mutate(id, func(s *worldstore.Structure) { s.Extra = extraVal })
	store.Structures.RestoreStable(id, util.StableID(rec.StableID))
	return id, nil
}

func importEntity(store *worldstore.Store, rec EntityRecord, b *Bundle, rt refTables, residentPlane util.TransientID) (util.TransientID, error) {
	attach := rt.resolve(rec.Attach)
	pos := vec.Vec3Float{X: rec.StartPos[0], Y: rec.StartPos[1], Z: rec.StartPos[2]}
	size := vec.Vec3Float{X: rec.Size[0], Y: rec.Size[1], Z: rec.Size[2]}
	id, err := store.CreateEntity(util.StableID(rec.StablePlane), residentPlane, pos, size, rec.StartTime, attach)
	if err != nil {
		return 0, err
	}
	animName, _ := b.Animations.At(rec.AnimName)
	animID, _ := catalog.AnimationNameToID(animName)
	extraVal := decodeExtra(rec.Extra)
	store.Entities.Mutate(id, func(e *worldstore.Entity) {
		e.Motion.Velocity = vec.Vec3Float{X: rec.Velocity[0], Y: rec.Velocity[1], Z: rec.Velocity[2]}
		e.Motion.HasEnd = rec.HasEnd
		e.Motion.EndTime = rec.EndTime
		e.Facing = vec.Vec2Float{X: rec.FacingX, Y: rec.FacingY}
		e.AnimationID = animID
		e.Appearance = rec.Appearance
		e.TargetVelocity = vec.Vec3Float{X: rec.TargetVelocity[0], Y: rec.TargetVelocity[1], Z: rec.TargetVelocity[2]}
		e.Extra = extraVal
	})
	store.Entities.RestoreStable(id, util.StableID(rec.StableID))
	return id, nil
}

func importInventory(store *worldstore.Store, rec InventoryRecord, b *Bundle, rt refTables) (util.TransientID, error) {
	attach := rt.resolve(rec.Attach)
	id, err := store.CreateInventory(len(rec.Slots), attach)
	if err != nil {
		return 0, err
	}
	slots := make([]worldstore.Item, len(rec.Slots))
	for i, s := range rec.Slots {
		itemID := catalog.NoItemID
		if worldstore.SlotKind(s.Kind) != worldstore.SlotEmpty {
			name, ok := b.Items.At(s.ItemName)
			if !ok {
				return 0, werr.Bundle("unknown item name index", errBadTag)
			}
			id2, ok := catalog.ItemNameToID(name)
			if !ok {
				return 0, werr.Bundle("unrecognized item name", errBadTag)
			}
			itemID = id2
		}
		slots[i] = worldstore.Item{Kind: worldstore.SlotKind(s.Kind), Count: s.Count, ItemID: itemID, Param: s.Param}
	}
	extraVal := decodeExtra(rec.Extra)
	store.Inventories.Mutate(id, func(inv *worldstore.Inventory) {
		inv.Slots = slots
		inv.Extra = extraVal
	})
	store.Inventories.RestoreStable(id, util.StableID(rec.StableID))
	return id, nil
}

// ImportChunk decodes a single-chunk bundle (as produced by ExportChunk)
// into an already-loaded plane, installing the chunk and every
// structure/entity/inventory rooted under it. Used both by the chunk
// lifecycle manager's generator handoff and by per-chunk save-file loads
// (§4.3, §6.3).
func ImportChunk(store *worldstore.Store, planeTID util.TransientID, b *Bundle) (util.TransientID, error) {
	if len(b.Chunks) != 1 {
		return 0, werr.Bundle("expected exactly one chunk record", errBadLength)
	}
	rt := refTables{
		plane:     planeTID,
		chunk:     make([]util.TransientID, len(b.Chunks)+1),
		structure: make([]util.TransientID, len(b.Structures)+1),
		entity:    make([]util.TransientID, len(b.Entities)+1),
	}
	var chunkID util.TransientID
	for i, rec := range b.Chunks {
		id, err := importChunkRecord(store, rec, b, planeTID)
		if err != nil {
			return 0, err
		}
		rt.chunk[i+1] = id
		chunkID = id
	}
	for i, rec := range b.Structures {
		id, err := importStructure(store, rec, b, rt)
		if err != nil {
			return 0, err
		}
		rt.structure[i+1] = id
	}
	for i, rec := range b.Entities {
		id, err := importEntity(store, rec, b, rt, planeTID)
		if err != nil {
			return 0, err
		}
		rt.entity[i+1] = id
	}
	for _, rec := range b.Inventories {
		if _, err := importInventory(store, rec, b, rt); err != nil {
			return 0, err
		}
	}
	return chunkID, nil
}

// ImportPlane decodes a full plane bundle (as produced by ExportPlane):
// creates the plane, every resident chunk, and everything rooted under
// them, then restores the saved-chunk index for positions that weren't
// resident at export time (§6.2 full save-file load).
func ImportPlane(store *worldstore.Store, b *Bundle) (util.TransientID, error) {
	if len(b.Planes) != 1 {
		return 0, werr.Bundle("expected exactly one plane record", errBadLength)
	}
	prec := b.Planes[0]
	if len(prec.SavedChunkPos) != len(prec.SavedChunkStable) {
		return 0, werr.Bundle("saved chunk arrays length mismatch", errBadLength)
	}
	planeTID := store.CreatePlane(prec.Name)
	store.Planes.RestoreStable(planeTID, util.StableID(prec.StableID))

	rt := refTables{
		plane:     planeTID,
		chunk:     make([]util.TransientID, len(b.Chunks)+1),
		structure: make([]util.TransientID, len(b.Structures)+1),
		entity:    make([]util.TransientID, len(b.Entities)+1),
	}
	for i, rec := range b.Chunks {
		id, err := importChunkRecord(store, rec, b, planeTID)
		if err != nil {
			return 0, err
		}
		rt.chunk[i+1] = id
	}
	for i, rec := range b.Structures {
		id, err := importStructure(store, rec, b, rt)
		if err != nil {
			return 0, err
		}
		rt.structure[i+1] = id
	}
	for i, rec := range b.Entities {
		id, err := importEntity(store, rec, b, rt, planeTID)
		if err != nil {
			return 0, err
		}
		rt.entity[i+1] = id
	}
	for _, rec := range b.Inventories {
		if _, err := importInventory(store, rec, b, rt); err != nil {
			return 0, err
		}
	}
	store.Planes.Mutate(planeTID, func(p *worldstore.Plane) {
		for i, pos := range prec.SavedChunkPos {
			p.SavedChunks[vec.Vec2{X: int(pos[0]), Y: int(pos[1])}] = util.StableID(prec.SavedChunkStable[i])
		}
	})
	return planeTID, nil
}

// ImportClient decodes a client-session bundle (as produced by
// ExportClient): the client, its pawn and other child entities, and
// every inventory reachable from them. Imported entities start in LIMBO
// (residentPlane = util.NoTransientID) since a reconnecting client's
// pawn plane isn't necessarily loaded yet; the chunk lifecycle manager
// calls Store.ExitLimbo once it is (§3.3 invariant 6).
func ImportClient(store *worldstore.Store, b *Bundle) (util.TransientID, error) {
	if len(b.Clients) != 1 {
		return 0, werr.Bundle("expected exactly one client record", errBadLength)
	}
	crec := b.Clients[0]
	cid := store.CreateClient(crec.DisplayName)
	store.Clients.RestoreStable(cid, util.StableID(crec.StableID))

	rt := refTables{
		client: []util.TransientID{util.NoTransientID, cid},
		entity: make([]util.TransientID, len(b.Entities)+1),
	}
	for i, rec := range b.Entities {
		id, err := importEntity(store, rec, b, rt, util.NoTransientID)
		if err != nil {
			return 0, err
		}
		rt.entity[i+1] = id
	}
	for _, rec := range b.Inventories {
		if _, err := importInventory(store, rec, b, rt); err != nil {
			return 0, err
		}
	}
	extraVal := decodeExtra(crec.Extra)
	store.Clients.Mutate(cid, func(c *worldstore.Client) { c.Extra = extraVal })
	if crec.Pawn != NoRef {
		if pawnID := pick(rt.entity, crec.Pawn); pawnID != util.NoTransientID {
			if err := store.SetPawn(cid, pawnID); err != nil {
				return 0, err
			}
		}
	}
	return cid, nil
}
