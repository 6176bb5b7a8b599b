package chunklifecycle

// Coordinator implements Loader by wiring the three collaborators the
// load path touches (§4.3): worldstore.Store for residency, storage.Store
// for the save-file layer, and a terrainipc.Client for the cases where
// neither layer has the chunk yet. Grounded on the teacher's
// world/bigchunk.go, which plays the same "load from storage, fall back
// to generation" role for its always-resident region grid; this type
// generalizes that fallback chain to the Manager's on-demand refcounted
// calls.
import (
	"sync"

	"github.com/annel0/mmo-game/internal/bundle"
	"github.com/annel0/mmo-game/internal/logging"
	"github.com/annel0/mmo-game/internal/scripthost"
	"github.com/annel0/mmo-game/internal/storage"
	"github.com/annel0/mmo-game/internal/terrainipc"
	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/worldstore"
)

type Coordinator struct {
	store *worldstore.Store
	save  *storage.Store
	gen   *terrainipc.Client

	// Scripts is nil-safe; set by cmd/server once an embedded script
	// engine registers an on_structure_import hook. Fired once per
	// structure brought into residency by Load, whether from the save
	// layer or freshly generated.
	Scripts *scripthost.Registry

	mu          sync.Mutex
	initialized map[util.StableID]struct{}
}

func NewCoordinator(store *worldstore.Store, save *storage.Store, gen *terrainipc.Client) *Coordinator {
	return &Coordinator{
		store:       store,
		save:        save,
		gen:         gen,
		initialized: make(map[util.StableID]struct{}),
	}
}

// fireStructureImportHooks notifies Scripts about every structure already
// attached under chunkTID once it has been imported into residency.
func (c *Coordinator) fireStructureImportHooks(chunkTID util.TransientID) {
	if c.Scripts == nil {
		return
	}
	chunk, ok := c.store.Chunks.Get(chunkTID)
	if !ok {
		return
	}
	for structTID := range chunk.ChildStructures {
		if stable, ok := c.store.Structures.StableOf(structTID); ok {
			c.Scripts.FireStructureImport(c.store, uint64(stable))
		}
	}
}

func (c *Coordinator) ensureInitialized(planeStable util.StableID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.initialized[planeStable]; ok {
		return
	}
	if err := c.gen.InitPlane(uint64(planeStable), 0); err != nil {
		logging.LogError("chunklifecycle: InitPlane(%d) failed: %v", planeStable, err)
		return
	}
	c.initialized[planeStable] = struct{}{}
}

// ForgetPlane tells the generator subprocess it can drop whatever it
// cached for this plane. Not driven by the Manager (which only tracks
// chunk-level refcounts) — the engine calls this explicitly once
// Manager.PlaneHeld reports false after an unload.
func (c *Coordinator) ForgetPlane(planeStable util.StableID) {
	c.mu.Lock()
	delete(c.initialized, planeStable)
	c.mu.Unlock()
	if err := c.gen.ForgetPlane(uint64(planeStable)); err != nil {
		logging.LogError("chunklifecycle: ForgetPlane(%d) failed: %v", planeStable, err)
	}
}

// Load implements Loader. On a save-layer hit the chunk is decoded and
// installed; on a miss the generator subprocess produces it and the
// result is written to the delta layer so the next load skips
// generation entirely.
func (c *Coordinator) Load(key Key) {
	planeTID, ok := c.store.Planes.ByStable(key.Plane)
	if !ok {
		logging.LogError("chunklifecycle: Load(%v): plane not resident", key)
		return
	}
	plane, ok := c.store.Planes.Get(planeTID)
	if !ok {
		return
	}
	if _, resident := plane.LoadedChunks[key.Pos]; resident {
		return
	}

	if stableChunk, known := plane.SavedChunks[key.Pos]; known {
		if b, err := c.save.LoadChunk(stableChunk); err == nil {
			if chunkTID, err := bundle.ImportChunk(c.store, planeTID, b); err == nil {
				c.fireStructureImportHooks(chunkTID)
				return
			} else {
				logging.LogError("chunklifecycle: ImportChunk(%v) failed: %v", key, err)
			}
		}
	}

	c.ensureInitialized(key.Plane)
	b, err := c.gen.GenChunk(uint64(key.Plane), int32(key.Pos.X), int32(key.Pos.Y))
	if err != nil {
		logging.LogError("chunklifecycle: GenChunk(%v) failed: %v", key, err)
		return
	}
	chunkTID, err := bundle.ImportChunk(c.store, planeTID, b)
	if err != nil {
		logging.LogError("chunklifecycle: ImportChunk(%v) of generated bundle failed: %v", key, err)
		return
	}
	c.fireStructureImportHooks(chunkTID)
	stableChunk, _ := c.store.Chunks.Pin(chunkTID)
	if err := c.save.SaveChunk(stableChunk, b); err != nil {
		logging.LogError("chunklifecycle: SaveChunk(%v) failed: %v", key, err)
	}
}

// Unload implements Loader: export the chunk's current state to the save
// layer, then drop it from residency.
func (c *Coordinator) Unload(key Key) {
	planeTID, ok := c.store.Planes.ByStable(key.Plane)
	if !ok {
		return
	}
	plane, ok := c.store.Planes.Get(planeTID)
	if !ok {
		return
	}
	chunkTID, resident := plane.LoadedChunks[key.Pos]
	if !resident {
		return
	}

	if b, err := bundle.ExportChunk(c.store, chunkTID); err != nil {
		logging.LogError("chunklifecycle: ExportChunk(%v) failed: %v", key, err)
	} else {
		stableChunk, _ := c.store.Chunks.Pin(chunkTID)
		if err := c.save.SaveChunk(stableChunk, b); err != nil {
			logging.LogError("chunklifecycle: SaveChunk(%v) on unload failed: %v", key, err)
		}
	}

	if err := c.store.UnloadChunk(chunkTID); err != nil {
		logging.LogError("chunklifecycle: UnloadChunk(%v) failed: %v", key, err)
	}
}
