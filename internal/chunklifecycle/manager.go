// Package chunklifecycle implements the refcounted chunk residency manager
// from spec §4.3: two refcounts per (plane, chunk-pos) — a user refcount
// for external holds (player viewports) and an internal refcount that also
// retains the 3x3 neighborhood around every user hold, so a structure
// straddling a chunk boundary is loaded the instant any cell that sees it
// is held.
//
// Grounded on the teacher's internal/world/bigchunk.go (a refcounted region
// actor with its own lifecycle) and region_manager.go (tracks which regions
// are currently retained), generalized from the teacher's always-resident
// 2D region grid into spec §4.3's on-demand refcounted load/unload with an
// external loader callback.
package chunklifecycle

import (
	"sync"

	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/vec"
)

// Key addresses one (plane, chunk-pos) residency slot.
type Key struct {
	Plane util.StableID
	Pos   vec.Vec2
}

// Loader is invoked synchronously on every 0->1 *internal* refcount
// transition (§4.3: "each 0->1 internal transition dispatches an actual
// load request, invoking the provided loader callback synchronously") and
// its symmetric counterpart on 1->0.
type Loader interface {
	Load(key Key)
	Unload(key Key)
}

type slot struct {
	userRefs     int
	internalRefs int
}

// Manager owns the per-(plane,chunk) and per-plane refcounts. It is not
// safe to access concurrently with store mutation — like the rest of the
// core (§5), it is driven exclusively from the single engine loop thread;
// the mutex here only guards against the generator-IPC reply arriving on
// its own goroutine before the engine loop's dispatch picks it up.
type Manager struct {
	mu     sync.Mutex
	loader Loader
	slots  map[Key]*slot

	// planeUserRefs counts total user holds across every chunk in a plane,
	// so planes can be evicted once no chunk in them is held (§4.3 "a
	// per-plane user refcount is also tracked").
	planeUserRefs map[util.StableID]int
}

func New(loader Loader) *Manager {
	return &Manager{
		loader:        loader,
		slots:         make(map[Key]*slot),
		planeUserRefs: make(map[util.StableID]int),
	}
}

func (m *Manager) getSlot(k Key) *slot {
	s, ok := m.slots[k]
	if !ok {
		s = &slot{}
		m.slots[k] = s
	}
	return s
}

// Load increments the user refcount for (plane, cpos); on a 0->1
// transition it also increments the internal refcount of every cell in the
// 3x3 neighborhood, invoking Loader.Load for each cell whose internal
// refcount itself transitions 0->1 (§4.3).
func (m *Manager) Load(plane util.StableID, cpos vec.Vec2) {
	m.mu.Lock()
	key := Key{Plane: plane, Pos: cpos}
	s := m.getSlot(key)
	s.userRefs++
	firstHold := s.userRefs == 1
	m.planeUserRefs[plane]++
	var toLoad []Key
	if firstHold {
		for _, n := range util.Square3x3(cpos) {
			nk := Key{Plane: plane, Pos: n}
			ns := m.getSlot(nk)
			ns.internalRefs++
			if ns.internalRefs == 1 {
				toLoad = append(toLoad, nk)
			}
		}
	}
	m.mu.Unlock()
	for _, k := range toLoad {
		m.loader.Load(k)
	}
}

// Unload is Load's exact inverse: decrements the user refcount, and on a
// 1->0 transition decrements the internal refcount of the 3x3 neighborhood,
// invoking Loader.Unload for each cell whose internal refcount drops to 0.
func (m *Manager) Unload(plane util.StableID, cpos vec.Vec2) {
	m.mu.Lock()
	key := Key{Plane: plane, Pos: cpos}
	s, ok := m.slots[key]
	if !ok || s.userRefs == 0 {
		m.mu.Unlock()
		return
	}
	s.userRefs--
	lastHold := s.userRefs == 0
	if m.planeUserRefs[plane] > 0 {
		m.planeUserRefs[plane]--
	}
	if m.planeUserRefs[plane] == 0 {
		delete(m.planeUserRefs, plane)
	}
	var toUnload []Key
	if lastHold {
		for _, n := range util.Square3x3(cpos) {
			nk := Key{Plane: plane, Pos: n}
			ns, ok := m.slots[nk]
			if !ok || ns.internalRefs == 0 {
				continue
			}
			ns.internalRefs--
			if ns.internalRefs == 0 {
				toUnload = append(toUnload, nk)
				if ns.userRefs == 0 {
					delete(m.slots, nk)
				}
			}
		}
	}
	if s.userRefs == 0 && s.internalRefs == 0 {
		delete(m.slots, key)
	}
	m.mu.Unlock()
	for _, k := range toUnload {
		m.loader.Unload(k)
	}
}

// IsLoaded reports whether a chunk is actually resident (internal refcount
// > 0) — the §8.4 property test's "set of actually-loaded chunks".
func (m *Manager) IsLoaded(plane util.StableID, cpos vec.Vec2) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[Key{Plane: plane, Pos: cpos}]
	return ok && s.internalRefs > 0
}

// LoadedChunks returns every (plane, cpos) currently resident, for tests
// and diagnostics.
func (m *Manager) LoadedChunks() []Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Key
	for k, s := range m.slots {
		if s.internalRefs > 0 {
			out = append(out, k)
		}
	}
	return out
}

// PlaneHeld reports whether any chunk in plane currently has a user hold —
// planes with none may be evicted (§4.3).
func (m *Manager) PlaneHeld(plane util.StableID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.planeUserRefs[plane] > 0
}

// Empty reports whether the manager currently tracks no residency at all —
// used by §8.4's property test ("the set of actually-loaded chunks at the
// end is empty").
func (m *Manager) Empty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots) == 0
}
