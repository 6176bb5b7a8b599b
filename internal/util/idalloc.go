package util

import "sync"

// TransientID is a small integer valid only for the lifetime of the
// process; it is invalidated (and may be reused) on destruction (§3.1).
type TransientID uint32

// StableID is a 64-bit identifier assigned on first pin and never reused
// or invalidated (§3.1).
type StableID uint64

// UnsetStableID means "no stable id has been pinned yet" (§3.4 — objects
// may exist without a stable id until pinned).
const UnsetStableID StableID = 0

// NoTransientID is the sentinel transient id meaning "no live object" —
// used both for an unset optional reference (e.g. a client with no pawn)
// and for LIMBO, the state of an entity/structure/chunk whose containing
// plane isn't currently loaded (§3.1, §3.3 invariant 6). SlabAllocator
// never hands out slot 0 at generation 0, so this value is never aliased
// by a live id.
const NoTransientID TransientID = 0

// SlabAllocator hands out TransientIDs for one object kind. Slots are
// reused after destruction, but each slot carries a generation counter so a
// lookup of a stale id fails distinguishably from a lookup of a
// never-allocated one (§4.1 — "implementation choice").
type SlabAllocator struct {
	mu         sync.Mutex
	generation []uint32
	free       []uint32
	nextSlot   uint32
}

// pack packs (slot, generation) into one TransientID. Generations start at
// 1, so TransientID(0) can mean "unset" in callers that embed one inline.
const genShift = 20 // 2^20 live slots per kind before generation bits start; ample for a world server.

func pack(slot, gen uint32) TransientID {
	return TransientID(uint64(gen)<<genShift | uint64(slot))
}

func unpack(id TransientID) (slot, gen uint32) {
	return uint32(id) & (1<<genShift - 1), uint32(id) >> genShift
}

// Alloc reserves a fresh slot (or reuses a freed one) and returns its id.
func (a *SlabAllocator) Alloc() TransientID {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.free) > 0 {
		n := len(a.free) - 1
		slot := a.free[n]
		a.free = a.free[:n]
		return pack(slot, a.generation[slot])
	}
	slot := a.nextSlot
	a.nextSlot++
	a.generation = append(a.generation, 1)
	return pack(slot, 1)
}

// Free retires id: its generation is bumped so any copy of id still held
// elsewhere now fails IsLive, and the slot becomes eligible for reuse.
func (a *SlabAllocator) Free(id TransientID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	slot, gen := unpack(id)
	if int(slot) >= len(a.generation) || a.generation[slot] != gen {
		return // already freed or never allocated — destroying twice is idempotent (§7)
	}
	a.generation[slot]++
	a.free = append(a.free, slot)
}

// IsLive reports whether id still refers to a currently allocated slot.
func (a *SlabAllocator) IsLive(id TransientID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	slot, gen := unpack(id)
	return int(slot) < len(a.generation) && a.generation[slot] == gen
}

// StableAllocator assigns StableIDs on demand and never reuses one (§3.4).
type StableAllocator struct {
	mu   sync.Mutex
	next uint64
}

// NewStableAllocator starts counting stable ids from 1 (0 is UnsetStableID).
func NewStableAllocator() *StableAllocator {
	return &StableAllocator{next: 1}
}

// Pin assigns and returns a fresh, never-before-issued StableID.
func (s *StableAllocator) Pin() StableID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	return StableID(id)
}

// Restore advances the allocator past an id loaded from disk, so freshly
// pinned ids after a reload never collide with persisted ones.
func (s *StableAllocator) Restore(id StableID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(id) >= s.next {
		s.next = uint64(id) + 1
	}
}
