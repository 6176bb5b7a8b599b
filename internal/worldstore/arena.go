package worldstore

import (
	"github.com/annel0/mmo-game/internal/snapshot"
	"github.com/annel0/mmo-game/internal/util"
)

// versioned is implemented by every object kind stored in an Arena: a
// pre-mutation deep copy (for Snapshot) and a version counter bumped
// whenever the object is about to be mutated after the snapshot captured
// it (§3.2 "version").
type versioned interface {
	snapshot.Snapshotted
	Version() uint64
	setVersion(uint64)
}

// Arena is a slab-like store for one object kind, keyed by transient id,
// with an optional stable id mapping in both directions (§3.1/§4.1).
type Arena[T versioned] struct {
	kind   Kind
	slab   util.SlabAllocator
	stable util.StableAllocator
	objs   map[util.TransientID]*T

	stableToTransient map[util.StableID]util.TransientID
	transientToStable map[util.TransientID]util.StableID

	snap *snapshot.Snapshot
}

func newArena[T versioned](kind Kind, snap *snapshot.Snapshot) *Arena[T] {
	return &Arena[T]{
		kind:              kind,
		objs:              make(map[util.TransientID]*T),
		stableToTransient: make(map[util.StableID]util.TransientID),
		transientToStable: make(map[util.TransientID]util.StableID),
		snap:              snap,
	}
}

// Insert is the low-level "unchecked create" (§3.4): allocates a transient
// id and stores obj without touching any parent's child set or running
// invariant checks. Only worldstore's checked factories and bundle import
// call this directly.
func (a *Arena[T]) Insert(obj *T) util.TransientID {
	id := a.slab.Alloc()
	a.objs[id] = obj
	return id
}

// Get returns the live object for id, or (nil, false) if id is stale or
// never allocated — indistinguishable to the caller, as the spec permits.
func (a *Arena[T]) Get(id util.TransientID) (*T, bool) {
	if !a.slab.IsLive(id) {
		return nil, false
	}
	obj, ok := a.objs[id]
	return obj, ok
}

// Mutate records id's pre-mutation state in the snapshot (if this is the
// first touch since the open save point began), applies fn, and bumps the
// object's version past the snapshot's current version (§4.7).
func (a *Arena[T]) Mutate(id util.TransientID, fn func(*T)) bool {
	obj, ok := a.Get(id)
	if !ok {
		return false
	}
	a.snap.MaybeRecord(snapshot.ObjectID{Kind: int(a.kind), ID: id}, (*obj).Version(), *obj)
	fn(obj)
	(*obj).setVersion(a.snap.Version() + 1)
	return true
}

// Remove deletes id from the arena and frees its transient slot, first
// recording its state in the snapshot unconditionally (§4.7 — destruction
// always records, since there is no later chance to). Also drops any
// stable id mapping. Returns the removed object so the caller can cascade
// destruction to children (§3.4 top-down).
func (a *Arena[T]) Remove(id util.TransientID) (*T, bool) {
	obj, ok := a.objs[id]
	if !ok {
		return nil, false
	}
	a.snap.RecordOnDestroy(snapshot.ObjectID{Kind: int(a.kind), ID: id}, *obj)
	delete(a.objs, id)
	if sid, ok := a.transientToStable[id]; ok {
		delete(a.transientToStable, id)
		delete(a.stableToTransient, sid)
	}
	a.slab.Free(id)
	return obj, true
}

// Pin assigns a stable id to id on first call, and returns the existing one
// on subsequent calls (§3.4 — "assigned on demand, never reused").
func (a *Arena[T]) Pin(id util.TransientID) (util.StableID, bool) {
	if !a.slab.IsLive(id) {
		return util.UnsetStableID, false
	}
	if sid, ok := a.transientToStable[id]; ok {
		return sid, true
	}
	sid := a.stable.Pin()
	a.transientToStable[id] = sid
	a.stableToTransient[sid] = id
	return sid, true
}

// StableOf returns id's stable id, if pinned.
func (a *Arena[T]) StableOf(id util.TransientID) (util.StableID, bool) {
	sid, ok := a.transientToStable[id]
	return sid, ok
}

// ByStable resolves a stable id back to the currently-loaded transient id,
// if the object is loaded right now.
func (a *Arena[T]) ByStable(sid util.StableID) (util.TransientID, bool) {
	id, ok := a.stableToTransient[sid]
	return id, ok
}

// RestoreStable re-links a stable id to a freshly-imported transient id
// (bundle import path, §4.6) and advances the allocator past it.
func (a *Arena[T]) RestoreStable(id util.TransientID, sid util.StableID) {
	a.stable.Restore(sid)
	a.transientToStable[id] = sid
	a.stableToTransient[sid] = id
}

// Len reports the number of currently-live objects of this kind (§8.1 id
// uniqueness tests iterate this).
func (a *Arena[T]) Len() int { return len(a.objs) }

// Each iterates every live (id, object) pair. Order is unspecified.
func (a *Arena[T]) Each(fn func(util.TransientID, *T)) {
	for id, obj := range a.objs {
		fn(id, obj)
	}
}
