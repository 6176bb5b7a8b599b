// Package snapshot implements the copy-on-write save-point capture from
// spec §4.7: between begin() and end(), the first mutation of any object
// records its pre-mutation state; later mutations in the same window are
// no-ops against the snapshot.
//
// Grounded on the teacher's dirty-tracking idiom in world/chunk.go
// (ChangeCounter/Changes3D, a version-stamped "has this been touched since
// X" check) generalized into the spec's version-counter snapshot.
package snapshot

import (
	"sync"

	"github.com/annel0/mmo-game/internal/util"
)

// Snapshotted is anything the snapshot can capture: the worldstore's
// objects all implement this by returning a deep copy of themselves.
type Snapshotted interface {
	Clone() interface{}
}

// ObjectID addresses one object: its kind (an arena index assigned by
// worldstore) plus its transient id within that kind.
type ObjectID struct {
	Kind int
	ID   util.TransientID
}

// Snapshot is the save-point capture buffer. A single instance is shared by
// the whole worldstore; begin/end bracket one save point.
type Snapshot struct {
	mu      sync.Mutex
	version uint64
	active  bool
	filter  util.KindFilter
	pre     map[ObjectID]interface{}
}

func New() *Snapshot {
	return &Snapshot{filter: util.AllKinds()}
}

// Version returns the current save-point version; object.version fields
// are compared against this to decide whether a capture is still owed.
func (s *Snapshot) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// SetFilter restricts capture to the given kinds; only affects future
// MaybeRecord calls, not anything already captured in the open window.
func (s *Snapshot) SetFilter(f util.KindFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// Begin starts a new save point: bumps the version and allocates a fresh
// capture map. Returns the version, which callers stamp onto objects they
// touch during this window via MaybeRecord.
func (s *Snapshot) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.active = true
	s.pre = make(map[ObjectID]interface{})
	return s.version
}

// End closes the save point, dropping the capture map. The caller is
// expected to have already drained Captured() for anything it needs to
// persist — after End, the data is gone.
func (s *Snapshot) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.pre = nil
}

// MaybeRecord is called by every mutating accessor before it changes a
// field, and unconditionally on destruction (§4.7). objVersion is the
// object's own version counter; if objVersion <= the snapshot's version,
// this is the first touch since Begin and obj's pre-mutation state is
// captured. Returns the version the caller should stamp onto the object
// afterward (objVersion+1 semantics are the caller's responsibility; this
// only decides whether to capture).
func (s *Snapshot) MaybeRecord(id ObjectID, objVersion uint64, obj Snapshotted) (captured bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	if !s.filter.Allows(id.Kind) {
		return false
	}
	if objVersion > s.version {
		return false // already captured earlier in this window
	}
	if _, exists := s.pre[id]; exists {
		return false
	}
	s.pre[id] = obj.Clone()
	return true
}

// RecordOnDestroy is MaybeRecord's unconditional sibling: destruction
// always records the pre-destruction state regardless of version, because
// the object is about to stop existing and there will be no later chance
// (§4.7). Every child of a recursively destroyed parent is recorded
// individually: worldstore.Store.destroyObject removes the parent first and
// then each child, each through Arena.Remove, which calls this. The capture
// map keeps no order.
func (s *Snapshot) RecordOnDestroy(id ObjectID, obj Snapshotted) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || !s.filter.Allows(id.Kind) {
		return
	}
	if _, exists := s.pre[id]; exists {
		return
	}
	s.pre[id] = obj.Clone()
}

// Get returns the captured pre-mutation state for id, if any was recorded
// in the current window.
func (s *Snapshot) Get(id ObjectID) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pre == nil {
		return nil, false
	}
	v, ok := s.pre[id]
	return v, ok
}

// Captured returns every (id, pre-mutation state) pair recorded so far in
// the current window — the set a save operation persists.
func (s *Snapshot) Captured() map[ObjectID]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[ObjectID]interface{}, len(s.pre))
	for k, v := range s.pre {
		out[k] = v
	}
	return out
}
