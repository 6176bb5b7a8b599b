package bundle

import (
	"github.com/annel0/mmo-game/internal/werr"
	"github.com/segmentio/fasthash/fnv1a"
)

// StringTable interns a set of strings into a stable index order, so a
// record can reference "animation #3" instead of repeating "walk" in every
// entity record, and so import can remap a foreign table's names back to
// local catalog ids by name instead of trusting the foreign integer id
// (§4.6).
type StringTable struct {
	values []string
	index  map[uint64]int // fnv1a hash of the string -> position in values
}

func NewStringTable() *StringTable {
	return &StringTable{index: make(map[uint64]int)}
}

// Intern returns s's index in the table, appending it if this is the first
// occurrence. Hash collisions between distinct strings are resolved by a
// direct compare against the stored value at the hashed slot.
func (t *StringTable) Intern(s string) int {
	h := fnv1a.HashString64(s)
	if i, ok := t.index[h]; ok && t.values[i] == s {
		return i
	}
	i := len(t.values)
	t.values = append(t.values, s)
	t.index[h] = i
	return i
}

func (t *StringTable) At(i int) (string, bool) {
	if i < 0 || i >= len(t.values) {
		return "", false
	}
	return t.values[i], true
}

func (t *StringTable) Len() int { return len(t.values) }

func (t *StringTable) encode(w *writer) {
	w.u32(uint32(len(t.values)))
	for _, s := range t.values {
		w.str(s)
	}
}

func decodeStringTable(r *reader) (*StringTable, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if n > maxReasonableCount {
		return nil, werr.Bundle("string table too large", errBadLength)
	}
	t := NewStringTable()
	for i := uint32(0); i < n; i++ {
		s, err := r.str()
		if err != nil {
			return nil, err
		}
		t.Intern(s)
	}
	return t, nil
}
