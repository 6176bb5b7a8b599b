// Package extra implements the dynamic per-object metadata tree described
// in spec §9 ("Dynamic Extra values"): a tagged sum type carrying scalars,
// arrays, maps and typed ids, attached to every object in the world store.
//
// The teacher repo never formalizes this — it passes bare
// map[string]interface{} "Payload" fields around (world/entity/entity.go,
// world/block.go, network/message.go). Extra keeps that same shape at the
// edges (ToPayload/FromPayload round-trip through map[string]interface{})
// but gives it a real, serializable sum type in the middle so bundle export
// doesn't have to guess concrete Go types back out of an interface{}.
package extra

import (
	"encoding/json"
	"fmt"
)

// Kind tags the variant currently held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindArray
	KindHash
	KindStableClientID
	KindStableEntityID
	KindStableInventoryID
	KindStablePlaneID
	KindStableChunkID
	KindStableStructureID
)

// Value is a single node of the dynamic metadata tree.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string
	arr   []Value
	hash  map[string]Value
	stbID uint64
}

func Null() Value                  { return Value{kind: KindNull} }
func Bool(b bool) Value            { return Value{kind: KindBool, b: b} }
func Int(i int64) Value            { return Value{kind: KindInt, i: i} }
func Float(f float64) Value        { return Value{kind: KindFloat, f: f} }
func Str(s string) Value           { return Value{kind: KindStr, s: s} }
func Array(vs ...Value) Value      { return Value{kind: KindArray, arr: vs} }
func Hash(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindHash, hash: m}
}

// StableID wraps a persistent 64-bit id tagged by object kind (§3.1).
func StableID(kind Kind, id uint64) Value {
	return Value{kind: kind, stbID: id}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsBool() (bool, bool)       { return v.b, v.kind == KindBool }
func (v Value) AsInt() (int64, bool)       { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool)   { return v.f, v.kind == KindFloat }
func (v Value) AsStr() (string, bool)      { return v.s, v.kind == KindStr }
func (v Value) AsArray() ([]Value, bool)   { return v.arr, v.kind == KindArray }
func (v Value) AsHash() (map[string]Value, bool) {
	return v.hash, v.kind == KindHash
}
func (v Value) AsStableID() (uint64, bool) {
	switch v.kind {
	case KindStableClientID, KindStableEntityID, KindStableInventoryID,
		KindStablePlaneID, KindStableChunkID, KindStableStructureID:
		return v.stbID, true
	}
	return 0, false
}

// Get resolves a "." separated path against Hash nodes and integer indices
// against Array nodes (e.g. "inventory.0.count"). Missing path segments
// return Null and ok=false, never panic — callers treat a missing Extra
// value the same as an explicit Null.
func (v Value) Get(path string) (Value, bool) {
	if path == "" {
		return v, true
	}
	head, rest := splitPath(path)
	switch v.kind {
	case KindHash:
		child, ok := v.hash[head]
		if !ok {
			return Null(), false
		}
		return child.Get(rest)
	case KindArray:
		idx, err := parseIndex(head)
		if err != nil || idx < 0 || idx >= len(v.arr) {
			return Null(), false
		}
		return v.arr[idx].Get(rest)
	default:
		return Null(), false
	}
}

// Set writes a value at path, creating intermediate Hash nodes as needed.
// Set only works in-place on Hash nodes (Array nodes are fixed-size once
// created, matching the spec's "recursive serialize/deserialize" model
// where arrays come from bundle import, not incremental mutation).
func (v *Value) Set(path string, val Value) error {
	if v.kind != KindHash {
		return fmt.Errorf("extra: Set requires a Hash root, got kind %d", v.kind)
	}
	head, rest := splitPath(path)
	if rest == "" {
		v.hash[head] = val
		return nil
	}
	child, ok := v.hash[head]
	if !ok || child.kind != KindHash {
		child = Hash(nil)
	}
	if err := child.Set(rest, val); err != nil {
		return err
	}
	v.hash[head] = child
	return nil
}

func splitPath(path string) (head, rest string) {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return path[:i], path[i+1:]
		}
	}
	return path, ""
}

func parseIndex(s string) (int, error) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("extra: not a numeric index: %q", s)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// ToPayload flattens Value into the plain map[string]interface{} shape the
// teacher's wire/storage code already expects, so network and storage
// layers never need to know about the tagged union directly.
func (v Value) ToPayload() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindStr:
		return v.s
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.ToPayload()
		}
		return out
	case KindHash:
		out := make(map[string]interface{}, len(v.hash))
		for k, e := range v.hash {
			out[k] = e.ToPayload()
		}
		return out
	default:
		id, _ := v.AsStableID()
		return map[string]interface{}{"__stable_kind": int(v.kind), "__stable_id": id}
	}
}

// FromPayload lifts a plain JSON-ish value (map[string]interface{},
// []interface{}, string, float64/int, bool, nil) back into a Value tree.
func FromPayload(p interface{}) Value {
	switch x := p.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int64:
		return Int(x)
	case float64:
		return Float(x)
	case string:
		return Str(x)
	case []interface{}:
		arr := make([]Value, len(x))
		for i, e := range x {
			arr[i] = FromPayload(e)
		}
		return Array(arr...)
	case map[string]interface{}:
		if kindRaw, ok := x["__stable_kind"]; ok {
			if idRaw, ok2 := x["__stable_id"]; ok2 {
				kind := Kind(toInt(kindRaw))
				return StableID(kind, uint64(toInt(idRaw)))
			}
		}
		h := make(map[string]Value, len(x))
		for k, e := range x {
			h[k] = FromPayload(e)
		}
		return Hash(h)
	default:
		return Null()
	}
}

func toInt(v interface{}) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case uint64:
		return int64(x)
	case float64:
		return int64(x)
	}
	return 0
}

// MarshalJSON / UnmarshalJSON let Extra trees ride inside the teacher's
// existing JSON-based wire/log structures unchanged.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToPayload())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var p interface{}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = FromPayload(p)
	return nil
}
