package bundle

import "github.com/annel0/mmo-game/internal/werr"

// This file holds the per-kind record encoders/decoders. Every section is
// framed as a uint32 record count followed by that many fixed-then-varying
// field records, 4-byte aligned after the section closes (§4.6).

func encodeAttach(w *writer, a AttachRecord) {
	w.u8(a.Kind)
	w.u32(uint32(a.Ref))
}

func decodeAttach(r *reader) (AttachRecord, error) {
	kind, err := r.u8()
	if err != nil {
		return AttachRecord{}, err
	}
	ref, err := r.u32()
	if err != nil {
		return AttachRecord{}, err
	}
	return AttachRecord{Kind: kind, Ref: LocalRef(ref)}, nil
}

func refsToU32(in []LocalRef) []uint32 {
	out := make([]uint32, len(in))
	for i, v := range in {
		out[i] = uint32(v)
	}
	return out
}

func u32ToRefs(in []uint32) []LocalRef {
	out := make([]LocalRef, len(in))
	for i, v := range in {
		out[i] = LocalRef(v)
	}
	return out
}

// ---- Client ----

func encodeClients(w *writer, recs []ClientRecord) {
	w.u32(uint32(len(recs)))
	for _, c := range recs {
		w.u64(c.StableID)
		w.str(c.DisplayName)
		w.u32(uint32(c.Pawn))
		w.refs(refsToU32(c.ChildEntities))
		w.refs(refsToU32(c.ChildInventories))
		w.bytesField(c.Extra)
	}
	w.align4()
}

func decodeClients(r *reader) ([]ClientRecord, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if n > maxReasonableCount {
		return nil, werrTooLarge()
	}
	out := make([]ClientRecord, n)
	for i := range out {
		var c ClientRecord
		if c.StableID, err = r.u64(); err != nil {
			return nil, err
		}
		if c.DisplayName, err = r.str(); err != nil {
			return nil, err
		}
		pawn, err := r.u32()
		if err != nil {
			return nil, err
		}
		c.Pawn = LocalRef(pawn)
		ents, err := r.refs()
		if err != nil {
			return nil, err
		}
		c.ChildEntities = u32ToRefs(ents)
		invs, err := r.refs()
		if err != nil {
			return nil, err
		}
		c.ChildInventories = u32ToRefs(invs)
		if c.Extra, err = r.bytesField(); err != nil {
			return nil, err
		}
		out[i] = c
	}
	if err := r.align4(); err != nil {
		return nil, err
	}
	return out, nil
}

// ---- Entity ----

func encodeEntities(w *writer, recs []EntityRecord) {
	w.u32(uint32(len(recs)))
	for _, e := range recs {
		w.u64(e.StableID)
		w.u64(e.StablePlane)
		encodeAttach(w, e.Attach)
		for _, v := range e.StartPos {
			w.f64(v)
		}
		for _, v := range e.Velocity {
			w.f64(v)
		}
		w.i64(e.StartTime)
		w.bool(e.HasEnd)
		w.i64(e.EndTime)
		w.f64(e.FacingX)
		w.f64(e.FacingY)
		w.i32(int32(e.AnimName))
		w.u32(e.Appearance)
		for _, v := range e.TargetVelocity {
			w.f64(v)
		}
		for _, v := range e.Size {
			w.f64(v)
		}
		w.refs(refsToU32(e.ChildInventories))
		w.bytesField(e.Extra)
	}
	w.align4()
}

func decodeEntities(r *reader) ([]EntityRecord, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if n > maxReasonableCount {
		return nil, werrTooLarge()
	}
	out := make([]EntityRecord, n)
	for i := range out {
		var e EntityRecord
		if e.StableID, err = r.u64(); err != nil {
			return nil, err
		}
		if e.StablePlane, err = r.u64(); err != nil {
			return nil, err
		}
		if e.Attach, err = decodeAttach(r); err != nil {
			return nil, err
		}
		for j := range e.StartPos {
			if e.StartPos[j], err = r.f64(); err != nil {
				return nil, err
			}
		}
		for j := range e.Velocity {
			if e.Velocity[j], err = r.f64(); err != nil {
				return nil, err
			}
		}
		if e.StartTime, err = r.i64(); err != nil {
			return nil, err
		}
		if e.HasEnd, err = r.boolean(); err != nil {
			return nil, err
		}
		if e.EndTime, err = r.i64(); err != nil {
			return nil, err
		}
		if e.FacingX, err = r.f64(); err != nil {
			return nil, err
		}
		if e.FacingY, err = r.f64(); err != nil {
			return nil, err
		}
		anim, err := r.i32()
		if err != nil {
			return nil, err
		}
		e.AnimName = int(anim)
		if e.Appearance, err = r.u32(); err != nil {
			return nil, err
		}
		for j := range e.TargetVelocity {
			if e.TargetVelocity[j], err = r.f64(); err != nil {
				return nil, err
			}
		}
		for j := range e.Size {
			if e.Size[j], err = r.f64(); err != nil {
				return nil, err
			}
		}
		invs, err := r.refs()
		if err != nil {
			return nil, err
		}
		e.ChildInventories = u32ToRefs(invs)
		if e.Extra, err = r.bytesField(); err != nil {
			return nil, err
		}
		out[i] = e
	}
	if err := r.align4(); err != nil {
		return nil, err
	}
	return out, nil
}

// ---- Inventory ----

func encodeInventories(w *writer, recs []InventoryRecord) {
	w.u32(uint32(len(recs)))
	for _, inv := range recs {
		w.u64(inv.StableID)
		encodeAttach(w, inv.Attach)
		w.u32(uint32(len(inv.Slots)))
		for _, slot := range inv.Slots {
			w.u8(slot.Kind)
			w.u8(slot.Count)
			w.i32(int32(slot.ItemName))
			w.i32(slot.Param)
		}
		w.bytesField(inv.Extra)
	}
	w.align4()
}

func decodeInventories(r *reader) ([]InventoryRecord, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if n > maxReasonableCount {
		return nil, werrTooLarge()
	}
	out := make([]InventoryRecord, n)
	for i := range out {
		var inv InventoryRecord
		if inv.StableID, err = r.u64(); err != nil {
			return nil, err
		}
		if inv.Attach, err = decodeAttach(r); err != nil {
			return nil, err
		}
		slotCount, err := r.u32()
		if err != nil {
			return nil, err
		}
		if slotCount > maxReasonableCount {
			return nil, werrTooLarge()
		}
		inv.Slots = make([]SlotRecord, slotCount)
		for j := range inv.Slots {
			var s SlotRecord
			if s.Kind, err = r.u8(); err != nil {
				return nil, err
			}
			if s.Count, err = r.u8(); err != nil {
				return nil, err
			}
			itemName, err := r.i32()
			if err != nil {
				return nil, err
			}
			s.ItemName = int(itemName)
			if s.Param, err = r.i32(); err != nil {
				return nil, err
			}
			inv.Slots[j] = s
		}
		if inv.Extra, err = r.bytesField(); err != nil {
			return nil, err
		}
		out[i] = inv
	}
	if err := r.align4(); err != nil {
		return nil, err
	}
	return out, nil
}

// ---- Plane ----

func encodePlanes(w *writer, recs []PlaneRecord) {
	w.u32(uint32(len(recs)))
	for _, p := range recs {
		w.u64(p.StableID)
		w.str(p.Name)
		w.u32(uint32(len(p.SavedChunkPos)))
		for i, pos := range p.SavedChunkPos {
			w.i32(pos[0])
			w.i32(pos[1])
			w.u64(p.SavedChunkStable[i])
		}
	}
	w.align4()
}

func decodePlanes(r *reader) ([]PlaneRecord, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if n > maxReasonableCount {
		return nil, werrTooLarge()
	}
	out := make([]PlaneRecord, n)
	for i := range out {
		var p PlaneRecord
		if p.StableID, err = r.u64(); err != nil {
			return nil, err
		}
		if p.Name, err = r.str(); err != nil {
			return nil, err
		}
		cnt, err := r.u32()
		if err != nil {
			return nil, err
		}
		if cnt > maxReasonableCount {
			return nil, werrTooLarge()
		}
		p.SavedChunkPos = make([][2]int32, cnt)
		p.SavedChunkStable = make([]uint64, cnt)
		for j := uint32(0); j < cnt; j++ {
			x, err := r.i32()
			if err != nil {
				return nil, err
			}
			y, err := r.i32()
			if err != nil {
				return nil, err
			}
			sid, err := r.u64()
			if err != nil {
				return nil, err
			}
			p.SavedChunkPos[j] = [2]int32{x, y}
			p.SavedChunkStable[j] = sid
		}
		out[i] = p
	}
	if err := r.align4(); err != nil {
		return nil, err
	}
	return out, nil
}

// ---- TerrainChunk ----

func encodeChunks(w *writer, recs []ChunkRecord) {
	w.u32(uint32(len(recs)))
	for _, c := range recs {
		w.u64(c.StableID)
		w.u64(c.StablePlane)
		w.i32(c.Pos[0])
		w.i32(c.Pos[1])
		w.u8(c.Flags)
		w.u32(uint32(len(c.BlockNames)))
		for _, idx := range c.BlockNames {
			w.i32(int32(idx))
		}
		w.refs(refsToU32(c.ChildStructures))
		w.refs(refsToU32(c.ChildEntities))
		w.bytesField(c.Extra)
	}
	w.align4()
}

func decodeChunks(r *reader) ([]ChunkRecord, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if n > maxReasonableCount {
		return nil, werrTooLarge()
	}
	out := make([]ChunkRecord, n)
	for i := range out {
		var c ChunkRecord
		if c.StableID, err = r.u64(); err != nil {
			return nil, err
		}
		if c.StablePlane, err = r.u64(); err != nil {
			return nil, err
		}
		if c.Pos[0], err = r.i32(); err != nil {
			return nil, err
		}
		if c.Pos[1], err = r.i32(); err != nil {
			return nil, err
		}
		if c.Flags, err = r.u8(); err != nil {
			return nil, err
		}
		blockCount, err := r.u32()
		if err != nil {
			return nil, err
		}
		if blockCount != 4096 {
			return nil, werrBadLength()
		}
		c.BlockNames = make([]int, blockCount)
		for j := range c.BlockNames {
			v, err := r.i32()
			if err != nil {
				return nil, err
			}
			c.BlockNames[j] = int(v)
		}
		structs, err := r.refs()
		if err != nil {
			return nil, err
		}
		c.ChildStructures = u32ToRefs(structs)
		ents, err := r.refs()
		if err != nil {
			return nil, err
		}
		c.ChildEntities = u32ToRefs(ents)
		if c.Extra, err = r.bytesField(); err != nil {
			return nil, err
		}
		out[i] = c
	}
	if err := r.align4(); err != nil {
		return nil, err
	}
	return out, nil
}

// ---- Structure ----

func encodeStructures(w *writer, recs []StructureRecord) {
	w.u32(uint32(len(recs)))
	for _, s := range recs {
		w.u64(s.StableID)
		w.i32(int32(s.TemplateName))
		w.i32(s.Pos[0])
		w.i32(s.Pos[1])
		w.i32(s.Pos[2])
		w.u64(s.StablePlane)
		encodeAttach(w, s.Attach)
		w.refs(refsToU32(s.ChildInventories))
		w.bytesField(s.Extra)
	}
	w.align4()
}

func decodeStructures(r *reader) ([]StructureRecord, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if n > maxReasonableCount {
		return nil, werrTooLarge()
	}
	out := make([]StructureRecord, n)
	for i := range out {
		var s StructureRecord
		if s.StableID, err = r.u64(); err != nil {
			return nil, err
		}
		tmplName, err := r.i32()
		if err != nil {
			return nil, err
		}
		s.TemplateName = int(tmplName)
		if s.Pos[0], err = r.i32(); err != nil {
			return nil, err
		}
		if s.Pos[1], err = r.i32(); err != nil {
			return nil, err
		}
		if s.Pos[2], err = r.i32(); err != nil {
			return nil, err
		}
		if s.StablePlane, err = r.u64(); err != nil {
			return nil, err
		}
		if s.Attach, err = decodeAttach(r); err != nil {
			return nil, err
		}
		invs, err := r.refs()
		if err != nil {
			return nil, err
		}
		s.ChildInventories = u32ToRefs(invs)
		if s.Extra, err = r.bytesField(); err != nil {
			return nil, err
		}
		out[i] = s
	}
	if err := r.align4(); err != nil {
		return nil, err
	}
	return out, nil
}

func werrTooLarge() error { return werr.Bundle("record count too large", errBadLength) }

func werrBadLength() error { return werr.Bundle("inconsistent length prefix", errBadLength) }
