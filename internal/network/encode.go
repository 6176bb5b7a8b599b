package network

import (
	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// This file turns worldstore objects into the outbound wire opcodes a
// Session can hand to WriteFrame. Every LocalPos/LocalOffset/LocalTime
// here is already anchor-relative: the caller (internal/engine's dispatch
// loop) converts from world units before calling these, since only it
// knows each session's current anchor.

// EncodeInit opens a session: the pawn's stable id, starting position and
// server clock so the client can compute its own anchors.
func EncodeInit(pawnStable util.StableID, pos LocalPos, serverTimeMs int64) (Opcode, []byte) {
	w := &bufWriter{}
	w.u64(uint64(pawnStable))
	w.localPos(pos)
	w.u64(uint64(serverTimeMs))
	return OpInit, w.b
}

func EncodeKickReason(reason string) (Opcode, []byte) {
	w := &bufWriter{}
	w.str(reason)
	return OpKickReason, w.b
}

// EncodeSyncStatus reports Match/Conflict from §4.4's motion reconciliation.
func EncodeSyncStatus(conflict bool, serverPos LocalPos, serverVel LocalOffset) (Opcode, []byte) {
	w := &bufWriter{}
	if conflict {
		w.u8(1)
	} else {
		w.u8(0)
	}
	w.localPos(serverPos)
	w.localOffset(serverVel)
	return OpSyncStatus, w.b
}

func EncodeOpenDialog(kind uint8, payload []byte) (Opcode, []byte) {
	w := &bufWriter{}
	w.u8(kind)
	w.bytesField(payload)
	return OpOpenDialog, w.b
}

func EncodePlaneFlags(flags uint32) (Opcode, []byte) {
	w := &bufWriter{}
	w.u32(flags)
	return OpPlaneFlags, w.b
}

// EncodeTerrainChunk run-length-encodes the 4096-block array: a count of
// runs followed by (blockID uint16, runLength uint16) pairs. Flat chunks
// (the common case, per §8 test fixtures) collapse to a single run.
func EncodeTerrainChunk(pos vec.Vec2, chunk *worldstore.TerrainChunk) (Opcode, []byte) {
	w := &bufWriter{}
	w.i16(int16(pos.X))
	w.i16(int16(pos.Y))
	w.u8(uint8(chunk.Flags))

	runs := rleEncode(chunk.Blocks[:])
	w.u16(uint16(len(runs)))
	for _, r := range runs {
		w.u16(uint16(r.id))
		w.u16(r.length)
	}
	return OpTerrainChunk, w.b
}

type blockRun struct {
	id     catalog.BlockID
	length uint16
}

func rleEncode(blocks []catalog.BlockID) []blockRun {
	if len(blocks) == 0 {
		return nil
	}
	var runs []blockRun
	cur := blocks[0]
	n := uint16(1)
	for _, b := range blocks[1:] {
		if b == cur && n < 0xFFFF {
			n++
			continue
		}
		runs = append(runs, blockRun{id: cur, length: n})
		cur = b
		n = 1
	}
	runs = append(runs, blockRun{id: cur, length: n})
	return runs
}

func rleDecode(runs []blockRun, out []catalog.BlockID) {
	i := 0
	for _, r := range runs {
		for k := uint16(0); k < r.length && i < len(out); k++ {
			out[i] = r.id
			i++
		}
	}
}

func EncodeStructureAppear(sid util.StableID, s *worldstore.Structure) (Opcode, []byte) {
	w := &bufWriter{}
	w.u64(uint64(sid))
	w.u16(uint16(s.TemplateID))
	w.i16(int16(s.Pos.X))
	w.i16(int16(s.Pos.Y))
	w.i16(int16(s.Pos.Z))
	return OpStructureAppear, w.b
}

func EncodeStructureGone(sid util.StableID) (Opcode, []byte) {
	w := &bufWriter{}
	w.u64(uint64(sid))
	return OpStructureGone, w.b
}

func EncodeStructureReplace(sid util.StableID, s *worldstore.Structure) (Opcode, []byte) {
	w := &bufWriter{}
	w.u64(uint64(sid))
	w.u16(uint16(s.TemplateID))
	return OpStructureReplace, w.b
}

func EncodeEntityAppear(eid util.StableID, e *worldstore.Entity, pos LocalPos) (Opcode, []byte) {
	w := &bufWriter{}
	w.u64(uint64(eid))
	w.u16(uint16(e.AnimationID))
	w.u32(e.Appearance)
	w.localPos(pos)
	return OpEntityAppear, w.b
}

func EncodeEntityGone(eid util.StableID) (Opcode, []byte) {
	w := &bufWriter{}
	w.u64(uint64(eid))
	return OpEntityGone, w.b
}

// EncodeEntityMotionStart announces a new linear trajectory (no declared end).
func EncodeEntityMotionStart(eid util.StableID, startTime LocalTime, pos LocalPos, vel LocalOffset) (Opcode, []byte) {
	w := &bufWriter{}
	w.u64(uint64(eid))
	w.i16(int16(startTime))
	w.localPos(pos)
	w.localOffset(vel)
	return OpEntityMotionStart, w.b
}

// EncodeEntityMotionStartEnd announces a trajectory with a declared stop time.
func EncodeEntityMotionStartEnd(eid util.StableID, startTime, endTime LocalTime, pos LocalPos, vel LocalOffset) (Opcode, []byte) {
	w := &bufWriter{}
	w.u64(uint64(eid))
	w.i16(int16(startTime))
	w.i16(int16(endTime))
	w.localPos(pos)
	w.localOffset(vel)
	return OpEntityMotionStartEnd, w.b
}

func encodeInventorySlots(w *bufWriter, inv *worldstore.Inventory) {
	w.u16(uint16(len(inv.Slots)))
	for _, slot := range inv.Slots {
		w.u8(uint8(slot.Kind))
		switch slot.Kind {
		case worldstore.SlotBulk:
			w.u8(slot.Count)
			w.u16(uint16(slot.ItemID))
		case worldstore.SlotSpecial:
			w.u16(uint16(slot.ItemID))
			var tmp [4]byte
			putI32(tmp[:], slot.Param)
			w.b = append(w.b, tmp[:]...)
		}
	}
}

func putI32(b []byte, v int32) {
	u := uint32(v)
	b[0], b[1], b[2], b[3] = byte(u), byte(u>>8), byte(u>>16), byte(u>>24)
}

func EncodeInventoryAppear(iid util.StableID, inv *worldstore.Inventory) (Opcode, []byte) {
	w := &bufWriter{}
	w.u64(uint64(iid))
	encodeInventorySlots(w, inv)
	return OpInventoryAppear, w.b
}

func EncodeInventoryGone(iid util.StableID) (Opcode, []byte) {
	w := &bufWriter{}
	w.u64(uint64(iid))
	return OpInventoryGone, w.b
}

// EncodeInventoryUpdate carries just the slots listed in changed, not the
// whole inventory.
func EncodeInventoryUpdate(iid util.StableID, inv *worldstore.Inventory, changed []int) (Opcode, []byte) {
	w := &bufWriter{}
	w.u64(uint64(iid))
	w.u16(uint16(len(changed)))
	for _, idx := range changed {
		w.u16(uint16(idx))
		slot := inv.Slots[idx]
		w.u8(uint8(slot.Kind))
		w.u8(slot.Count)
		w.u16(uint16(slot.ItemID))
		var tmp [4]byte
		putI32(tmp[:], slot.Param)
		w.b = append(w.b, tmp[:]...)
	}
	return OpInventoryUpdate, w.b
}

func EncodeMainInventory(inv *worldstore.Inventory) (Opcode, []byte) {
	w := &bufWriter{}
	encodeInventorySlots(w, inv)
	return OpMainInventory, w.b
}

func EncodeAbilityInventory(inv *worldstore.Inventory) (Opcode, []byte) {
	w := &bufWriter{}
	encodeInventorySlots(w, inv)
	return OpAbilityInventory, w.b
}
