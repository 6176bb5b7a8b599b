package engine

import (
	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/annel0/mmo-game/internal/logging"
	"github.com/annel0/mmo-game/internal/network"
	"github.com/annel0/mmo-game/internal/physics"
	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/vision"
	"github.com/annel0/mmo-game/internal/werr"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// handleInbound dispatches one decoded message to its opcode handler. A
// session that sent something undecodable already closed in Session's own
// read loop (messages.go's DecodeInbound returned an error there); this
// switch only ever sees a successfully parsed *Msg value.
func (e *Engine) handleInbound(ev network.InboundEvent, now int64) {
	if ev.Err != nil {
		return
	}
	cs, ok := e.clients[ev.Session.ID]
	if !ok {
		return // message from a session whose connect callback hasn't run yet, or already disconnected
	}
	switch m := ev.Msg.(type) {
	case network.ReadyMsg:
		// No further action: Init already went out on connect.
	case network.PathStartMsg:
		e.handlePathStart(cs, m, now)
	case network.PathUpdateMsg:
		e.handlePathUpdate(cs, m, now)
	case network.PathBlockedMsg:
		e.handlePathBlocked(cs, m, now)
	case network.ChatMsg:
		logging.LogInfo("engine: chat from session %d: %s", ev.Session.ID, m.Text)
	case network.MoveItemMsg:
		e.handleMoveItem(cs, m)
	case network.CraftRecipeMsg:
		e.handleCraftRecipe(cs, m)
	case network.CloseDialogMsg:
		// Nothing to tear down server-side; the dialog state lives client-only.
	case network.InteractMsg, network.UseItemMsg, network.UseAbilityMsg, network.CreateCharacterMsg:
		// Routed to scripthost hooks once a script is registered for the
		// relevant verb; with no script host wired, these are no-ops.
	}
}

// handlePathStart applies a client-claimed trajectory, resetting the
// entity's motion to start now (§4.4 "the five-step update" operates on
// whatever TargetVelocity is current, so PathStart just sets it).
func (e *Engine) handlePathStart(cs *clientState, m network.PathStartMsg, now int64) {
	e.Store.Entities.Mutate(cs.pawnID, func(ent *worldstore.Entity) {
		ent.TargetVelocity = vec.Vec3Float{X: float64(m.Velocity.X), Y: float64(m.Velocity.Y), Z: float64(m.Velocity.Z)}
	})
}

func (e *Engine) handlePathUpdate(cs *clientState, m network.PathUpdateMsg, now int64) {
	claimed := vec.Vec3Float{X: float64(m.Velocity.X), Y: float64(m.Velocity.Y), Z: float64(m.Velocity.Z)}
	e.Store.Entities.Mutate(cs.pawnID, func(ent *worldstore.Entity) {
		ent.TargetVelocity = claimed
	})
}

func (e *Engine) handlePathBlocked(cs *clientState, m network.PathBlockedMsg, now int64) {
	ent, ok := e.Store.Entities.Get(cs.pawnID)
	if !ok {
		return
	}
	if physics.Diverges(ent.Motion.PositionAt(now), ent.Motion.StartPos, shapecacheTolerance) {
		cs.path.Reset()
		op, payload := network.EncodeSyncStatus(true, network.LocalPos{}, network.LocalOffset{})
		if err := cs.sess.Send(op, payload); err != nil {
			logging.LogError("engine: SyncStatus send failed for session %d: %v", cs.sess.ID, err)
		}
		return
	}
	e.Store.Entities.Mutate(cs.pawnID, func(ent *worldstore.Entity) {
		ent.TargetVelocity = vec.Vec3Float{}
	})
}

// shapecacheTolerance is the §4.4 desync threshold, in sub-voxel units.
const shapecacheTolerance = 64.0

func (e *Engine) handleMoveItem(cs *clientState, m network.MoveItemMsg) {
	fromID := util.TransientID(m.FromIID)
	toID := util.TransientID(m.ToIID)
	if err := e.Store.MoveItem(fromID, int(m.FromSlot), toID, int(m.ToSlot), m.Count); err != nil {
		logging.LogError("engine: MoveItem for session %d failed: %v", cs.sess.ID, err)
	}
}

// handleCraftRecipe validates ingredient availability, deducts them and
// adds the output — orchestration logic that sits above worldstore's
// structural primitives rather than a Store method (see recipeMatches).
func (e *Engine) handleCraftRecipe(cs *clientState, m network.CraftRecipeMsg) {
	def, ok := catalog.Recipe(m.RecipeID)
	if !ok {
		return
	}
	invID := util.TransientID(m.IID)
	inv, ok := e.Store.Inventories.Get(invID)
	if !ok {
		return
	}
	if !recipeMatches(inv, def, m.Count) {
		e.sendKick(cs, werr.New(werr.InvariantViolation, "engine.CraftRecipe", nil).Error())
		return
	}

	e.Store.Inventories.Mutate(invID, func(inv2 *worldstore.Inventory) {
		need := make(map[catalog.ItemID]int, len(def.Inputs))
		for id, n := range def.Inputs {
			need[id] = int(n) * int(m.Count)
		}
		for i := range inv2.Slots {
			slot := &inv2.Slots[i]
			if slot.Kind != worldstore.SlotBulk {
				continue
			}
			if remaining, ok := need[slot.ItemID]; ok && remaining > 0 {
				take := remaining
				if take > int(slot.Count) {
					take = int(slot.Count)
				}
				slot.Count -= uint8(take)
				need[slot.ItemID] -= take
				if slot.Count == 0 {
					*slot = worldstore.EmptySlot()
				}
			}
		}
		addBulk(inv2, def.Output, int(def.OutCount)*int(m.Count))
	})
}

// addBulk adds count units of id across as many slots as needed (each
// clamped at the catalog max), starting with existing compatible slots
// before spilling into empty ones; silently drops overflow once the
// inventory has no room left, matching the §3.2 clamp-at-MaxCount rule
// rather than erroring the whole craft. count is computed in int by the
// caller so def.OutCount*m.Count (both uint8, wire-controlled) can't wrap.
func addBulk(inv *worldstore.Inventory, id catalog.ItemID, count int) {
	max := int(catalog.Item(id).MaxCount)
	for i := range inv.Slots {
		slot := &inv.Slots[i]
		if slot.Kind == worldstore.SlotBulk && slot.ItemID == id && int(slot.Count) < max {
			room := max - int(slot.Count)
			if room > count {
				room = count
			}
			slot.Count += uint8(room)
			count -= room
			if count == 0 {
				return
			}
		}
	}
	for i := range inv.Slots {
		slot := &inv.Slots[i]
		if slot.Kind == worldstore.SlotEmpty {
			take := count
			if take > max {
				take = max
			}
			*slot = worldstore.BulkSlot(uint8(take), id)
			count -= take
			if count == 0 {
				return
			}
		}
	}
}

func (e *Engine) sendKick(cs *clientState, reason string) {
	op, payload := network.EncodeKickReason(reason)
	if err := cs.sess.Send(op, payload); err != nil {
		logging.LogError("engine: KickReason send failed for session %d: %v", cs.sess.ID, err)
	}
}

// netDispatcher implements vision.Dispatcher by translating appear/
// disappear/update notifications into outbound wire frames, computing
// each message's LocalPos/LocalOffset relative to the receiving
// subscriber's own pawn position (§6.1's "agreed anchor").
type netDispatcher struct {
	eng *Engine
}

func (d *netDispatcher) sessionFor(cid util.TransientID) (*network.Session, *clientState) {
	sessID, ok := d.eng.subscriberSession[cid]
	if !ok {
		return nil, nil
	}
	cs, ok := d.eng.clients[sessID]
	if !ok {
		return nil, nil
	}
	return cs.sess, cs
}

func (d *netDispatcher) anchorOf(cs *clientState) vec.Vec3Float {
	if ent, ok := d.eng.Store.Entities.Get(cs.pawnID); ok {
		return ent.Motion.StartPos
	}
	return vec.Vec3Float{}
}

func toLocalPos(anchor, pos vec.Vec3Float) network.LocalPos {
	rel := pos.Sub(anchor)
	return network.LocalPos{X: clampInt16(rel.X), Y: clampInt16(rel.Y), Z: clampInt16(rel.Z)}
}

func toLocalOffset(v vec.Vec3Float) network.LocalOffset {
	return network.LocalOffset{X: clampInt16(v.X), Y: clampInt16(v.Y), Z: clampInt16(v.Z)}
}

func clampInt16(f float64) int16 {
	switch {
	case f > 32767:
		return 32767
	case f < -32768:
		return -32768
	default:
		return int16(f)
	}
}

func (d *netDispatcher) send(sess *network.Session, op network.Opcode, payload []byte) {
	if err := sess.Send(op, payload); err != nil {
		logging.LogError("engine: dispatch send failed for session %d: %v", sess.ID, err)
	}
}

func (d *netDispatcher) OnAppear(cid util.TransientID, kind int, id util.TransientID) {
	sess, cs := d.sessionFor(cid)
	if sess == nil {
		return
	}
	switch kind {
	case vision.KindEntity:
		ent, ok := d.eng.Store.Entities.Get(id)
		if !ok {
			return
		}
		eStable, _ := d.eng.Store.Entities.StableOf(id)
		op, payload := network.EncodeEntityAppear(eStable, ent, toLocalPos(d.anchorOf(cs), ent.Motion.StartPos))
		d.send(sess, op, payload)
	case vision.KindStructure:
		s, ok := d.eng.Store.Structures.Get(id)
		if !ok {
			return
		}
		sStable, _ := d.eng.Store.Structures.StableOf(id)
		op, payload := network.EncodeStructureAppear(sStable, s)
		d.send(sess, op, payload)
	case vision.KindChunk:
		c, ok := d.eng.Store.Chunks.Get(id)
		if !ok {
			return
		}
		op, payload := network.EncodeTerrainChunk(c.Pos, c)
		d.send(sess, op, payload)
	}
}

func (d *netDispatcher) OnDisappear(cid util.TransientID, kind int, id util.TransientID) {
	sess, _ := d.sessionFor(cid)
	if sess == nil {
		return
	}
	switch kind {
	case vision.KindEntity:
		eStable, ok := d.eng.Store.Entities.StableOf(id)
		if !ok {
			return
		}
		op, payload := network.EncodeEntityGone(eStable)
		d.send(sess, op, payload)
	case vision.KindStructure:
		sStable, ok := d.eng.Store.Structures.StableOf(id)
		if !ok {
			return
		}
		op, payload := network.EncodeStructureGone(sStable)
		d.send(sess, op, payload)
	case vision.KindChunk:
		// Clients drop terrain they can no longer see locally; there is
		// no "forget this chunk" wire message in §6.1.
	}
}

func (d *netDispatcher) OnUpdate(cid util.TransientID, kind int, id util.TransientID) {
	sess, cs := d.sessionFor(cid)
	if sess == nil {
		return
	}
	if kind != vision.KindEntity {
		return
	}
	ent, ok := d.eng.Store.Entities.Get(id)
	if !ok {
		return
	}
	eStable, ok := d.eng.Store.Entities.StableOf(id)
	if !ok {
		return
	}
	anchor := d.anchorOf(cs)
	pos := toLocalPos(anchor, ent.Motion.StartPos)
	vel := toLocalOffset(ent.Motion.Velocity)
	if ent.Motion.HasEnd {
		op, payload := network.EncodeEntityMotionStartEnd(eStable, network.LocalTime(ent.Motion.StartTime), network.LocalTime(ent.Motion.EndTime), pos, vel)
		d.send(sess, op, payload)
		return
	}
	op, payload := network.EncodeEntityMotionStart(eStable, network.LocalTime(ent.Motion.StartTime), pos, vel)
	d.send(sess, op, payload)
}

// recipeMatches reports whether inv has at least count*ingredient of every
// recipe input (§6.1 CraftRecipe orchestration lives here rather than in
// worldstore, since it's game-design business logic layered on top of the
// store's structural primitives, not a structural invariant of its own).
func recipeMatches(inv *worldstore.Inventory, def catalog.RecipeDef, count uint8) bool {
	have := make(map[catalog.ItemID]int)
	for _, slot := range inv.Slots {
		if slot.Kind == worldstore.SlotBulk {
			have[slot.ItemID] += int(slot.Count)
		}
	}
	for id, need := range def.Inputs {
		if have[id] < int(need)*int(count) {
			return false
		}
	}
	return true
}
