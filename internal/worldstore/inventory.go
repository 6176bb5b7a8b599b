package worldstore

import (
	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/annel0/mmo-game/internal/extra"
)

// SlotKind tags an inventory slot's variant (§3.2).
type SlotKind uint8

const (
	SlotEmpty SlotKind = iota
	SlotBulk
	SlotSpecial
)

// Item is one inventory slot: Empty, Bulk(count, item) or Special(param, item).
type Item struct {
	Kind   SlotKind
	Count  uint8 // Bulk only, clamped to [0,255]
	ItemID catalog.ItemID
	Param  int32 // Special only
}

func EmptySlot() Item { return Item{Kind: SlotEmpty} }

func BulkSlot(count uint8, id catalog.ItemID) Item {
	return Item{Kind: SlotBulk, Count: count, ItemID: id}
}

func SpecialSlot(param int32, id catalog.ItemID) Item {
	return Item{Kind: SlotSpecial, Param: param, ItemID: id}
}

// Inventory is a fixed-size ordered sequence of Item slots (§3.2).
// Attachment ∈ {World, Client(cid), Entity(eid), Structure(sid)}.
type Inventory struct {
	ver uint64

	Slots      []Item
	Attachment Attachment
	Extra      extra.Value
}

func NewInventory(size int) *Inventory {
	return &Inventory{
		Slots: make([]Item, size),
		Extra: extra.Hash(nil),
	}
}

func (inv *Inventory) Version() uint64     { return inv.ver }
func (inv *Inventory) setVersion(v uint64) { inv.ver = v }

func (inv *Inventory) Clone() interface{} {
	cp := *inv
	cp.Slots = append([]Item(nil), inv.Slots...)
	return &cp
}
