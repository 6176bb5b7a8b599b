package engine

import (
	"net"
	"testing"

	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/annel0/mmo-game/internal/network"
	"github.com/annel0/mmo-game/internal/worldstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMoveItemMovesBetweenInventories(t *testing.T) {
	store := worldstore.New()
	e := &Engine{Store: store}

	clientID := store.CreateClient("a")
	fromID, err := store.CreateInventory(4, worldstore.Attachment{Kind: worldstore.AttachClient, ID: clientID})
	require.NoError(t, err)
	toID, err := store.CreateInventory(4, worldstore.Attachment{Kind: worldstore.AttachClient, ID: clientID})
	require.NoError(t, err)

	store.Inventories.Mutate(fromID, func(inv *worldstore.Inventory) {
		inv.Slots[0] = worldstore.BulkSlot(5, catalog.WoodID)
	})

	clientConn, _ := net.Pipe()
	sess := network.NewSession(1, clientConn, nil)
	cs := &clientState{sess: sess}

	e.handleMoveItem(cs, network.MoveItemMsg{FromIID: uint32(fromID), FromSlot: 0, ToIID: uint32(toID), ToSlot: 0, Count: 3})

	from, _ := store.Inventories.Get(fromID)
	to, _ := store.Inventories.Get(toID)
	assert.Equal(t, uint8(2), from.Slots[0].Count)
	assert.Equal(t, uint8(3), to.Slots[0].Count)
	assert.Equal(t, catalog.WoodID, to.Slots[0].ItemID)
}

func TestRecipeMatchesChecksIngredientCounts(t *testing.T) {
	inv := &worldstore.Inventory{Slots: []worldstore.Item{
		worldstore.BulkSlot(2, catalog.WoodID),
	}}
	def, ok := catalog.Recipe(1)
	require.True(t, ok)

	assert.True(t, recipeMatches(inv, def, 1))
	assert.False(t, recipeMatches(inv, def, 3))
}

func TestAddBulkFillsPartialSlotBeforeEmpty(t *testing.T) {
	inv := &worldstore.Inventory{Slots: []worldstore.Item{
		worldstore.BulkSlot(250, catalog.StoneItem),
		worldstore.EmptySlot(),
	}}
	addBulk(inv, catalog.StoneItem, 10)

	assert.Equal(t, uint8(255), inv.Slots[0].Count)
	assert.Equal(t, worldstore.SlotBulk, inv.Slots[1].Kind)
	assert.Equal(t, uint8(5), inv.Slots[1].Count)
}

func TestClampInt16SaturatesOutOfRange(t *testing.T) {
	assert.Equal(t, int16(32767), clampInt16(1e9))
	assert.Equal(t, int16(-32768), clampInt16(-1e9))
	assert.Equal(t, int16(42), clampInt16(42))
}
