package network

import (
	"testing"

	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInboundMoveItemRoundTrip(t *testing.T) {
	want := MoveItemMsg{FromIID: 7, FromSlot: 2, ToIID: 9, ToSlot: 0, Count: 5}
	op, payload := EncodeInbound(want)
	assert.Equal(t, OpMoveItem, op)

	got, err := DecodeInbound(Frame{Op: op, Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeInboundChatRejectsInvalidUTF8(t *testing.T) {
	w := &bufWriter{}
	w.u16(3)
	w.b = append(w.b, 0xFF, 0xFE, 0xFD)

	_, err := DecodeInbound(Frame{Op: OpChat, Payload: w.b})
	assert.ErrorIs(t, err, ErrBadString)
}

func TestDecodeInboundCraftRecipeRoundTrip(t *testing.T) {
	want := CraftRecipeMsg{StationSID: 42, IID: 3, RecipeID: catalog.RecipeID(12), Count: 2}
	op, payload := EncodeInbound(want)

	got, err := DecodeInbound(Frame{Op: op, Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeInboundUnknownOpcodeErrors(t *testing.T) {
	_, err := DecodeInbound(Frame{Op: Opcode(200), Payload: nil})
	assert.Error(t, err)
}

func TestDecodeInboundPathStartRoundTrip(t *testing.T) {
	want := PathStartMsg{
		Pos:       LocalPos{X: 10, Y: 20, Z: 30},
		DelayMs:   150,
		Velocity:  LocalOffset{X: 1, Y: 0, Z: -1},
		InputBits: 0x0F,
	}
	op, payload := EncodeInbound(want)
	got, err := DecodeInbound(Frame{Op: op, Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
