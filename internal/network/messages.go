package network

import (
	"unicode/utf8"

	"github.com/annel0/mmo-game/internal/catalog"
)

// ---- Inbound message payloads (§6.1 table, client -> server) ----

type ReadyMsg struct{}

type InputMsg struct {
	Time      LocalTime
	InputBits uint32
}

type PathStartMsg struct {
	Pos       LocalPos
	DelayMs   uint16
	Velocity  LocalOffset
	InputBits uint32
}

type PathUpdateMsg struct {
	RelTime   LocalTime
	Velocity  LocalOffset
	InputBits uint32
}

type PathBlockedMsg struct {
	RelTime LocalTime
}

type InteractMsg struct {
	Args []byte
}

type UseItemMsg struct {
	ItemID catalog.ItemID
	Args   []byte
}

type UseAbilityMsg struct {
	ItemID catalog.ItemID
	Args   []byte
}

type ChatMsg struct {
	Text string
}

type MoveItemMsg struct {
	FromIID  uint32
	FromSlot uint16
	ToIID    uint32
	ToSlot   uint16
	Count    uint8
}

type CraftRecipeMsg struct {
	StationSID uint64
	IID        uint32
	RecipeID   catalog.RecipeID
	Count      uint8
}

type CloseDialogMsg struct{}

type CreateCharacterMsg struct {
	Appearance uint32
}

// DecodeInbound parses an inbound Frame's payload into the concrete
// message type for its opcode. Returns an error for any opcode this
// session shouldn't be receiving, any payload too short for its fields,
// or a string field that isn't valid UTF-8 (§4.6-style strictness, though
// this is the client wire path rather than the bundle codec).
func DecodeInbound(f Frame) (interface{}, error) {
	r := newBufReader(f.Payload)
	switch f.Op {
	case OpReady:
		return ReadyMsg{}, nil
	case OpInput:
		t, err := r.i16()
		if err != nil {
			return nil, err
		}
		bits, err := r.u32()
		if err != nil {
			return nil, err
		}
		return InputMsg{Time: LocalTime(t), InputBits: bits}, nil
	case OpPathStart:
		pos, err := r.localPos()
		if err != nil {
			return nil, err
		}
		delay, err := r.u16()
		if err != nil {
			return nil, err
		}
		vel, err := r.localOffset()
		if err != nil {
			return nil, err
		}
		bits, err := r.u32()
		if err != nil {
			return nil, err
		}
		return PathStartMsg{Pos: pos, DelayMs: delay, Velocity: vel, InputBits: bits}, nil
	case OpPathUpdate:
		t, err := r.i16()
		if err != nil {
			return nil, err
		}
		vel, err := r.localOffset()
		if err != nil {
			return nil, err
		}
		bits, err := r.u32()
		if err != nil {
			return nil, err
		}
		return PathUpdateMsg{RelTime: LocalTime(t), Velocity: vel, InputBits: bits}, nil
	case OpPathBlocked:
		t, err := r.i16()
		if err != nil {
			return nil, err
		}
		return PathBlockedMsg{RelTime: LocalTime(t)}, nil
	case OpInteract:
		args, err := r.bytesField()
		if err != nil {
			return nil, err
		}
		return InteractMsg{Args: args}, nil
	case OpUseItem:
		id, err := r.u16()
		if err != nil {
			return nil, err
		}
		args, err := r.bytesField()
		if err != nil {
			return nil, err
		}
		return UseItemMsg{ItemID: catalog.ItemID(id), Args: args}, nil
	case OpUseAbility:
		id, err := r.u16()
		if err != nil {
			return nil, err
		}
		args, err := r.bytesField()
		if err != nil {
			return nil, err
		}
		return UseAbilityMsg{ItemID: catalog.ItemID(id), Args: args}, nil
	case OpChat:
		s, err := r.str()
		if err != nil {
			return nil, err
		}
		if !utf8.ValidString(s) {
			return nil, ErrBadString
		}
		return ChatMsg{Text: s}, nil
	case OpMoveItem:
		fromIID, err := r.u32()
		if err != nil {
			return nil, err
		}
		fromSlot, err := r.u16()
		if err != nil {
			return nil, err
		}
		toIID, err := r.u32()
		if err != nil {
			return nil, err
		}
		toSlot, err := r.u16()
		if err != nil {
			return nil, err
		}
		count, err := r.u8()
		if err != nil {
			return nil, err
		}
		return MoveItemMsg{FromIID: fromIID, FromSlot: fromSlot, ToIID: toIID, ToSlot: toSlot, Count: count}, nil
	case OpCraftRecipe:
		station, err := r.u64()
		if err != nil {
			return nil, err
		}
		iid, err := r.u32()
		if err != nil {
			return nil, err
		}
		recipe, err := r.u16()
		if err != nil {
			return nil, err
		}
		count, err := r.u8()
		if err != nil {
			return nil, err
		}
		return CraftRecipeMsg{StationSID: station, IID: iid, RecipeID: catalog.RecipeID(recipe), Count: count}, nil
	case OpCloseDialog:
		return CloseDialogMsg{}, nil
	case OpCreateCharacter:
		appearance, err := r.u32()
		if err != nil {
			return nil, err
		}
		return CreateCharacterMsg{Appearance: appearance}, nil
	default:
		return nil, ErrShortPayload
	}
}

// EncodeInbound is DecodeInbound's counterpart, used by this package's
// tests to build inbound payloads without a real client.
func EncodeInbound(msg interface{}) (Opcode, []byte) {
	w := &bufWriter{}
	switch m := msg.(type) {
	case ReadyMsg:
		return OpReady, nil
	case InputMsg:
		w.i16(int16(m.Time))
		w.u32(m.InputBits)
		return OpInput, w.b
	case PathStartMsg:
		w.localPos(m.Pos)
		w.u16(m.DelayMs)
		w.localOffset(m.Velocity)
		w.u32(m.InputBits)
		return OpPathStart, w.b
	case PathUpdateMsg:
		w.i16(int16(m.RelTime))
		w.localOffset(m.Velocity)
		w.u32(m.InputBits)
		return OpPathUpdate, w.b
	case PathBlockedMsg:
		w.i16(int16(m.RelTime))
		return OpPathBlocked, w.b
	case InteractMsg:
		w.bytesField(m.Args)
		return OpInteract, w.b
	case UseItemMsg:
		w.u16(uint16(m.ItemID))
		w.bytesField(m.Args)
		return OpUseItem, w.b
	case UseAbilityMsg:
		w.u16(uint16(m.ItemID))
		w.bytesField(m.Args)
		return OpUseAbility, w.b
	case ChatMsg:
		w.str(m.Text)
		return OpChat, w.b
	case MoveItemMsg:
		w.u32(m.FromIID)
		w.u16(m.FromSlot)
		w.u32(m.ToIID)
		w.u16(m.ToSlot)
		w.u8(m.Count)
		return OpMoveItem, w.b
	case CraftRecipeMsg:
		w.u64(m.StationSID)
		w.u32(m.IID)
		w.u16(uint16(m.RecipeID))
		w.u8(m.Count)
		return OpCraftRecipe, w.b
	case CloseDialogMsg:
		return OpCloseDialog, nil
	case CreateCharacterMsg:
		w.u32(m.Appearance)
		return OpCreateCharacter, w.b
	default:
		return 0, nil
	}
}
