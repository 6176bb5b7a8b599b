package worldstore

import (
	"github.com/annel0/mmo-game/internal/extra"
	"github.com/annel0/mmo-game/internal/util"
)

// Client is a logged-in player session (§3.2). Clients are roots — they
// have no Attachment.
type Client struct {
	ver uint64

	DisplayName string
	Pawn        util.TransientID // optional EntityId; util.NoTransientID if none
	Extra       extra.Value

	ChildEntities    map[util.TransientID]struct{}
	ChildInventories map[util.TransientID]struct{}
}

func NewClient(displayName string) *Client {
	return &Client{
		DisplayName:      displayName,
		Pawn:             util.NoTransientID,
		Extra:            extra.Hash(nil),
		ChildEntities:    make(map[util.TransientID]struct{}),
		ChildInventories: make(map[util.TransientID]struct{}),
	}
}

func (c *Client) Version() uint64    { return c.ver }
func (c *Client) setVersion(v uint64) { c.ver = v }

func (c *Client) Clone() interface{} {
	cp := *c
	cp.ChildEntities = cloneSet(c.ChildEntities)
	cp.ChildInventories = cloneSet(c.ChildInventories)
	return &cp
}

func cloneSet(in map[util.TransientID]struct{}) map[util.TransientID]struct{} {
	out := make(map[util.TransientID]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}
