package worldstore

import (
	"github.com/annel0/mmo-game/internal/extra"
	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/vec"
)

// Plane is a named world, owning a mapping from chunk-coord to the saved
// stable id of its terrain chunk, plus a transient map of currently-loaded
// chunks (§3.2).
type Plane struct {
	ver uint64

	Name  string
	Extra extra.Value

	// SavedChunks maps chunk-coord -> stable id of the terrain chunk last
	// saved there, whether or not it's currently loaded.
	SavedChunks map[vec.Vec2]util.StableID

	// LoadedChunks maps chunk-coord -> transient id, only for chunks
	// currently resident in this process (§3.3 invariant 4).
	LoadedChunks map[vec.Vec2]util.TransientID
}

func NewPlane(name string) *Plane {
	return &Plane{
		Name:         name,
		Extra:        extra.Hash(nil),
		SavedChunks:  make(map[vec.Vec2]util.StableID),
		LoadedChunks: make(map[vec.Vec2]util.TransientID),
	}
}

func (p *Plane) Version() uint64     { return p.ver }
func (p *Plane) setVersion(v uint64) { p.ver = v }

func (p *Plane) Clone() interface{} {
	cp := *p
	cp.SavedChunks = make(map[vec.Vec2]util.StableID, len(p.SavedChunks))
	for k, v := range p.SavedChunks {
		cp.SavedChunks[k] = v
	}
	cp.LoadedChunks = make(map[vec.Vec2]util.TransientID, len(p.LoadedChunks))
	for k, v := range p.LoadedChunks {
		cp.LoadedChunks[k] = v
	}
	return &cp
}
