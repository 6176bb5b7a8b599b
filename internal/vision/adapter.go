package vision

import (
	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// Adapter implements worldstore.Observer on top of a Service, translating
// store-level structural events into channel publish/unpublish calls. Kept
// as a separate small type (rather than having Service itself implement
// worldstore.Observer) so Service stays usable in tests without pulling in
// worldstore at all.
type Adapter struct {
	svc *Service
}

func NewAdapter(svc *Service) *Adapter {
	return &Adapter{svc: svc}
}

func (a *Adapter) OnStructurePlaced(id util.TransientID, s *worldstore.Structure) {
	if s.IsLimbo() {
		return
	}
	tmpl, ok := catalog.Template(s.TemplateID)
	if !ok {
		return
	}
	a.svc.PublishStructure(s.StablePlane, id, s.Pos, tmpl)
}

func (a *Adapter) OnStructureRemoved(id util.TransientID, s *worldstore.Structure) {
	a.svc.UnpublishStructure(id)
}

func (a *Adapter) OnEntityCreated(id util.TransientID, e *worldstore.Entity) {
	if e.IsLimbo() {
		return
	}
	a.svc.PublishEntity(e.StablePlane, id, e.Motion.StartPos.ToVec3().ToChunkPos())
}

func (a *Adapter) OnEntityRemoved(id util.TransientID, e *worldstore.Entity) {
	if e.IsLimbo() {
		return
	}
	a.svc.UnpublishEntity(e.StablePlane, id, e.Motion.StartPos.ToVec3().ToChunkPos())
}

func (a *Adapter) OnEntityChunkChanged(id util.TransientID, e *worldstore.Entity, oldChunk, newChunk vec.Vec2) {
	a.svc.MoveEntityChunk(e.StablePlane, id, oldChunk, newChunk)
}

func (a *Adapter) OnChunkLoaded(id util.TransientID, c *worldstore.TerrainChunk) {
	a.svc.PublishChunk(c.StablePlane, id, c.Pos)
}

func (a *Adapter) OnChunkUnloaded(id util.TransientID, c *worldstore.TerrainChunk) {
	a.svc.UnpublishChunk(id)
}
