package vision

import (
	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/vec"
)

// Publisher kind tags — vision's own small enum, kept separate from
// worldstore.Kind so Index and Service never depend on worldstore's types;
// only Adapter (adapter.go) imports worldstore.
const (
	KindEntity int = iota
	KindStructure
	KindChunk
)

// Dispatcher is the network-facing sink for vision's three message kinds
// (§4.5 "on_appear"/"on_disappear"/"on_update"). The engine wires this to
// whatever actually serializes and sends the wire messages (§6.1
// EntityAppear/Gone, StructureAppear/Gone, TerrainChunk, ...); vision
// itself only decides *who* needs to hear about *what*.
type Dispatcher interface {
	OnAppear(cid util.TransientID, kind int, id util.TransientID)
	OnDisappear(cid util.TransientID, kind int, id util.TransientID)
	OnUpdate(cid util.TransientID, kind int, id util.TransientID)
}

// Service ties the generic Index to world geometry: it knows how to turn
// an entity's bounding box, a structure's template footprint, or a single
// chunk into the set of channels that object publishes to. The store drives
// it through Adapter, which implements worldstore.Observer on its behalf.
type Service struct {
	idx        *Index
	dispatch   Dispatcher
	windowRadius int
	// subWindow remembers each subscriber's last computed window so a
	// subsequent pawn move can diff against it (§4.5 S5).
	subWindow map[util.TransientID][]vec.Vec2
	subPlane  map[util.TransientID]util.StableID
}

func NewService(dispatch Dispatcher, windowRadius int) *Service {
	s := &Service{
		dispatch:     dispatch,
		windowRadius: windowRadius,
		subWindow:    make(map[util.TransientID][]vec.Vec2),
		subPlane:     make(map[util.TransientID]util.StableID),
	}
	s.idx = New(s)
	return s
}

func (s *Service) OnAppear(cid util.TransientID, pub Publisher) {
	s.dispatch.OnAppear(cid, pub.Kind, pub.ID)
}

func (s *Service) OnDisappear(cid util.TransientID, pub Publisher) {
	s.dispatch.OnDisappear(cid, pub.Kind, pub.ID)
}

// Broadcast sends on_update to every current subscriber of pub (§4.5) —
// called by the engine's physics tick whenever a pawn's motion produces a
// movement event.
func (s *Service) Broadcast(kind int, id util.TransientID) {
	pub := Publisher{Kind: kind, ID: id}
	for _, cid := range s.idx.Subscribers(pub) {
		s.dispatch.OnUpdate(cid, kind, id)
	}
}

// PublishEntity registers an entity's single-cell footprint into the
// channel its current chunk falls in. Entities are point-publishers
// (unlike structures, which may span several cells/chunks) — matches
// §4.5 "each object publishes to every channel its footprint overlaps"
// where an entity's footprint is the one chunk it currently occupies.
func (s *Service) PublishEntity(plane util.StableID, id util.TransientID, chunk vec.Vec2) {
	s.idx.PublishTo(Publisher{Kind: KindEntity, ID: id}, Channel{Plane: plane, Chunk: chunk})
}

func (s *Service) UnpublishEntity(plane util.StableID, id util.TransientID, chunk vec.Vec2) {
	s.idx.UnpublishFrom(Publisher{Kind: KindEntity, ID: id}, Channel{Plane: plane, Chunk: chunk})
}

// MoveEntityChunk implements the chunk-crossing half of worldstore.Observer
// (§4.5 "Integration with movement": the pub-sub is updated *before* the
// motion message is emitted). Returns the union of old and new subscriber
// sets so the caller knows who the subsequent motion message must reach.
func (s *Service) MoveEntityChunk(plane util.StableID, id util.TransientID, oldChunk, newChunk vec.Vec2) []util.TransientID {
	if oldChunk == newChunk {
		return s.idx.Subscribers(Publisher{Kind: KindEntity, ID: id})
	}
	before := s.idx.Subscribers(Publisher{Kind: KindEntity, ID: id})
	s.UnpublishEntity(plane, id, oldChunk)
	s.PublishEntity(plane, id, newChunk)
	after := s.idx.Subscribers(Publisher{Kind: KindEntity, ID: id})
	seen := make(map[util.TransientID]struct{}, len(before)+len(after))
	union := make([]util.TransientID, 0, len(before)+len(after))
	for _, cid := range before {
		if _, ok := seen[cid]; !ok {
			seen[cid] = struct{}{}
			union = append(union, cid)
		}
	}
	for _, cid := range after {
		if _, ok := seen[cid]; !ok {
			seen[cid] = struct{}{}
			union = append(union, cid)
		}
	}
	return union
}

// PublishStructure registers every cell a template occupies as a channel
// (cells may span a chunk boundary, in which case the structure publishes
// to more than one channel — §4.5).
func (s *Service) PublishStructure(plane util.StableID, id util.TransientID, anchor vec.Vec3, tmpl catalog.TemplateDef) {
	for _, ch := range structureChannels(plane, anchor, tmpl) {
		s.idx.PublishTo(Publisher{Kind: KindStructure, ID: id}, ch)
	}
}

func (s *Service) UnpublishStructure(id util.TransientID) {
	s.idx.RemovePublisher(Publisher{Kind: KindStructure, ID: id})
}

func structureChannels(plane util.StableID, anchor vec.Vec3, tmpl catalog.TemplateDef) []Channel {
	seen := make(map[vec.Vec2]struct{})
	var out []Channel
	for _, cell := range tmpl.Cells {
		pos := anchor.Add(vec.Vec3{X: cell.Offset[0], Y: cell.Offset[1], Z: cell.Offset[2]})
		cp := pos.ToChunkPos()
		if _, ok := seen[cp]; ok {
			continue
		}
		seen[cp] = struct{}{}
		out = append(out, Channel{Plane: plane, Chunk: cp})
	}
	return out
}

// PublishChunk registers a loaded terrain chunk as a publisher of its own
// single channel — clients subscribed to that channel need the
// TerrainChunk wire message (§6.1) on appear.
func (s *Service) PublishChunk(plane util.StableID, id util.TransientID, pos vec.Vec2) {
	s.idx.PublishTo(Publisher{Kind: KindChunk, ID: id}, Channel{Plane: plane, Chunk: pos})
}

func (s *Service) UnpublishChunk(id util.TransientID) {
	s.idx.RemovePublisher(Publisher{Kind: KindChunk, ID: id})
}

// SetSubscriberWindow moves cid's subscription window to be centered on
// center, computing entered/left channels against the last window recorded
// for cid (§4.5 scenario S5). Call this whenever a client's pawn changes
// chunk.
func (s *Service) SetSubscriberWindow(cid util.TransientID, plane util.StableID, center vec.Vec2) {
	newWindow := util.SquareWindow(center, s.windowRadius)
	oldWindow := s.subWindow[cid]
	if oldPlane, ok := s.subPlane[cid]; ok && oldPlane != plane {
		// Changing planes entirely: SetWindow diffs both windows under a
		// single plane, so the old window's channels are unsubscribed here
		// under oldPlane and the new window is then subscribed in full.
		for _, c := range oldWindow {
			s.idx.Unsubscribe(cid, Channel{Plane: oldPlane, Chunk: c})
		}
		oldWindow = nil
	}
	s.idx.SetWindow(cid, plane, oldWindow, newWindow)
	s.subWindow[cid] = newWindow
	s.subPlane[cid] = plane
}

// RemoveSubscriber drops a disconnected/kicked client from every channel
// (§5 "Cancellation": unsubscribes them from all channels).
func (s *Service) RemoveSubscriber(cid util.TransientID) {
	s.idx.RemoveSubscriber(cid)
	delete(s.subWindow, cid)
	delete(s.subPlane, cid)
}
