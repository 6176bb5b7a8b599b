// Package vision implements the spatial pub-sub layer from spec §4.5: a
// generic publisher/subscriber registry indexed by channel keys — here,
// (plane, chunk-pos) pairs — that tracks, per publisher, the deduplicated
// set of subscribers currently observing it and fires appear/disappear
// callbacks exactly on 0<->1 refcount transitions.
//
// Grounded on the teacher's internal/world/spatial_index.go (channel-keyed
// observer tracking for the region/viewport system) and region_manager.go
// (per-region subscriber bookkeeping), generalized into the refcount-correct
// Pub x Sub delivery multiset spec §4.5 requires, with per-kind publisher
// keys (worldstore doesn't know about vision, so a Publisher here is just a
// (Kind, TransientID) pair it hands back to the caller on appear/disappear).
package vision

import (
	"sync"

	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/vec"
)

// Channel is the spatial index key: a (plane, chunk-pos) pair (§4.5).
type Channel struct {
	Plane util.StableID
	Chunk vec.Vec2
}

// Publisher identifies an object publishing occupancy into channels:
// entities, structures, and terrain chunks. Kind is a small caller-defined
// tag (vision doesn't care which worldstore.Kind it is, only that the pair
// is a stable identity).
type Publisher struct {
	Kind int
	ID   util.TransientID
}

// Callbacks receives appear/disappear notifications (§4.5
// "on_appear"/"on_disappear"; on_update goes through Service.Broadcast).
// Both are invoked synchronously from within the pub-sub call that
// triggered them — vision never defers delivery, matching the engine's
// single-threaded cooperative model (§5).
type Callbacks interface {
	OnAppear(cid util.TransientID, pub Publisher)
	OnDisappear(cid util.TransientID, pub Publisher)
}

// pubEntry tracks one publisher's channel memberships and its deduplicated
// subscriber refcounts, so adding the same (publisher, channel) pair twice
// (e.g. an entity whose bounding box touches a channel it's already in)
// never double counts.
type pubEntry struct {
	channels map[Channel]struct{}
	// subRefs counts, for each subscriber currently observing this
	// publisher, how many of its channels that subscriber is subscribed to
	// (the refcount that must cross 0<->1 to fire appear/disappear, §4.5).
	subRefs map[util.TransientID]int
}

// subEntry tracks one subscriber's channel memberships.
type subEntry struct {
	channels map[Channel]struct{}
}

// Index is the pub-sub primitive itself: Pub[channel] x Sub[channel] (§4.5).
type Index struct {
	mu  sync.Mutex
	cb  Callbacks
	pub map[Publisher]*pubEntry
	sub map[util.TransientID]*subEntry

	// chanPubs/chanSubs are the channel -> {publishers}/{subscribers}
	// indices the Pub/Sub update operations need to find the other side
	// of a channel when one side changes.
	chanPubs map[Channel]map[Publisher]struct{}
	chanSubs map[Channel]map[util.TransientID]struct{}
}

func New(cb Callbacks) *Index {
	return &Index{
		cb:       cb,
		pub:      make(map[Publisher]*pubEntry),
		sub:      make(map[util.TransientID]*subEntry),
		chanPubs: make(map[Channel]map[Publisher]struct{}),
		chanSubs: make(map[Channel]map[util.TransientID]struct{}),
	}
}

func (x *Index) ensurePub(pub Publisher) *pubEntry {
	e, ok := x.pub[pub]
	if !ok {
		e = &pubEntry{channels: make(map[Channel]struct{}), subRefs: make(map[util.TransientID]int)}
		x.pub[pub] = e
	}
	return e
}

func (x *Index) ensureSub(cid util.TransientID) *subEntry {
	e, ok := x.sub[cid]
	if !ok {
		e = &subEntry{channels: make(map[Channel]struct{})}
		x.sub[cid] = e
	}
	return e
}

// PublishTo adds (pub, channel) to the delivery multiset. For every
// subscriber currently on channel, pub's refcount against that subscriber
// is incremented; a 0->1 transition fires OnAppear (§4.5).
func (x *Index) PublishTo(pub Publisher, ch Channel) {
	x.mu.Lock()
	pe := x.ensurePub(pub)
	if _, already := pe.channels[ch]; already {
		x.mu.Unlock()
		return
	}
	pe.channels[ch] = struct{}{}
	if x.chanPubs[ch] == nil {
		x.chanPubs[ch] = make(map[Publisher]struct{})
	}
	x.chanPubs[ch][pub] = struct{}{}

	var appeared []util.TransientID
	for cid := range x.chanSubs[ch] {
		pe.subRefs[cid]++
		if pe.subRefs[cid] == 1 {
			appeared = append(appeared, cid)
		}
	}
	x.mu.Unlock()
	for _, cid := range appeared {
		x.cb.OnAppear(cid, pub)
	}
}

// UnpublishFrom removes (pub, channel); subscribers whose refcount against
// pub crosses 1->0 get OnDisappear (§4.5).
func (x *Index) UnpublishFrom(pub Publisher, ch Channel) {
	x.mu.Lock()
	pe, ok := x.pub[pub]
	if !ok {
		x.mu.Unlock()
		return
	}
	if _, present := pe.channels[ch]; !present {
		x.mu.Unlock()
		return
	}
	delete(pe.channels, ch)
	if set := x.chanPubs[ch]; set != nil {
		delete(set, pub)
		if len(set) == 0 {
			delete(x.chanPubs, ch)
		}
	}

	var disappeared []util.TransientID
	for cid := range x.chanSubs[ch] {
		if pe.subRefs[cid] <= 0 {
			continue
		}
		pe.subRefs[cid]--
		if pe.subRefs[cid] == 0 {
			delete(pe.subRefs, cid)
			disappeared = append(disappeared, cid)
		}
	}
	if len(pe.channels) == 0 && len(pe.subRefs) == 0 {
		delete(x.pub, pub)
	}
	x.mu.Unlock()
	for _, cid := range disappeared {
		x.cb.OnDisappear(cid, pub)
	}
}

// RemovePublisher drops pub from every channel it's in — used when the
// underlying object (entity/structure/chunk) is destroyed.
func (x *Index) RemovePublisher(pub Publisher) {
	x.mu.Lock()
	pe, ok := x.pub[pub]
	if !ok {
		x.mu.Unlock()
		return
	}
	channels := make([]Channel, 0, len(pe.channels))
	for ch := range pe.channels {
		channels = append(channels, ch)
	}
	x.mu.Unlock()
	for _, ch := range channels {
		x.UnpublishFrom(pub, ch)
	}
}

// Subscribe adds cid to channel, incrementing every current publisher's
// refcount against cid; a 0->1 transition fires OnAppear for that publisher.
func (x *Index) Subscribe(cid util.TransientID, ch Channel) {
	x.mu.Lock()
	se := x.ensureSub(cid)
	if _, already := se.channels[ch]; already {
		x.mu.Unlock()
		return
	}
	se.channels[ch] = struct{}{}
	if x.chanSubs[ch] == nil {
		x.chanSubs[ch] = make(map[util.TransientID]struct{})
	}
	x.chanSubs[ch][cid] = struct{}{}

	var appeared []Publisher
	for pub := range x.chanPubs[ch] {
		pe := x.pub[pub]
		pe.subRefs[cid]++
		if pe.subRefs[cid] == 1 {
			appeared = append(appeared, pub)
		}
	}
	x.mu.Unlock()
	for _, pub := range appeared {
		x.cb.OnAppear(cid, pub)
	}
}

// Unsubscribe removes cid from channel; publishers whose refcount against
// cid crosses 1->0 get OnDisappear.
func (x *Index) Unsubscribe(cid util.TransientID, ch Channel) {
	x.mu.Lock()
	se, ok := x.sub[cid]
	if !ok {
		x.mu.Unlock()
		return
	}
	if _, present := se.channels[ch]; !present {
		x.mu.Unlock()
		return
	}
	delete(se.channels, ch)
	if set := x.chanSubs[ch]; set != nil {
		delete(set, cid)
		if len(set) == 0 {
			delete(x.chanSubs, ch)
		}
	}

	var disappeared []Publisher
	for pub := range x.chanPubs[ch] {
		pe := x.pub[pub]
		if pe.subRefs[cid] <= 0 {
			continue
		}
		pe.subRefs[cid]--
		if pe.subRefs[cid] == 0 {
			delete(pe.subRefs, cid)
			disappeared = append(disappeared, pub)
		}
	}
	if len(se.channels) == 0 {
		delete(x.sub, cid)
	}
	x.mu.Unlock()
	for _, pub := range disappeared {
		x.cb.OnDisappear(cid, pub)
	}
}

// RemoveSubscriber drops cid from every channel — used when a client is
// kicked or logs out (§5 "Cancellation").
func (x *Index) RemoveSubscriber(cid util.TransientID) {
	x.mu.Lock()
	se, ok := x.sub[cid]
	if !ok {
		x.mu.Unlock()
		return
	}
	channels := make([]Channel, 0, len(se.channels))
	for ch := range se.channels {
		channels = append(channels, ch)
	}
	x.mu.Unlock()
	for _, ch := range channels {
		x.Unsubscribe(cid, ch)
	}
}

// Subscribers returns the deduplicated set of subscribers currently
// observing pub — i.e. every cid whose refcount against pub is > 0.
func (x *Index) Subscribers(pub Publisher) []util.TransientID {
	x.mu.Lock()
	defer x.mu.Unlock()
	pe, ok := x.pub[pub]
	if !ok {
		return nil
	}
	out := make([]util.TransientID, 0, len(pe.subRefs))
	for cid := range pe.subRefs {
		out = append(out, cid)
	}
	return out
}

// SetWindow moves a subscriber's subscription from an old square window of
// channels to a new one, computing the diff (§4.5 scenario S5) so a
// subscriber's move across a chunk boundary only fires appear/disappear
// for the channels that actually left or entered the window, not for
// everything still in view.
func (x *Index) SetWindow(cid util.TransientID, plane util.StableID, oldWindow, newWindow []vec.Vec2) {
	left, entered := util.DiffWindows(oldWindow, newWindow)
	for _, c := range left {
		x.Unsubscribe(cid, Channel{Plane: plane, Chunk: c})
	}
	for _, c := range entered {
		x.Subscribe(cid, Channel{Plane: plane, Chunk: c})
	}
}
