// Package engine implements the single-threaded cooperative core from
// spec §5: one goroutine owns every mutable piece of world state
// (worldstore.Store, vision.Service, chunklifecycle.Manager, the per-tick
// physics pass) and multiplexes three event sources into it — a timer
// queue, inbound network messages, and scheduled loop-thread callbacks
// (the generalized form of an async terrain-gen reply; see DESIGN.md for
// why chunklifecycle's generator round-trip stayed synchronous instead).
//
// Grounded on the teacher's KCPGameServer.Start goroutine (internal/network/
// kcp_game_server.go), which already runs a fixed-rate ticker driving a
// single GameHandler.Tick call from one goroutine; this package generalizes
// that shape to also select over inbound messages and scheduled callbacks
// instead of only a ticker.
package engine

import (
	"context"
	"strconv"
	"time"

	"github.com/annel0/mmo-game/internal/chunklifecycle"
	"github.com/annel0/mmo-game/internal/eventbus"
	"github.com/annel0/mmo-game/internal/logging"
	"github.com/annel0/mmo-game/internal/network"
	"github.com/annel0/mmo-game/internal/physics"
	"github.com/annel0/mmo-game/internal/presence"
	"github.com/annel0/mmo-game/internal/scripthost"
	"github.com/annel0/mmo-game/internal/shapecache"
	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/vision"
	"github.com/annel0/mmo-game/internal/worldstore"
	"github.com/google/uuid"
)

// VisionRadius is the subscriber window half-width in chunks (§4.5).
const VisionRadius = 4

// SpawnPlaneName is the plane every new pawn lands on; a real deployment
// would pick this from the account's last-saved plane, which is outside
// this core's scope (§9 open question: persistence policy lives above it).
const SpawnPlaneName = "overworld"

// callback is the generalized third event source: any loop-thread work
// that originated off the loop goroutine (the network server's connect/
// disconnect notifications, an admin Stats request) and must run with
// exclusive access to Store.
type callback func(now int64)

// clientState is everything the loop tracks per connected session beyond
// what already lives in worldstore.Client.
type clientState struct {
	sess     *network.Session
	clientID util.TransientID
	pawnID   util.TransientID
	plane    util.StableID
	chunkPos vec.Vec2
	path     *physics.PathQueue
}

// Engine wires every core subsystem together and owns the single tick
// loop. Nothing outside this package ever touches Store, Vision or
// ChunkMgr concurrently with Run.
type Engine struct {
	Store    *worldstore.Store
	Vision   *vision.Service
	ChunkMgr *chunklifecycle.Manager
	Coord    *chunklifecycle.Coordinator
	Shapes   *shapecache.Cache
	Mover    *physics.Mover
	Net      *network.Server
	Presence *presence.Registry  // nil-safe; set by cmd/server when Redis is configured
	Events   eventbus.EventBus   // nil-safe; set by cmd/server to publish connect/disconnect for external consumers (chat router, analytics)
	Scripts  *scripthost.Registry // nil-safe; set by cmd/server once an embedded script engine registers hooks

	timers    *TimerQueue
	callbacks chan callback

	clients           map[uint64]*clientState
	subscriberSession map[util.TransientID]uint64 // vision subscriber id -> session id
	entityOwner       map[util.TransientID]uint64 // pawn entity -> session id

	clock int64 // monotonic engine clock, ms since loop start
	quit  chan struct{}
}

// New wires Store, the chunk lifecycle manager/coordinator and the
// network server into a running Engine. Vision is constructed here
// (rather than accepted as a parameter) because its Dispatcher needs a
// live reference back into Engine to turn appear/disappear/update
// notifications into wire frames — see dispatch.go. The shape cache is
// Store's own (store.Shapes), not a separate collaborator: every block
// mutation that feeds the cache already goes through Store.
func New(store *worldstore.Store, chunkMgr *chunklifecycle.Manager, coord *chunklifecycle.Coordinator, net *network.Server) *Engine {
	e := &Engine{
		Store:             store,
		ChunkMgr:          chunkMgr,
		Coord:             coord,
		Shapes:            store.Shapes,
		Mover:             physics.NewMover(physics.New(store.Shapes)),
		Net:               net,
		timers:            NewTimerQueue(),
		callbacks:         make(chan callback, 256),
		clients:           make(map[uint64]*clientState),
		subscriberSession: make(map[util.TransientID]uint64),
		entityOwner:       make(map[util.TransientID]uint64),
		quit:              make(chan struct{}),
	}
	e.Vision = vision.NewService(&netDispatcher{eng: e}, VisionRadius)
	store.SetObserver(vision.NewAdapter(e.Vision))
	return e
}

// Schedule queues fn to run on the loop goroutine once now >= fireAt.
func (e *Engine) Schedule(fireAt int64, fn func(now int64)) uint64 {
	return e.timers.Schedule(fireAt, fn)
}

// Defer queues fn to run on the next loop iteration, from any goroutine —
// the mechanism the network connect/disconnect callbacks and Stats use to
// hand work back to the single-threaded core.
func (e *Engine) Defer(fn func(now int64)) {
	select {
	case e.callbacks <- fn:
	case <-e.quit:
	}
}

// ScheduleScriptTimer arranges for Scripts.FireTimerFired(e, timerID) to
// run on the loop goroutine once fireAt is reached — the round-trip an
// embedded script needs to register a future callback without holding a
// reference into the loop between now and then.
func (e *Engine) ScheduleScriptTimer(fireAt int64, timerID uint64) {
	e.Schedule(fireAt, func(now int64) {
		e.Scripts.FireTimerFired(e, timerID)
	})
}

// Stop requests the loop to exit; Run returns once the in-flight tick
// finishes.
func (e *Engine) Stop() { close(e.quit) }

// Run is the three-source select loop (§5). It blocks until Stop is
// called or the network server's Inbox channel closes.
func (e *Engine) Run() {
	ticker := time.NewTicker(time.Duration(physics.TickMS) * time.Millisecond)
	defer ticker.Stop()

	if e.Net != nil {
		e.Net.OnConnect = func(s *network.Session) { e.Defer(func(now int64) { e.handleConnect(s, now) }) }
		e.Net.OnDisconnect = func(s *network.Session) { e.Defer(func(now int64) { e.handleDisconnect(s, now) }) }
	}

	start := time.Now()
	for {
		select {
		case <-e.quit:
			return
		case <-ticker.C:
			e.clock = time.Since(start).Milliseconds()
			e.timers.PopDue(e.clock)
			e.tickPhysics(e.clock)
		case fn := <-e.callbacks:
			e.clock = time.Since(start).Milliseconds()
			fn(e.clock)
		case ev, ok := <-e.Net.Inbox:
			if !ok {
				return
			}
			e.clock = time.Since(start).Milliseconds()
			e.handleInbound(ev, e.clock)
		}
	}
}

// tickPhysics runs §4.4's five-step update for every entity currently
// owned by a connected client; structures and unowned entities have no
// target velocity to integrate and are left alone.
func (e *Engine) tickPhysics(now int64) {
	for _, cs := range e.clients {
		ent, ok := e.Store.Entities.Get(cs.pawnID)
		if !ok || ent.IsLimbo() {
			continue
		}
		res := e.Mover.Advance(shapecache.PlaneStableID(cs.plane), ent.Motion, ent.Size, ent.TargetVelocity, now)

		e.Store.Entities.Mutate(cs.pawnID, func(e2 *worldstore.Entity) {
			e2.Motion = res.Motion
			e2.Facing = res.Facing
			e2.AnimationID = res.Anim
		})

		newChunk := res.Motion.StartPos.ToVec3().ToChunkPos()
		if newChunk != cs.chunkPos {
			e.Store.MoveEntityChunk(cs.pawnID, cs.chunkPos, newChunk)
			cs.chunkPos = newChunk
			e.Vision.SetSubscriberWindow(cs.clientID, cs.plane, newChunk)
		}

		if res.Event != physics.EventNone {
			e.Vision.Broadcast(vision.KindEntity, cs.pawnID)
		}
	}
}

// handleConnect provisions a client/pawn pair and places it in the spawn
// plane's origin chunk. A production deployment would resume the
// account's last saved position instead of always spawning at the
// origin; that policy lives above this core (§9).
func (e *Engine) handleConnect(sess *network.Session, now int64) {
	planeTID := e.ensurePlane(SpawnPlaneName)
	planeStable, _ := e.Store.Planes.Pin(planeTID)

	clientID := e.Store.CreateClient("guest")
	pawnID, err := e.Store.CreateEntity(planeStable, planeTID, vec.Vec3Float{}, vec.Vec3Float{X: 12, Y: 12, Z: 24}, now, worldstore.Attachment{Kind: worldstore.AttachClient, ID: clientID})
	if err != nil {
		logging.LogError("engine: CreateEntity for new session %d failed: %v", sess.ID, err)
		sess.Close()
		return
	}
	if err := e.Store.SetPawn(clientID, pawnID); err != nil {
		logging.LogError("engine: SetPawn for session %d failed: %v", sess.ID, err)
	}

	origin := vec.Vec2{}
	e.ChunkMgr.Load(planeStable, origin)
	e.Vision.SetSubscriberWindow(clientID, planeStable, origin)

	cs := &clientState{
		sess:     sess,
		clientID: clientID,
		pawnID:   pawnID,
		plane:    planeStable,
		chunkPos: origin,
		path:     physics.NewPathQueue(),
	}
	e.clients[sess.ID] = cs
	e.subscriberSession[clientID] = sess.ID
	e.entityOwner[pawnID] = sess.ID

	pawnStable, _ := e.Store.Entities.Pin(pawnID)
	op, payload := network.EncodeInit(pawnStable, network.LocalPos{}, now)
	if err := sess.Send(op, payload); err != nil {
		logging.LogError("engine: sending Init to session %d failed: %v", sess.ID, err)
	}

	clientStable, _ := e.Store.Clients.Pin(clientID)
	e.Presence.MarkOnline(context.Background(), uint64(clientStable))
	e.publishClientEvent("client.connected", uint64(clientStable))
	e.Scripts.FireClientLogin(e, uint64(clientStable))
}

// handleDisconnect releases every resource the session's connect path
// acquired, mirroring §5's cancellation semantics for a dropped client.
func (e *Engine) handleDisconnect(sess *network.Session, now int64) {
	cs, ok := e.clients[sess.ID]
	if !ok {
		return
	}
	delete(e.clients, sess.ID)
	delete(e.subscriberSession, cs.clientID)
	delete(e.entityOwner, cs.pawnID)

	if clientStable, ok := e.Store.Clients.Pin(cs.clientID); ok {
		e.Presence.MarkOffline(context.Background(), uint64(clientStable))
		e.publishClientEvent("client.disconnected", uint64(clientStable))
	}

	e.Vision.RemoveSubscriber(cs.clientID)
	e.ChunkMgr.Unload(cs.plane, cs.chunkPos)
	if !e.ChunkMgr.PlaneHeld(cs.plane) {
		e.Coord.ForgetPlane(cs.plane)
	}

	if err := e.Store.DestroyEntity(cs.pawnID); err != nil {
		logging.LogError("engine: DestroyEntity on disconnect for session %d failed: %v", sess.ID, err)
	}
	if err := e.Store.DestroyClient(cs.clientID); err != nil {
		logging.LogError("engine: DestroyClient on disconnect for session %d failed: %v", sess.ID, err)
	}
}

// publishClientEvent emits a connect/disconnect notification onto the
// optional world event bus for out-of-core consumers (chat router,
// analytics) to pick up. With the in-memory bus it never blocks the tick
// loop: Publish drops a low-priority event (this one is priority 3) when
// the buffer is full. The JetStream bus publishes to NATS synchronously
// before returning.
func (e *Engine) publishClientEvent(eventType string, clientStable uint64) {
	if e.Events == nil {
		return
	}
	if err := e.Events.Publish(context.Background(), &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Source:    "engine",
		EventType: eventType,
		Priority:  3,
		Metadata:  map[string]string{"client_stable_id": strconv.FormatUint(clientStable, 10)},
	}); err != nil {
		logging.LogWarn("engine: publish %s for client %d failed: %v", eventType, clientStable, err)
	}
}

// ensurePlane returns a plane's transient id, creating it on first use.
// A real deployment persists the plane roster; this core only needs one
// plane to exist by the time the first client connects.
func (e *Engine) ensurePlane(name string) util.TransientID {
	var found util.TransientID
	ok := false
	e.Store.Planes.Each(func(id util.TransientID, p *worldstore.Plane) {
		if p.Name == name {
			found, ok = id, true
		}
	})
	if ok {
		return found
	}
	return e.Store.CreatePlane(name)
}
