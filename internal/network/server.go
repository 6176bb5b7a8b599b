package network

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/annel0/mmo-game/internal/logging"
	"github.com/xtaci/kcp-go/v5"
)

// Server listens for KCP connections and hands each accepted session to
// the caller via OnConnect/OnDisconnect, grounded on the teacher's
// ChannelServer/KCPGameServer accept-loop shape but carrying this
// package's hand-rolled framing instead of protobuf NetGameMessage.
type Server struct {
	addr     string
	listener net.Listener

	nextID atomic.Uint64

	mu       sync.Mutex
	sessions map[uint64]*Session

	Inbox chan InboundEvent

	OnConnect    func(*Session)
	OnDisconnect func(*Session)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer does not start listening; call Start.
func NewServer(addr string) *Server {
	return &Server{
		addr:     addr,
		sessions: make(map[uint64]*Session),
		Inbox:    make(chan InboundEvent, 1024),
	}
}

// Start opens the KCP listener and begins accepting connections.
// Per-session KCP tuning (NoDelay/WindowSize/Mtu) matches the teacher's
// kcp_channel.go settings for low-latency game traffic.
func (s *Server) Start() error {
	listener, err := kcp.ListenWithOptions(s.addr, nil, 0, 0)
	if err != nil {
		return fmt.Errorf("network: listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.acceptLoop()

	logging.LogInfo("network: KCP server listening on %s", s.addr)
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				logging.LogError("network: accept error: %v", err)
				continue
			}
		}
		if kconn, ok := conn.(*kcp.UDPSession); ok {
			kconn.SetStreamMode(true)
			kconn.SetWriteDelay(false)
			kconn.SetNoDelay(1, 20, 2, 1)
			kconn.SetWindowSize(512, 512)
			kconn.SetMtu(1400)
		}

		id := s.nextID.Add(1)
		sess := newSession(id, conn, s.Inbox)

		s.mu.Lock()
		s.sessions[id] = sess
		s.mu.Unlock()

		if s.OnConnect != nil {
			s.OnConnect(sess)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sess.readLoop()
			s.mu.Lock()
			delete(s.sessions, id)
			s.mu.Unlock()
			if s.OnDisconnect != nil {
				s.OnDisconnect(sess)
			}
		}()
	}
}

// Broadcast sends the same frame to every currently connected session,
// best-effort: a write failure on one session doesn't block the others
// and is left for that session's readLoop to notice and close.
func (s *Server) Broadcast(op Opcode, payload []byte) {
	s.mu.Lock()
	targets := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		targets = append(targets, sess)
	}
	s.mu.Unlock()

	for _, sess := range targets {
		if err := sess.Send(op, payload); err != nil {
			logging.LogError("network: broadcast to session %d failed: %v", sess.ID, err)
		}
	}
}

// SessionCount reports the number of live connections.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Stop closes the listener and every live session, then waits for the
// accept loop and all per-session goroutines to exit.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.mu.Lock()
	for _, sess := range s.sessions {
		sess.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	logging.LogInfo("network: KCP server on %s stopped", s.addr)
}
