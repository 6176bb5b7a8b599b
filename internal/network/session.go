package network

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/annel0/mmo-game/internal/logging"
)

// Session wraps one client connection (a *kcp.UDPSession in production,
// any net.Conn in tests). It owns the read loop that turns incoming bytes
// into decoded inbound messages and a thread-safe Send for outbound
// frames; it does not know anything about worldstore or game state —
// internal/engine's dispatch loop is the only consumer of Inbox.
type Session struct {
	ID   uint64
	conn net.Conn

	sendMu sync.Mutex

	Inbox  chan InboundEvent
	closed chan struct{}
	once   sync.Once
}

// InboundEvent pairs a decoded message with the Session it arrived on, so
// a single shared Inbox-reading goroutine can serve many sessions.
type InboundEvent struct {
	Session *Session
	Msg     interface{} // one of the *Msg types from messages.go, or error below
	Err     error
}

// NewSession builds a Session around an arbitrary net.Conn — exported so
// tests (and any future non-KCP transport) can drive the read/send loop
// without going through Server's KCP accept path.
func NewSession(id uint64, conn net.Conn, inbox chan InboundEvent) *Session {
	return newSession(id, conn, inbox)
}

func newSession(id uint64, conn net.Conn, inbox chan InboundEvent) *Session {
	s := &Session{
		ID:     id,
		conn:   conn,
		Inbox:  inbox,
		closed: make(chan struct{}),
	}
	return s
}

// readLoop decodes frames until the connection closes or a frame fails to
// parse; a parse failure is reported once on Inbox and then the session
// closes, since a corrupt stream can't resynchronize itself.
func (s *Session) readLoop() {
	for {
		f, err := ReadFrame(s.conn)
		if err != nil {
			if err != io.EOF {
				logging.LogError("network: session %d read error: %v", s.ID, err)
			}
			s.emit(InboundEvent{Session: s, Err: err})
			s.Close()
			return
		}
		msg, err := DecodeInbound(f)
		if err != nil {
			logging.LogError("network: session %d decode error on op %d: %v", s.ID, f.Op, err)
			s.emit(InboundEvent{Session: s, Err: err})
			s.Close()
			return
		}
		s.emit(InboundEvent{Session: s, Msg: msg})
	}
}

func (s *Session) emit(ev InboundEvent) {
	select {
	case s.Inbox <- ev:
	case <-s.closed:
	}
}

// Send writes one outbound frame. Safe for concurrent use; the engine
// loop and any admin/debug path may both call it.
func (s *Session) Send(op Opcode, payload []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return WriteFrame(s.conn, op, payload)
}

// Close is idempotent; closing the underlying conn unblocks readLoop's
// pending ReadFrame.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
	})
}

// SetDeadlines applies a read/write deadline pair ahead of the next I/O,
// mirroring the teacher's KCP channel's connection-liveness handling
// without KCP's own ping machinery.
func (s *Session) SetDeadlines(idle time.Duration) {
	if idle <= 0 {
		return
	}
	_ = s.conn.SetDeadline(time.Now().Add(idle))
}
