package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roomcast/roomcast/internal/config"
	"github.com/roomcast/roomcast/internal/protocol"
)

// Session is the per-connection control loop. It relays inbound frames to the
// hub and drains hub deliveries back out to its connection. The two flows run
// on separate goroutines so a slow outbound write never stalls inbound reads.
type Session struct {
	hub    *Hub
	conn   Conn
	roomID string
	member *member

	pingInterval time.Duration
	closeOnce    sync.Once
}

// OpenSession joins the hub under roomID and starts the read and write loops.
// The returned session owns conn until it closes; transport closure is the
// sole cancellation signal for both loops.
func OpenSession(ctx context.Context, hub *Hub, conn Conn, roomID, name string, cfg config.ServerConfig) *Session {
	s := &Session{
		hub:          hub,
		conn:         conn,
		roomID:       roomID,
		member:       newMember(name, cfg.SendQueueSize),
		pingInterval: cfg.PingInterval(),
	}
	hub.Join(ctx, roomID, s.member)

	go s.writeLoop()
	go s.readLoop()
	return s
}

// Close leaves the room and releases the connection. It is safe to call from
// any goroutine and runs its teardown exactly once; every read or write loop
// exit path funnels through it.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.hub.Leave(s.roomID, s.member.id)
		close(s.member.done)
	})
}

func (s *Session) readLoop() {
	defer s.Close()

	for {
		data, err := s.conn.ReadFrame()
		if err != nil {
			if errors.Is(err, ErrBinaryFrame) {
				s.sendError(protocol.ErrCodeMalformedFrame, "text frames only")
				log.Printf("session closing room=%s user=%s reason=binary_frame", s.roomID, s.member.name)
			} else if !isExpectedCloseError(err) {
				log.Printf("session read room=%s user=%s err=%v", s.roomID, s.member.name, err)
			}
			return
		}

		var in protocol.Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			s.sendError(protocol.ErrCodeMalformedFrame, `expected {"text": "..."}`)
			log.Printf("session closing room=%s user=%s reason=malformed_frame", s.roomID, s.member.name)
			return
		}

		text := strings.TrimSpace(in.Text)
		if text == "" {
			// Recoverable: tell the client and keep the session open.
			s.sendError(protocol.ErrCodeEmptyMessage, "message text required")
			continue
		}

		s.hub.Broadcast(s.roomID, s.member.id, s.member.name, text)
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(s.pingInterval)
	defer func() {
		ticker.Stop()
		s.Close()
		if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("session close conn room=%s user=%s err=%v", s.roomID, s.member.name, err)
		}
	}()

	for {
		select {
		case data := <-s.member.out:
			if err := s.conn.WriteFrame(data); err != nil {
				return
			}
		case <-s.member.done:
			s.flush()
			return
		case <-ticker.C:
			if err := s.conn.Ping(); err != nil {
				return
			}
		}
	}
}

// flush drains frames that were queued before shutdown, then sends the close
// frame so well-behaved peers see a clean end of stream.
func (s *Session) flush() {
	for {
		select {
		case data := <-s.member.out:
			if err := s.conn.WriteFrame(data); err != nil {
				return
			}
		default:
			_ = s.conn.WriteClose(websocket.CloseNormalClosure, "")
			return
		}
	}
}

// sendError queues a client-visible error frame on this session's own
// connection. Errors here never affect other sessions.
func (s *Session) sendError(code, reason string) {
	frame, err := json.Marshal(protocol.ErrorFrame{Error: code, Reason: reason})
	if err != nil {
		return
	}
	s.member.trySend(frame)
}

// isExpectedCloseError reports whether an error is part of a normal teardown.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
