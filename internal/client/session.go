package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roomcast/roomcast/internal/config"
	"github.com/roomcast/roomcast/internal/protocol"
)

// Event is one server-side occurrence surfaced to the UI loop.
type Event struct {
	// Message is set for relayed chat payloads.
	Message *protocol.ChatMessage
	// Notice carries a server-reported protocol error.
	Notice string
	// Err is terminal: the connection is gone.
	Err error
}

// Session manages the client side of a relay connection.
type Session struct {
	cfg    config.ClientConfig
	conn   *websocket.Conn
	events chan Event
}

// NewSession initializes a session with configuration.
func NewSession(cfg config.ClientConfig) *Session {
	return &Session{cfg: cfg, events: make(chan Event, 32)}
}

// Connect dials the relay, joining the configured room under the configured
// display name, and starts the read loop.
func (s *Session) Connect(ctx context.Context) error {
	target, err := url.Parse(s.cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("server url: %w", err)
	}
	query := target.Query()
	query.Set("room", s.cfg.Room)
	query.Set("username", s.cfg.Username)
	target.RawQuery = query.Encode()

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second
	conn, resp, err := dialer.DialContext(ctx, target.String(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %s)", target.Host, err, resp.Status)
		}
		return fmt.Errorf("dial %s: %w", target.Host, err)
	}
	s.conn = conn

	go s.readLoop()
	return nil
}

// Events exposes the stream the UI consumes.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Send broadcasts text into the joined room.
func (s *Session) Send(text string) error {
	return s.conn.WriteJSON(protocol.Inbound{Text: text})
}

// Close terminates the session.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// incomingFrame covers both payloads the server emits on one connection.
type incomingFrame struct {
	protocol.ChatMessage
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func (s *Session) readLoop() {
	for {
		var frame incomingFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			s.events <- Event{Err: err}
			return
		}
		if frame.Error != "" {
			s.events <- Event{Notice: fmt.Sprintf("%s: %s", frame.Error, frame.Reason)}
			continue
		}
		msg := frame.ChatMessage
		s.events <- Event{Message: &msg}
	}
}
