package server

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roomcast/roomcast/internal/config"
)

// ErrBinaryFrame is returned by ReadFrame when the peer sends a non-text frame.
var ErrBinaryFrame = errors.New("binary frames are not supported")

// Conn is the transport surface a session controller drives. It narrows the
// underlying socket to the handful of operations the relay needs so that
// session logic can be exercised against an in-memory implementation.
type Conn interface {
	// ReadFrame blocks for the next inbound text frame.
	ReadFrame() ([]byte, error)
	// WriteFrame writes one outbound text frame.
	WriteFrame(data []byte) error
	// WriteClose sends a close frame. Safe to call concurrently with writes.
	WriteClose(code int, reason string) error
	// Ping sends a keepalive probe.
	Ping() error
	RemoteAddr() string
	Close() error
}

// wsConn adapts a gorilla websocket connection to Conn, applying read limits,
// deadlines, and pong-driven deadline extension.
type wsConn struct {
	conn      *websocket.Conn
	readWait  time.Duration
	writeWait time.Duration
}

func newWSConn(conn *websocket.Conn, cfg config.ServerConfig) *wsConn {
	c := &wsConn{
		conn:      conn,
		readWait:  cfg.ReadTimeout,
		writeWait: cfg.WriteTimeout,
	}
	conn.SetReadLimit(cfg.MaxMessageBytes)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.readWait))
	})
	return c
}

func (c *wsConn) ReadFrame() ([]byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.readWait)); err != nil {
		return nil, err
	}
	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if messageType != websocket.TextMessage {
		return nil, ErrBinaryFrame
	}
	return data, nil
}

func (c *wsConn) WriteFrame(data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) WriteClose(code int, reason string) error {
	deadline := time.Now().Add(c.writeWait)
	return c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}

func (c *wsConn) Ping() error {
	deadline := time.Now().Add(c.writeWait)
	return c.conn.WriteControl(websocket.PingMessage, nil, deadline)
}

func (c *wsConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
