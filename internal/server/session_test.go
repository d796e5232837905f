package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/roomcast/roomcast/internal/config"
	"github.com/roomcast/roomcast/internal/protocol"
)

// fakeConn is an in-memory Conn for driving session controllers in tests.
type fakeConn struct {
	inbound chan inboundResult
	written chan []byte

	once   sync.Once
	closed chan struct{}

	mu        sync.Mutex
	closeCode int
}

type inboundResult struct {
	data []byte
	err  error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan inboundResult, 16),
		written: make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) clientSend(data []byte) {
	c.inbound <- inboundResult{data: data}
}

func (c *fakeConn) clientFail(err error) {
	c.inbound <- inboundResult{err: err}
}

func (c *fakeConn) ReadFrame() ([]byte, error) {
	select {
	case in := <-c.inbound:
		return in.data, in.err
	case <-c.closed:
		return nil, errors.New("use of closed network connection")
	}
}

func (c *fakeConn) WriteFrame(data []byte) error {
	select {
	case <-c.closed:
		return errors.New("use of closed network connection")
	case c.written <- data:
		return nil
	}
}

func (c *fakeConn) WriteClose(code int, _ string) error {
	c.mu.Lock()
	c.closeCode = code
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Ping() error        { return nil }
func (c *fakeConn) RemoteAddr() string { return "fake" }

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-c.closed:
	case <-time.After(time.Second):
		t.Fatal("connection was not closed")
	}
}

func (c *fakeConn) nextFrame(t *testing.T) []byte {
	t.Helper()
	select {
	case data := <-c.written:
		return data
	case <-time.After(time.Second):
		t.Fatal("no frame written to connection")
		return nil
	}
}

func testConfig() config.ServerConfig {
	return config.ServerConfig{
		ReadTimeout:     time.Minute,
		WriteTimeout:    time.Second,
		MaxMessageBytes: 4096,
		SendQueueSize:   16,
	}
}

func inboundFrame(t *testing.T, text string) []byte {
	t.Helper()
	data, err := json.Marshal(protocol.Inbound{Text: text})
	require.NoError(t, err)
	return data
}

func TestSession_RelayBetweenTwoMembers(t *testing.T) {
	req := require.New(t)
	hub := NewHub(nil, false)
	room := uuid.NewString()

	aliceConn := newFakeConn()
	bobConn := newFakeConn()
	alice := OpenSession(context.Background(), hub, aliceConn, room, "alice", testConfig())
	bob := OpenSession(context.Background(), hub, bobConn, room, "bob", testConfig())
	defer alice.Close()
	defer bob.Close()

	aliceConn.clientSend(inboundFrame(t, "hi"))

	var msg protocol.ChatMessage
	req.NoError(json.Unmarshal(bobConn.nextFrame(t), &msg))
	req.Equal("hi", msg.Text)
	req.Equal("alice", msg.Sender)
	req.Equal(room, msg.RoomID)

	// The sender hears nothing back under the default policy.
	select {
	case data := <-aliceConn.written:
		t.Fatalf("sender received its own broadcast: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSession_MalformedFrameRepliesThenCloses(t *testing.T) {
	req := require.New(t)
	hub := NewHub(nil, false)
	room := uuid.NewString()

	conn := newFakeConn()
	OpenSession(context.Background(), hub, conn, room, "alice", testConfig())

	conn.clientSend([]byte("definitely not json"))

	var frame protocol.ErrorFrame
	req.NoError(json.Unmarshal(conn.nextFrame(t), &frame))
	req.Equal(protocol.ErrCodeMalformedFrame, frame.Error)

	conn.waitClosed(t)
	req.Eventually(func() bool {
		return len(hub.registry.MembersOf(room)) == 0
	}, time.Second, 10*time.Millisecond, "closed session must leave the room")
}

func TestSession_BinaryFrameRepliesThenCloses(t *testing.T) {
	req := require.New(t)
	hub := NewHub(nil, false)
	room := uuid.NewString()

	conn := newFakeConn()
	OpenSession(context.Background(), hub, conn, room, "alice", testConfig())

	conn.clientFail(ErrBinaryFrame)

	var frame protocol.ErrorFrame
	req.NoError(json.Unmarshal(conn.nextFrame(t), &frame))
	req.Equal(protocol.ErrCodeMalformedFrame, frame.Error)

	conn.waitClosed(t)
}

func TestSession_EmptyMessageIsRecoverable(t *testing.T) {
	req := require.New(t)
	hub := NewHub(nil, false)
	room := uuid.NewString()

	conn := newFakeConn()
	session := OpenSession(context.Background(), hub, conn, room, "alice", testConfig())
	defer session.Close()

	conn.clientSend(inboundFrame(t, "   "))

	var frame protocol.ErrorFrame
	req.NoError(json.Unmarshal(conn.nextFrame(t), &frame))
	req.Equal(protocol.ErrCodeEmptyMessage, frame.Error)

	// Session keeps running: a follow-up message still broadcasts.
	req.Len(hub.registry.MembersOf(room), 1)
	conn.clientSend(inboundFrame(t, "recovered"))
	time.Sleep(50 * time.Millisecond)
	req.Len(hub.registry.MembersOf(room), 1)
}

func TestSession_TransportFailureTriggersCleanup(t *testing.T) {
	req := require.New(t)
	hub := NewHub(nil, false)
	room := uuid.NewString()

	conn := newFakeConn()
	OpenSession(context.Background(), hub, conn, room, "alice", testConfig())

	conn.clientFail(errors.New("connection reset by peer"))

	conn.waitClosed(t)
	req.Eventually(func() bool {
		return len(hub.registry.MembersOf(room)) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	req := require.New(t)
	hub := NewHub(nil, false)
	room := uuid.NewString()

	conn := newFakeConn()
	session := OpenSession(context.Background(), hub, conn, room, "alice", testConfig())

	session.Close()
	req.NotPanics(session.Close)
	req.Empty(hub.registry.MembersOf(room))
}

func TestSession_QueuedFramesFlushBeforeClose(t *testing.T) {
	req := require.New(t)
	hub := NewHub(nil, false)
	room := uuid.NewString()

	aliceConn := newFakeConn()
	bobConn := newFakeConn()
	OpenSession(context.Background(), hub, aliceConn, room, "alice", testConfig())
	bob := OpenSession(context.Background(), hub, bobConn, room, "bob", testConfig())

	aliceConn.clientSend(inboundFrame(t, "parting words"))

	var msg protocol.ChatMessage
	req.NoError(json.Unmarshal(bobConn.nextFrame(t), &msg))
	req.Equal("parting words", msg.Text)

	bob.Close()
	bobConn.waitClosed(t)
}
