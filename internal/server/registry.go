package server

import (
	"sync"

	"github.com/google/uuid"
)

// member is one live connection's registry record: a stable generated id, the
// owner's display name, and the outbound queue its write loop drains. The
// registry holds members by reference but never owns them; teardown of a
// member is the session controller's job.
type member struct {
	id   string
	name string
	out  chan []byte
	done chan struct{}
}

func newMember(name string, queueSize int) *member {
	return &member{
		id:   uuid.NewString(),
		name: name,
		out:  make(chan []byte, queueSize),
		done: make(chan struct{}),
	}
}

// trySend enqueues without blocking and reports whether the frame was
// accepted. A full queue drops the frame for this member only.
func (m *member) trySend(data []byte) bool {
	select {
	case m.out <- data:
		return true
	default:
		return false
	}
}

// Registry maps room ids to their live members. All mutation funnels through
// Register and Deregister so the locking discipline stays in one place; the
// map as a whole is guarded by a single mutex.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]*member
	byConn map[string]string // member id -> room id
}

// NewRegistry initializes an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]map[string]*member),
		byConn: make(map[string]string),
	}
}

// Register adds m to the room's live set. A member is in at most one room: if
// m is currently registered elsewhere it is moved, and registering the same
// member twice in the same room keeps a single entry.
func (r *Registry) Register(roomID string, m *member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byConn[m.id]; ok && prev != roomID {
		r.remove(prev, m.id)
	}
	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = make(map[string]*member)
	}
	r.rooms[roomID][m.id] = m
	r.byConn[m.id] = roomID
}

// Deregister removes the member from the room's live set if present. Absent
// members are a silent no-op so disconnects racing an in-flight broadcast
// never error.
func (r *Registry) Deregister(roomID, memberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(roomID, memberID)
}

func (r *Registry) remove(roomID, memberID string) {
	subscribers, ok := r.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := subscribers[memberID]; !ok {
		return
	}
	delete(subscribers, memberID)
	delete(r.byConn, memberID)
	if len(subscribers) == 0 {
		delete(r.rooms, roomID)
	}
}

// MembersOf returns a snapshot of the room's current members. Iterating the
// snapshot during fanout is never invalidated by a concurrent join or leave.
func (r *Registry) MembersOf(roomID string) []*member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subscribers := r.rooms[roomID]
	members := make([]*member, 0, len(subscribers))
	for _, m := range subscribers {
		members = append(members, m)
	}
	return members
}
