package server

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/roomcast/roomcast/internal/protocol"
	"github.com/roomcast/roomcast/internal/storage"
)

// Hub owns the registry and performs message fanout. Delivery is
// fire-and-forget per recipient: a full or closed outbound queue drops the
// message for that member only and is never surfaced to the sender.
type Hub struct {
	registry *Registry
	store    storage.Store
	echoSelf bool
}

// NewHub constructs a hub. When store is non-nil, joins append the display
// name to the room's persisted membership set on a best-effort basis; the
// persisted set and the live set stay independent.
func NewHub(store storage.Store, echoSelf bool) *Hub {
	return &Hub{
		registry: NewRegistry(),
		store:    store,
		echoSelf: echoSelf,
	}
}

// Join registers the member in the room's live set and records the display
// name in the persisted membership set. Persistence failures (including an
// unknown room id) do not fail the join.
func (h *Hub) Join(ctx context.Context, roomID string, m *member) {
	h.registry.Register(roomID, m)
	log.Printf("session joined room=%s user=%s conn=%s", roomID, m.name, m.id)

	if h.store == nil {
		return
	}
	if _, err := h.store.AddMember(ctx, roomID, m.name); err != nil {
		log.Printf("persist membership room=%s user=%s err=%v", roomID, m.name, err)
	}
}

// Leave removes the member from the room's live set. Leaving twice, or
// leaving a room the member never joined, is a no-op.
func (h *Hub) Leave(roomID, memberID string) {
	h.registry.Deregister(roomID, memberID)
}

// Broadcast delivers text to every live member of the room. The sender is
// excluded unless the hub was configured to echo. Broadcasting to an empty
// room is a silent no-op.
func (h *Hub) Broadcast(roomID, senderID, senderName, text string) {
	msg := protocol.ChatMessage{
		RoomID: roomID,
		Sender: senderName,
		Text:   text,
		SentAt: time.Now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal broadcast room=%s err=%v", roomID, err)
		return
	}

	for _, m := range h.registry.MembersOf(roomID) {
		if !h.echoSelf && m.id == senderID {
			continue
		}
		if !m.trySend(data) {
			log.Printf("drop message room=%s recipient=%s reason=queue_full", roomID, m.name)
		}
	}
}
