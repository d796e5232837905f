package protocol

import "time"

// ChatMessage is the envelope delivered to every member of a room when one of
// them broadcasts. It is the only server-to-client payload besides ErrorFrame,
// and it is always serialized as a single JSON text frame.
type ChatMessage struct {
	RoomID string    `json:"room_id"`
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Inbound is the frame a connected client sends to broadcast into its room.
type Inbound struct {
	Text string `json:"text"`
}

// ErrorFrame reports a client-visible protocol error on the same connection.
type ErrorFrame struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Error codes carried by ErrorFrame.
const (
	ErrCodeMalformedFrame = "malformed_frame"
	ErrCodeEmptyMessage   = "empty_message"
)
