package realtime

import "encoding/json"

// Event names delivered to clients.
const (
	EventConnected      = "connected"
	EventUserOnline     = "user:online"
	EventUserOffline    = "user:offline"
	EventRoomJoined     = "conversation:joined"
	EventRoomLeft       = "conversation:left"
	EventMessageNew     = "message:new"
	EventMessageEdited  = "message:edited"
	EventMessageDeleted = "message:deleted"
	EventMessageRead    = "message:read"
	EventTypingStart    = "typing:start"
	EventTypingStop     = "typing:stop"
	EventError          = "error"
)

// Envelope is the outbound frame: an event name and its payload.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Encode marshals an outbound frame.
func Encode(eventType string, data any) ([]byte, error) {
	return json.Marshal(Envelope{Type: eventType, Data: data})
}

// PresencePayload is carried by user:online and user:offline.
type PresencePayload struct {
	UserID string `json:"userId"`
}

// TypingPayload is carried by typing:start and typing:stop.
type TypingPayload struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}

// ErrorPayload reaches only the connection whose command failed.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Command string `json:"command,omitempty"`
}

// ConnectedPayload acknowledges a successful handshake.
type ConnectedPayload struct {
	UserID        string   `json:"userId"`
	ConnectionID  string   `json:"connectionId"`
	Conversations []string `json:"conversations"`
}

// RoomPayload acknowledges an explicit join or leave.
type RoomPayload struct {
	ConversationID string `json:"conversationId"`
}
