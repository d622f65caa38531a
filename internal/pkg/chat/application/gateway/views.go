package gateway

import (
	"time"

	chat "go-parley/internal/pkg/chat/application/domain"
)

// MessageView is the client representation of a message.
type MessageView struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversationId"`
	SenderID       string            `json:"senderId,omitempty"`
	Kind           string            `json:"kind"`
	Content        string            `json:"content"`
	Attachments    []chat.Attachment `json:"attachments,omitempty"`
	System         bool              `json:"system"`
	CreatedAt      time.Time         `json:"createdAt"`
	EditedAt       *time.Time        `json:"editedAt,omitempty"`
	DeletedAt      *time.Time        `json:"deletedAt,omitempty"`
}

// MessagePayload is carried by message:new, message:edited and message:deleted.
type MessagePayload struct {
	Message        MessageView `json:"message"`
	ConversationID string      `json:"conversationId"`
}

// ReadPayload is carried by message:read.
type ReadPayload struct {
	MessageID      string `json:"messageId"`
	ReadBy         string `json:"readBy"`
	ConversationID string `json:"conversationId"`
}

var kindNames = map[chat.MessageKind]string{
	chat.MessageKindText:   "text",
	chat.MessageKindImage:  "image",
	chat.MessageKindFile:   "file",
	chat.MessageKindSystem: "system",
}

func NewMessageView(m chat.Message) MessageView {
	return MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Kind:           kindNames[m.Kind],
		Content:        m.Body,
		Attachments:    m.Attachments,
		System:         m.IsSystem(),
		CreatedAt:      m.CreatedAt,
		EditedAt:       m.EditedAt,
		DeletedAt:      m.DeletedAt,
	}
}

func NewMessageViews(msgs []chat.Message) []MessageView {
	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, NewMessageView(m))
	}
	return out
}
