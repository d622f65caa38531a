package chat

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MessageKind represents type of message content
// 0=text, 1=image, 2=file, 3=system
type MessageKind int16

const (
	MessageKindText   MessageKind = 0
	MessageKindImage  MessageKind = 1
	MessageKindFile   MessageKind = 2
	MessageKindSystem MessageKind = 3
)

// MaxBodyLength caps message bodies, in runes.
const MaxBodyLength = 4000

// Attachment references an uploaded file; the bytes live elsewhere.
type Attachment struct {
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Message is an entry in a conversation's ordered log. System messages carry
// no sender. Edits and deletes only set the marker fields.
type Message struct {
	ID             string       `db:"id"`
	ConversationID string       `db:"conversation_id"`
	SenderID       string       `db:"sender_id"`
	Kind           MessageKind  `db:"kind"`
	Body           string       `db:"body"`
	Attachments    []Attachment `db:"attachments"`
	CreatedAt      time.Time    `db:"created_at"`
	EditedAt       *time.Time   `db:"edited_at"`
	DeletedAt      *time.Time   `db:"deleted_at"`
}

// IsSystem reports whether the message was produced by the platform.
func (m Message) IsSystem() bool { return m.Kind == MessageKindSystem }

// IsDeleted reports whether the message carries a delete marker.
func (m Message) IsDeleted() bool { return m.DeletedAt != nil }

// NewMessage validates and normalizes a message before it is persisted.
// ID and CreatedAt are assigned by the store.
func NewMessage(m Message) (*Message, error) {
	if m.ConversationID == "" {
		return nil, ErrMissingConversation
	}

	if m.IsSystem() {
		if m.SenderID != "" {
			return nil, ErrSystemSender
		}
	} else if m.SenderID == "" {
		return nil, ErrMissingSender
	}

	body, err := NormalizeBody(m.Body)
	if err != nil {
		return nil, err
	}
	m.Body = body

	for _, a := range m.Attachments {
		if strings.TrimSpace(a.URL) == "" {
			return nil, ErrInvalidAttachment
		}
	}

	if m.Body == "" && len(m.Attachments) == 0 {
		return nil, ErrEmptyMessage
	}

	if m.Kind == MessageKindText && len(m.Attachments) > 0 {
		m.Kind = kindForAttachment(m.Attachments[0])
	}

	m.ID = ""
	m.CreatedAt = time.Time{}
	m.EditedAt = nil
	m.DeletedAt = nil
	return &m, nil
}

// CheckModifiable reports whether userID may edit or delete the message.
func (m Message) CheckModifiable(userID string) error {
	if m.IsSystem() || m.SenderID != userID {
		return ErrNotSender
	}
	if m.IsDeleted() {
		return ErrMessageDeleted
	}
	return nil
}

// CheckEdit rejects an edit that would leave the message empty. Attachments
// are kept, so an edit may clear the body of a message that has attachments.
// body must already be normalized.
func (m Message) CheckEdit(body string) error {
	if body == "" && len(m.Attachments) == 0 {
		return ErrEmptyMessage
	}
	return nil
}

// NormalizeBody trims body and enforces MaxBodyLength.
func NormalizeBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return "", ErrMessageTooLong
	}
	return body, nil
}

func kindForAttachment(a Attachment) MessageKind {
	if strings.HasPrefix(a.ContentType, "image/") {
		return MessageKindImage
	}
	return MessageKindFile
}
