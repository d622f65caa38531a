// Package notification hands messages for offline participants to an
// out-of-band channel (push, email). The chat core only decides who is
// offline; delivery is fire-and-forget from its point of view.
package notification

import (
	"context"
	"strings"
	"unicode/utf8"

	chat "go-parley/internal/pkg/chat/application/domain"
)

// DefaultPreviewLength is the preview size in runes.
const DefaultPreviewLength = 100

// Context points a notification back at the message that triggered it.
type Context struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

// Notification is one delivery request for one recipient.
type Notification struct {
	UserID  string  `json:"userId"`
	Preview string  `json:"preview"`
	Context Context `json:"context"`
}

// Bridge accepts notifications for offline users. Implementations return
// quickly; callers log errors and never propagate them.
type Bridge interface {
	Notify(ctx context.Context, userID string, preview string, nctx Context) error
}

// Sink performs the actual delivery.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// Preview renders a message for a notification body, cut to max runes with
// a trailing ellipsis.
func Preview(msg chat.Message, max int) string {
	if max <= 0 {
		max = DefaultPreviewLength
	}
	body := strings.Join(strings.Fields(msg.Body), " ")
	if body == "" {
		if len(msg.Attachments) > 0 {
			return "[attachment]"
		}
		return ""
	}
	if utf8.RuneCountInString(body) <= max {
		return body
	}
	runes := []rune(body)
	return strings.TrimSpace(string(runes[:max])) + "…"
}
