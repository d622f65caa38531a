package repository

import (
	"context"
	"time"

	chat "go-parley/internal/pkg/chat/application/domain"
)

// ChatRepository defines persistence operations for the chat domain.
// Message lookups return chat.ErrMessageNotFound when the message does not
// exist in the given conversation.
type ChatRepository interface {
	// GetOrCreateConversation returns the conversation for conv.ParticipantKey,
	// creating it with participantIDs if absent. created reports which happened.
	GetOrCreateConversation(ctx context.Context, conv chat.Conversation, participantIDs []string) (result chat.Conversation, created bool, err error)
	// ConversationIDsForUser lists up to limit conversations, most recently active first.
	ConversationIDsForUser(ctx context.Context, userID string, limit int) ([]string, error)
	IsParticipant(ctx context.Context, conversationID string, userID string) (bool, error)
	ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error)

	// AppendMessage persists m and returns it with the store-assigned ID and
	// CreatedAt. CreatedAt never goes backwards within a conversation.
	AppendMessage(ctx context.Context, m chat.Message) (chat.Message, error)
	GetMessage(ctx context.Context, conversationID string, messageID string) (chat.Message, error)
	// UpdateMessageBody fails with chat.ErrMessageDeleted for deleted messages.
	UpdateMessageBody(ctx context.Context, conversationID string, messageID string, body string) (chat.Message, error)
	MarkMessageDeleted(ctx context.Context, conversationID string, messageID string) (chat.Message, error)
	GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error)

	// MarkRead moves the user's read marker to messageID.
	MarkRead(ctx context.Context, conversationID string, userID string, messageID string, at time.Time) error
}
