package chat

import "errors"

// Domain-level errors for chat behaviors
var (
	ErrNotParticipant       = errors.New("chat: user is not a participant in the conversation")
	ErrNotSender            = errors.New("chat: only the sender may modify this message")
	ErrMessageDeleted       = errors.New("chat: message has been deleted")
	ErrMessageNotFound      = errors.New("chat: message not found")
	ErrConversationNotFound = errors.New("chat: conversation not found")
	ErrEmptyMessage         = errors.New("chat: empty message (no body or attachment)")
	ErrMessageTooLong       = errors.New("chat: message body is too long")
	ErrInvalidAttachment    = errors.New("chat: attachment url is required")
	ErrMissingConversation  = errors.New("chat: conversation id is required")
	ErrMissingSender        = errors.New("chat: sender id is required")
	ErrSystemSender         = errors.New("chat: system messages have no sender")
	ErrTooFewParticipants   = errors.New("chat: a conversation needs at least two participants")
	ErrInvalidContext       = errors.New("chat: context type and id must be set together")
)
