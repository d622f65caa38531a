package gateway

import (
	"context"
	"errors"

	chat "go-parley/internal/pkg/chat/application/domain"
	"go-parley/internal/pkg/chat/application/usecase"
)

// Error codes sent in error frames.
const (
	CodeForbidden  = "forbidden"
	CodeBadRequest = "bad_request"
	CodeNotFound   = "not_found"
	CodeInternal   = "internal_error"
)

// ErrNotJoined rejects typing commands from connections outside the room.
var ErrNotJoined = errors.New("gateway: connection has not joined the conversation")

// Classify maps an operation error to a client code and message.
func Classify(err error) (code string, message string) {
	switch {
	case errors.Is(err, chat.ErrNotParticipant):
		return CodeForbidden, "user is not a participant in this conversation"
	case errors.Is(err, chat.ErrNotSender):
		return CodeForbidden, "only the sender may modify this message"
	case errors.Is(err, chat.ErrMessageNotFound):
		return CodeNotFound, "message not found"
	case errors.Is(err, chat.ErrConversationNotFound):
		return CodeNotFound, "conversation not found"
	case errors.Is(err, chat.ErrMessageDeleted):
		return CodeBadRequest, "message has been deleted"
	case errors.Is(err, ErrNotJoined):
		return CodeBadRequest, "join the conversation first"
	case errors.Is(err, usecase.ErrPersistence),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return CodeInternal, "temporarily unavailable, try again"
	case errors.Is(err, usecase.ErrValidation),
		errors.Is(err, ErrMalformedCommand),
		errors.Is(err, ErrUnknownCommand):
		return CodeBadRequest, err.Error()
	default:
		return CodeInternal, "unexpected error"
	}
}
