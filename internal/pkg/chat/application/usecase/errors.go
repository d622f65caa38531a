package usecase

import (
	"errors"
	"fmt"

	chat "go-parley/internal/pkg/chat/application/domain"
)

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = fmt.Errorf("chat use case persistence error")

// ErrValidation indicates a malformed request, rejected before any store call
var ErrValidation = fmt.Errorf("chat use case validation error")

// storeError wraps repository failures as ErrPersistence, letting domain
// lookups (not found, deleted) through untouched.
func storeError(err error) error {
	switch {
	case errors.Is(err, chat.ErrMessageNotFound),
		errors.Is(err, chat.ErrMessageDeleted),
		errors.Is(err, chat.ErrConversationNotFound):
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
