package usecase

import (
	"context"
	"time"

	repository "go-parley/internal/pkg/chat/persistence/repository/port"
)

type MarkReadInput struct {
	ConversationID string
	UserID         string
	MessageID      string
	At             time.Time
}

// MarkReadUseCase moves a participant's read marker. The message must belong
// to the conversation, otherwise chat.ErrMessageNotFound is returned.
type MarkReadUseCase struct {
	Repo repository.ChatRepository
	Now  func() time.Time
}

func NewMarkReadUseCase(repo repository.ChatRepository) *MarkReadUseCase {
	return &MarkReadUseCase{Repo: repo, Now: func() time.Time { return time.Now().UTC() }}
}

func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) error {
	if in.ConversationID == "" || in.UserID == "" || in.MessageID == "" {
		return invalidf("conversationId, messageId and userId are required")
	}

	if err := authorize(ctx, uc.Repo, in.ConversationID, in.UserID); err != nil {
		return err
	}

	at := in.At
	if at.IsZero() {
		at = uc.Now()
	}
	if err := uc.Repo.MarkRead(ctx, in.ConversationID, in.UserID, in.MessageID, at); err != nil {
		return storeError(err)
	}
	return nil
}
