package usecase

import (
	"context"

	chat "go-parley/internal/pkg/chat/application/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
)

type DeleteMessageInput struct {
	ConversationID string
	MessageID      string
	UserID         string
}

// DeleteMessageUseCase marks a message deleted; the row stays in the log so
// ordering and read markers remain valid.
type DeleteMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewDeleteMessageUseCase(repo repository.ChatRepository) *DeleteMessageUseCase {
	return &DeleteMessageUseCase{Repo: repo}
}

func (uc *DeleteMessageUseCase) Execute(ctx context.Context, in DeleteMessageInput) (*chat.Message, error) {
	if in.ConversationID == "" || in.MessageID == "" || in.UserID == "" {
		return nil, invalidf("conversationId, messageId and userId are required")
	}

	if err := authorize(ctx, uc.Repo, in.ConversationID, in.UserID); err != nil {
		return nil, err
	}

	current, err := uc.Repo.GetMessage(ctx, in.ConversationID, in.MessageID)
	if err != nil {
		return nil, storeError(err)
	}
	if err := current.CheckModifiable(in.UserID); err != nil {
		return nil, err
	}

	deleted, err := uc.Repo.MarkMessageDeleted(ctx, in.ConversationID, in.MessageID)
	if err != nil {
		return nil, storeError(err)
	}
	return &deleted, nil
}
