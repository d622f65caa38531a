package usecase

import (
	"context"

	chat "go-parley/internal/pkg/chat/application/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
)

type EditMessageInput struct {
	ConversationID string
	MessageID      string
	UserID         string
	Body           string
}

// EditMessageUseCase replaces the body of a message. Only the original
// sender may edit, and deleted messages stay deleted.
type EditMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewEditMessageUseCase(repo repository.ChatRepository) *EditMessageUseCase {
	return &EditMessageUseCase{Repo: repo}
}

func (uc *EditMessageUseCase) Execute(ctx context.Context, in EditMessageInput) (*chat.Message, error) {
	if in.ConversationID == "" || in.MessageID == "" || in.UserID == "" {
		return nil, invalidf("conversationId, messageId and userId are required")
	}
	body, err := chat.NormalizeBody(in.Body)
	if err != nil {
		return nil, invalid(err)
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
	if err := current.CheckEdit(body); err != nil {
		return nil, invalid(err)
	}

	updated, err := uc.Repo.UpdateMessageBody(ctx, in.ConversationID, in.MessageID, body)
	if err != nil {
		return nil, storeError(err)
	}
	return &updated, nil
}
