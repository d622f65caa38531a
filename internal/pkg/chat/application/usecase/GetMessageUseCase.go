package usecase

import (
	"context"

	chat "go-parley/internal/pkg/chat/application/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
)

// GetMessageInput carries parameters to fetch a page of a conversation's
// history, newest first.
type GetMessageInput struct {
	ConversationID string
	RequesterID    string
	Limit          int
	Offset         int
}

// GetMessageUseCase fetches messages for a given conversation; only
// participants may read it.
type GetMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewGetMessageUseCase(repo repository.ChatRepository) *GetMessageUseCase {
	return &GetMessageUseCase{Repo: repo}
}

// Execute returns messages for the conversation honoring limit/offset
func (uc *GetMessageUseCase) Execute(ctx context.Context, in GetMessageInput) ([]chat.Message, error) {
	if in.ConversationID == "" || in.RequesterID == "" {
		return nil, invalidf("conversationId is required")
	}
	if err := authorize(ctx, uc.Repo, in.ConversationID, in.RequesterID); err != nil {
		return nil, err
	}

	msgs, err := uc.Repo.GetMessagesByConversation(ctx, in.ConversationID, in.Limit, in.Offset)
	if err != nil {
		return nil, storeError(err)
	}
	return msgs, nil
}
