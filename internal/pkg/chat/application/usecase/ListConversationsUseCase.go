package usecase

import (
	"context"

	repository "go-parley/internal/pkg/chat/persistence/repository/port"
)

// DefaultConversationLimit bounds the auto-join page.
const DefaultConversationLimit = 100

type ListConversationsInput struct {
	UserID string
	Limit  int
}

// ListConversationsUseCase returns the ids of the user's most recently
// active conversations.
type ListConversationsUseCase struct {
	Repo repository.ChatRepository
}

func NewListConversationsUseCase(repo repository.ChatRepository) *ListConversationsUseCase {
	return &ListConversationsUseCase{Repo: repo}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, in ListConversationsInput) ([]string, error) {
	if in.UserID == "" {
		return nil, invalidf("user_id is required")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultConversationLimit
	}

	ids, err := uc.Repo.ConversationIDsForUser(ctx, in.UserID, limit)
	if err != nil {
		return nil, storeError(err)
	}
	return ids, nil
}
