package usecase

import (
	"context"

	chat "go-parley/internal/pkg/chat/application/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
)

// authorize fails with chat.ErrNotParticipant unless userID belongs to the conversation.
func authorize(ctx context.Context, repo repository.ChatRepository, conversationID, userID string) error {
	ok, err := repo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return storeError(err)
	}
	if !ok {
		return chat.ErrNotParticipant
	}
	return nil
}
