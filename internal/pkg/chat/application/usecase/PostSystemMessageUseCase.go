package usecase

import (
	"context"

	chat "go-parley/internal/pkg/chat/application/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
)

// PostSystemMessageInput is a platform notice (contract signed, job closed)
// written into a conversation. It has no sender.
type PostSystemMessageInput struct {
	ConversationID string
	Body           string
}

// PostSystemMessageUseCase persists a system message. No participant check
// applies; callers are trusted platform services.
type PostSystemMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewPostSystemMessageUseCase(repo repository.ChatRepository) *PostSystemMessageUseCase {
	return &PostSystemMessageUseCase{Repo: repo}
}

func (uc *PostSystemMessageUseCase) Execute(ctx context.Context, in PostSystemMessageInput) (*chat.Message, error) {
	msg, err := chat.NewMessage(chat.Message{
		ConversationID: in.ConversationID,
		Kind:           chat.MessageKindSystem,
		Body:           in.Body,
	})
	if err != nil {
		return nil, invalid(err)
	}

	stored, err := uc.Repo.AppendMessage(ctx, *msg)
	if err != nil {
		return nil, storeError(err)
	}
	return &stored, nil
}
