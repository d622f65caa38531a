package usecase

import (
	"context"

	chat "go-parley/internal/pkg/chat/application/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
)

// SendMessageInput carries the data needed to send a new message
type SendMessageInput struct {
	ConversationID string
	SenderID       string
	Body           string
	Attachments    []chat.Attachment
}

// SendMessageUseCase validates, authorizes and persists a user message.
// Broadcasting is the caller's job and must only happen after Execute succeeds.
type SendMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewSendMessageUseCase(repo repository.ChatRepository) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo}
}

// Execute returns the message as persisted, with its id and timestamp.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	msg, err := chat.NewMessage(chat.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Kind:           chat.MessageKindText,
		Body:           in.Body,
		Attachments:    in.Attachments,
	})
	if err != nil {
		return nil, invalid(err)
	}

	if err := authorize(ctx, uc.Repo, in.ConversationID, in.SenderID); err != nil {
		return nil, err
	}

	stored, err := uc.Repo.AppendMessage(ctx, *msg)
	if err != nil {
		return nil, storeError(err)
	}
	return &stored, nil
}
