package usecase

import (
	"context"

	chat "go-parley/internal/pkg/chat/application/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
)

// CreateChatInput carries the required data to open a conversation. The
// requester is always part of the participant set.
type CreateChatInput struct {
	RequesterID    string
	ParticipantIDs []string
	ContextType    chat.ContextType
	ContextID      string
}

// CreateChatUseCase gets or creates the single conversation for a
// participant set.
type CreateChatUseCase struct {
	Repo repository.ChatRepository
}

func NewCreateChatUseCase(repo repository.ChatRepository) *CreateChatUseCase {
	return &CreateChatUseCase{Repo: repo}
}

// Execute returns the conversation and whether it was created by this call.
func (uc *CreateChatUseCase) Execute(ctx context.Context, in CreateChatInput) (*chat.Conversation, bool, error) {
	if in.RequesterID == "" {
		return nil, false, invalidf("requester is required")
	}

	conv, ids, err := chat.NewConversation(append([]string{in.RequesterID}, in.ParticipantIDs...), in.ContextType, in.ContextID)
	if err != nil {
		return nil, false, invalid(err)
	}

	got, created, err := uc.Repo.GetOrCreateConversation(ctx, conv, ids)
	if err != nil {
		return nil, false, storeError(err)
	}
	return &got, created, nil
}
