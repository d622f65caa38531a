package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go-parley/internal/pkg/auth"
	chat "go-parley/internal/pkg/chat/application/domain"
	"go-parley/internal/pkg/chat/application/usecase"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"

	"github.com/gin-gonic/gin"
)

// CreateChatController handles the chat creation endpoint
// One controller per endpoint

type CreateChatController struct {
	UC      *usecase.CreateChatUseCase
	timeout time.Duration
	log     *slog.Logger
}

func NewCreateChatController(repo repository.ChatRepository, timeout time.Duration, log *slog.Logger) *CreateChatController {
	return &CreateChatController{UC: usecase.NewCreateChatUseCase(repo), timeout: timeout, log: log}
}

type createChatRequest struct {
	ParticipantIDs []string `json:"participant_ids" binding:"required"`
	ContextType    string   `json:"context_type"`
	ContextID      string   `json:"context_id"`
}

// Handle gets or creates the conversation between the caller and
// participant_ids: 201 when created, 200 when it already existed.
func (h *CreateChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "bad_request"})
			return
		}

		in := usecase.CreateChatInput{
			RequesterID:    auth.UserID(c),
			ParticipantIDs: req.ParticipantIDs,
			ContextType:    chat.ContextType(req.ContextType),
			ContextID:      req.ContextID,
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		conv, created, err := h.UC.Execute(ctx, in)
		if err != nil {
			handleUseCaseError(c, h.log, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		c.JSON(status, gin.H{
			"id":           conv.ID,
			"created_at":   conv.CreatedAt,
			"context_type": conv.ContextType,
			"context_id":   conv.ContextID,
		})
	}
}
