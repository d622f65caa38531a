package controller

import (
	"log/slog"
	"net/http"

	"go-parley/internal/pkg/auth"
	chat "go-parley/internal/pkg/chat/application/domain"
	"go-parley/internal/pkg/chat/application/gateway"
	"go-parley/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

// SendMessageController handles the send-message endpoint only (one controller per endpoint).
// It goes through the same pipeline as socket sends, so every connection in
// the room receives the message.
type SendMessageController struct {
	pipeline *gateway.Pipeline
	log      *slog.Logger
}

func NewSendMessageController(pipeline *gateway.Pipeline, log *slog.Logger) *SendMessageController {
	return &SendMessageController{pipeline: pipeline, log: log}
}

// sendMessageRequest is the DTO for the HTTP request body
type sendMessageRequest struct {
	Content     string            `json:"content"`
	Attachments []chat.Attachment `json:"attachments"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "bad_request"})
			return
		}

		// the pipeline applies its own dependency timeout
		msg, err := h.pipeline.Send(c.Request.Context(), usecase.SendMessageInput{
			ConversationID: c.Param("chatId"),
			SenderID:       auth.UserID(c),
			Body:           req.Content,
			Attachments:    req.Attachments,
		})
		if err != nil {
			handleUseCaseError(c, h.log, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": gateway.NewMessageView(*msg)})
	}
}
