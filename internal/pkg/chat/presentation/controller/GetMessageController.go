package controller

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go-parley/internal/pkg/auth"
	"go-parley/internal/pkg/chat/application/gateway"
	"go-parley/internal/pkg/chat/application/usecase"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"

	"github.com/gin-gonic/gin"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// GetMessageController handles fetching messages by chat ID (one controller per endpoint)
type GetMessageController struct {
	UC      *usecase.GetMessageUseCase
	timeout time.Duration
	log     *slog.Logger
}

func NewGetMessageController(repo repository.ChatRepository, timeout time.Duration, log *slog.Logger) *GetMessageController {
	return &GetMessageController{UC: usecase.NewGetMessageUseCase(repo), timeout: timeout, log: log}
}

func (h *GetMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chatId")

		limit := defaultHistoryLimit
		offset := 0
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = min(n, maxHistoryLimit)
			}
		}
		if v := c.Query("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		in := usecase.GetMessageInput{ConversationID: chatID, RequesterID: auth.UserID(c), Limit: limit, Offset: offset}
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		msgs, err := h.UC.Execute(ctx, in)
		if err != nil {
			handleUseCaseError(c, h.log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"messages": gateway.NewMessageViews(msgs),
			"limit":    limit,
			"offset":   offset,
			"count":    len(msgs),
		})
	}
}
