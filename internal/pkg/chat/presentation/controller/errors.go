package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"go-parley/internal/pkg/chat/application/gateway"
	"go-parley/internal/pkg/chat/application/usecase"

	"github.com/gin-gonic/gin"
)

var statusByCode = map[string]int{
	gateway.CodeForbidden:  http.StatusForbidden,
	gateway.CodeNotFound:   http.StatusNotFound,
	gateway.CodeBadRequest: http.StatusBadRequest,
	gateway.CodeInternal:   http.StatusInternalServerError,
}

// handleUseCaseError writes the same code/message pair the socket sends in
// error frames, with a matching HTTP status.
func handleUseCaseError(c *gin.Context, log *slog.Logger, err error) {
	code, message := gateway.Classify(err)
	status := statusByCode[code]
	if errors.Is(err, usecase.ErrPersistence) || errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusServiceUnavailable
	}
	if code == gateway.CodeInternal {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": message, "code": code})
}
