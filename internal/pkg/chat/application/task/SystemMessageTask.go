package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	qport "go-parley/internal/infrastructure/queue/port"
	chat "go-parley/internal/pkg/chat/application/domain"
	"go-parley/internal/pkg/chat/application/usecase"
)

// SystemMessageTaskType is the queue task name platform services use to post
// a system message (contract signed, job closed, ...) into a conversation.
const SystemMessageTaskType = "chat:system_message"

const (
	systemMessageQueue    = "default"
	systemMessageRetry    = 10
	systemMessageTimeout  = 15 * time.Second
	systemMessageDedupTTL = 24 * time.Hour
)

// SystemMessageTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type SystemMessageTaskPayload struct {
	ConversationID string `json:"conversationId"`
	Body           string `json:"body"`
	// DedupeKey makes producers' retries idempotent: two tasks with the same
	// key inside a day post once.
	DedupeKey string `json:"dedupeKey,omitempty"`
}

// SystemPoster is satisfied by the gateway's message pipeline.
type SystemPoster interface {
	PostSystem(ctx context.Context, in usecase.PostSystemMessageInput) (*chat.Message, error)
}

// EnqueueSystemMessage hands a system message to the worker. A duplicate
// of a task already queued is not an error.
func EnqueueSystemMessage(ctx context.Context, client qport.Client, p SystemMessageTaskPayload) (string, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", SystemMessageTaskType, err)
	}

	opt := qport.EnqueueOption{
		Queue:    systemMessageQueue,
		MaxRetry: systemMessageRetry,
		Timeout:  systemMessageTimeout,
	}
	if p.DedupeKey != "" {
		opt.UniqueTTL = systemMessageDedupTTL
	}

	id, err := client.Enqueue(ctx, qport.Task{Type: SystemMessageTaskType, Payload: payload}, opt)
	if errors.Is(err, qport.ErrDuplicateTask) {
		return "", nil
	}
	return id, err
}

// RegisterSystemMessageTask binds the task handler to the provided server.
// The handler posts through the pipeline so online participants receive the
// message live and offline ones are notified.
func RegisterSystemMessageTask(srv qport.Server, poster SystemPoster, log *slog.Logger) {
	log = log.With("component", "system_message_worker")
	srv.Register(SystemMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p SystemMessageTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return fmt.Errorf("decode %s payload: %v: %w", SystemMessageTaskType, err, qport.ErrSkipRetry)
		}

		msg, err := poster.PostSystem(ctx, usecase.PostSystemMessageInput{
			ConversationID: p.ConversationID,
			Body:           p.Body,
		})
		switch {
		case err == nil:
		case errors.Is(err, usecase.ErrValidation), errors.Is(err, chat.ErrConversationNotFound):
			log.Warn("system message rejected", "conversation_id", p.ConversationID, "error", err)
			return fmt.Errorf("%v: %w", err, qport.ErrSkipRetry)
		default:
			// persistence errors are retried with backoff by the server
			return err
		}

		log.Debug("system message posted", "conversation_id", p.ConversationID, "message_id", msg.ID)
		return nil
	})
}
