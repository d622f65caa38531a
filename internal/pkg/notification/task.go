package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	qport "go-parley/internal/infrastructure/queue/port"
)

// MessageTaskType is the queue task name for an offline-message notification.
const MessageTaskType = "notification:message"

// Queue is the asynq queue notification tasks are placed on.
const Queue = "notifications"

const (
	maxRetry     = 5
	uniqueWindow = time.Hour
	taskTimeout  = 30 * time.Second
)

// RegisterHandlers binds the delivery handler to the provided server.
func RegisterHandlers(srv qport.Server, sink Sink, log *slog.Logger) {
	log = log.With("component", "notification_worker")
	srv.Register(MessageTaskType, func(ctx context.Context, t qport.Task) error {
		var n Notification
		if err := json.Unmarshal(t.Payload, &n); err != nil {
			// malformed payload: retrying cannot fix it
			return fmt.Errorf("decode %s payload: %v: %w", MessageTaskType, err, qport.ErrSkipRetry)
		}
		if n.UserID == "" {
			return fmt.Errorf("%s without recipient: %w", MessageTaskType, qport.ErrSkipRetry)
		}

		if err := sink.Deliver(ctx, n); err != nil {
			return err
		}
		log.Debug("notification delivered", "user_id", n.UserID, "message_id", n.Context.MessageID)
		return nil
	})
}
