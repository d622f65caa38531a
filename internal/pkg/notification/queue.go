package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	qport "go-parley/internal/infrastructure/queue/port"
)

// QueueBridge enqueues notifications for the background worker.
type QueueBridge struct {
	client qport.Client
}

var _ Bridge = (*QueueBridge)(nil)

func NewQueueBridge(client qport.Client) *QueueBridge {
	return &QueueBridge{client: client}
}

// Notify enqueues one task per (recipient, message); re-notifying the same
// pair within the unique window is a no-op.
func (b *QueueBridge) Notify(ctx context.Context, userID string, preview string, nctx Context) error {
	payload, err := json.Marshal(Notification{UserID: userID, Preview: preview, Context: nctx})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	_, err = b.client.Enqueue(ctx, qport.Task{Type: MessageTaskType, Payload: payload}, qport.EnqueueOption{
		Queue:     Queue,
		MaxRetry:  maxRetry,
		UniqueTTL: uniqueWindow,
		Timeout:   taskTimeout,
	})
	if errors.Is(err, qport.ErrDuplicateTask) {
		return nil
	}
	return err
}
