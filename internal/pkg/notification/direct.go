package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DirectBridge delivers in a background goroutine without a queue. It is used
// when no Redis is configured; a failed delivery is logged and dropped.
type DirectBridge struct {
	sink    Sink
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

var _ Bridge = (*DirectBridge)(nil)

func NewDirectBridge(sink Sink, timeout time.Duration, log *slog.Logger) *DirectBridge {
	if timeout <= 0 {
		timeout = taskTimeout
	}
	return &DirectBridge{sink: sink, log: log.With("component", "notification_bridge"), timeout: timeout}
}

// Notify never blocks on delivery. The caller's ctx is not used for the
// delivery itself, which outlives the request that triggered it.
func (b *DirectBridge) Notify(_ context.Context, userID string, preview string, nctx Context) error {
	n := Notification{UserID: userID, Preview: preview, Context: nctx}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		if err := b.sink.Deliver(ctx, n); err != nil {
			b.log.Warn("notification delivery failed", "user_id", n.UserID, "message_id", n.Context.MessageID, "error", err)
		}
	}()
	return nil
}

// Close waits for in-flight deliveries.
func (b *DirectBridge) Close() {
	b.wg.Wait()
}
