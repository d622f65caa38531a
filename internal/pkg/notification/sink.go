package notification

import (
	"context"
	"log/slog"
)

// LogSink records notifications in the log. It stands in for a push or email
// provider, which lives outside this service.
type LogSink struct {
	log *slog.Logger
}

var _ Sink = (*LogSink)(nil)

func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log.With("component", "notification_sink")}
}

func (s *LogSink) Deliver(ctx context.Context, n Notification) error {
	s.log.InfoContext(ctx, "offline notification",
		"user_id", n.UserID,
		"conversation_id", n.Context.ConversationID,
		"message_id", n.Context.MessageID,
		"preview", n.Preview,
	)
	return nil
}
