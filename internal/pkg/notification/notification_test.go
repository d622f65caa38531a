package notification

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go-parley/internal/infrastructure/logging"
	qport "go-parley/internal/infrastructure/queue/port"
	chat "go-parley/internal/pkg/chat/application/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	mu    sync.Mutex
	tasks []qport.Task
	opts  [][]qport.EnqueueOption
	err   error
}

func (c *recordingClient) Enqueue(_ context.Context, t qport.Task, opts ...qport.EnqueueOption) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	c.tasks = append(c.tasks, t)
	c.opts = append(c.opts, opts)
	return "task-1", nil
}

func (c *recordingClient) Close() error { return nil }

type handlerServer struct {
	handlers map[string]qport.Handler
}

func (s *handlerServer) Register(taskType string, h qport.Handler) {
	if s.handlers == nil {
		s.handlers = map[string]qport.Handler{}
	}
	s.handlers[taskType] = h
}

func (s *handlerServer) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

type recordingSink struct {
	mu   sync.Mutex
	got  []Notification
	err  error
	done chan struct{}
}

func (s *recordingSink) Deliver(_ context.Context, n Notification) error {
	s.mu.Lock()
	s.got = append(s.got, n)
	s.mu.Unlock()
	if s.done != nil {
		s.done <- struct{}{}
	}
	return s.err
}

func (s *recordingSink) delivered() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.got...)
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("ab ", 60)

	tests := []struct {
		name string
		msg  chat.Message
		max  int
		want string
	}{
		{name: "short", msg: chat.Message{Body: "hello"}, want: "hello"},
		{name: "collapses whitespace", msg: chat.Message{Body: "hello\n\n  world"}, want: "hello world"},
		{name: "truncates by rune", msg: chat.Message{Body: "héllo wörld"}, max: 5, want: "héllo…"},
		{name: "default length", msg: chat.Message{Body: long}, want: strings.TrimSpace(strings.Join(strings.Fields(long), " ")[:DefaultPreviewLength]) + "…"},
		{name: "attachment only", msg: chat.Message{Attachments: []chat.Attachment{{URL: "https://x"}}}, want: "[attachment]"},
		{name: "empty", msg: chat.Message{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.msg, tt.max))
		})
	}
}

func TestQueueBridge_Notify(t *testing.T) {
	client := &recordingClient{}
	bridge := NewQueueBridge(client)

	err := bridge.Notify(context.Background(), "bob", "hello", Context{ConversationID: "c1", MessageID: "m1"})
	require.NoError(t, err)

	require.Len(t, client.tasks, 1)
	assert.Equal(t, MessageTaskType, client.tasks[0].Type)

	var n Notification
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload, &n))
	assert.Equal(t, Notification{UserID: "bob", Preview: "hello", Context: Context{ConversationID: "c1", MessageID: "m1"}}, n)

	require.Len(t, client.opts[0], 1)
	assert.Equal(t, Queue, client.opts[0][0].Queue)
	assert.Equal(t, maxRetry, client.opts[0][0].MaxRetry)
}

func TestQueueBridge_DuplicateIsNotAnError(t *testing.T) {
	client := &recordingClient{err: qport.ErrDuplicateTask}
	assert.NoError(t, NewQueueBridge(client).Notify(context.Background(), "bob", "hello", Context{}))

	client.err = errors.New("redis down")
	assert.Error(t, NewQueueBridge(client).Notify(context.Background(), "bob", "hello", Context{}))
}

func TestRegisterHandlers(t *testing.T) {
	srv := &handlerServer{}
	sink := &recordingSink{}
	RegisterHandlers(srv, sink, logging.Discard())

	h, ok := srv.handlers[MessageTaskType]
	require.True(t, ok)

	payload, err := json.Marshal(Notification{UserID: "bob", Preview: "hi", Context: Context{ConversationID: "c1", MessageID: "m1"}})
	require.NoError(t, err)
	require.NoError(t, h(context.Background(), qport.Task{Type: MessageTaskType, Payload: payload}))
	assert.Equal(t, []Notification{{UserID: "bob", Preview: "hi", Context: Context{ConversationID: "c1", MessageID: "m1"}}}, sink.delivered())

	err = h(context.Background(), qport.Task{Type: MessageTaskType, Payload: []byte("{")})
	assert.ErrorIs(t, err, qport.ErrSkipRetry)

	err = h(context.Background(), qport.Task{Type: MessageTaskType, Payload: []byte(`{"preview":"x"}`)})
	assert.ErrorIs(t, err, qport.ErrSkipRetry)

	sink.err = errors.New("provider unavailable")
	err = h(context.Background(), qport.Task{Type: MessageTaskType, Payload: payload})
	assert.EqualError(t, err, "provider unavailable")
}

func TestDirectBridge_DeliversInBackground(t *testing.T) {
	sink := &recordingSink{err: errors.New("provider unavailable"), done: make(chan struct{}, 1)}
	bridge := NewDirectBridge(sink, time.Second, logging.Discard())

	require.NoError(t, bridge.Notify(context.Background(), "bob", "hello", Context{ConversationID: "c1", MessageID: "m1"}))

	select {
	case <-sink.done:
	case <-time.After(time.Second):
		t.Fatal("notification was not delivered")
	}
	bridge.Close()
	assert.Len(t, sink.delivered(), 1)
}
