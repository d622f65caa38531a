package port

import (
	"context"
	"errors"
	"time"
)

// Task is a background job: a stable type name plus opaque payload bytes.
// Payload encoding belongs to the producer/handler pair.
type Task struct {
	Type    string
	Payload []byte
}

// Handler processes a Task. A non-nil error asks the adapter to retry.
// Handlers must be idempotent.
type Handler func(ctx context.Context, task Task) error

// EnqueueOption controls enqueue behavior. Zero values mean "unspecified".
type EnqueueOption struct {
	Queue     string        // logical queue name
	ProcessIn time.Duration // delay before processing
	MaxRetry  int           // max retries for the task
	UniqueTTL time.Duration // enforce uniqueness within TTL window
	Timeout   time.Duration // per-attempt processing timeout
}

// Client enqueues tasks for background processing.
type Client interface {
	Enqueue(ctx context.Context, t Task, opts ...EnqueueOption) (id string, err error)
	Close() error
}

// Server runs workers for registered task types until Run's context ends.
type Server interface {
	Register(taskType string, h Handler)
	Run(ctx context.Context) error
}

var (
	// ErrSkipRetry wrapped into a handler error marks the task as permanently
	// failed, e.g. for an undecodable payload.
	ErrSkipRetry = errors.New("queue: skip retry")
	// ErrDuplicateTask is returned by Enqueue when a unique task is already queued.
	ErrDuplicateTask = errors.New("queue: duplicate task")
)
