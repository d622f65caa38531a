package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

// recorder is an in-memory Endpoint that keeps every payload it accepts.
type recorder struct {
	id     string
	userID string

	mu       sync.Mutex
	payloads [][]byte
	fail     bool
}

func newRecorder(id, userID string) *recorder {
	return &recorder{id: id, userID: userID}
}

func (r *recorder) ID() string     { return r.id }
func (r *recorder) UserID() string { return r.userID }

func (r *recorder) Send(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("closed")
	}
	r.payloads = append(r.payloads, payload)
	return nil
}

func (r *recorder) types(t *testing.T) []string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.payloads))
	for _, p := range r.payloads {
		var env struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(p, &env); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		out = append(out, env.Type)
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}
