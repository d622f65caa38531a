package chat

import (
	"sort"
	"strings"
	"time"
)

// ContextType links a conversation to the marketplace entity it was opened for.
type ContextType string

const (
	ContextNone     ContextType = ""
	ContextJob      ContextType = "job"
	ContextContract ContextType = "contract"
)

// Valid reports whether the context type is known.
func (t ContextType) Valid() bool {
	switch t {
	case ContextNone, ContextJob, ContextContract:
		return true
	}
	return false
}

// Conversation is a fixed set of two or more participants. ParticipantKey is
// the canonical form of that set; the store keeps it unique so that exactly
// one conversation exists per participant set.
type Conversation struct {
	ID             string      `db:"id"`
	CreatedAt      time.Time   `db:"created_at"`
	ParticipantKey string      `db:"participant_key"`
	ContextType    ContextType `db:"context_type"`
	ContextID      string      `db:"context_id"`
}

// NewConversation validates a participant set and returns the conversation
// to get-or-create along with the normalized participant ids.
func NewConversation(participantIDs []string, contextType ContextType, contextID string) (Conversation, []string, error) {
	ids := NormalizeParticipants(participantIDs)
	if len(ids) < 2 {
		return Conversation{}, nil, ErrTooFewParticipants
	}
	if !contextType.Valid() || (contextType == ContextNone) != (contextID == "") {
		return Conversation{}, nil, ErrInvalidContext
	}
	return Conversation{
		ParticipantKey: strings.Join(ids, ","),
		ContextType:    contextType,
		ContextID:      contextID,
	}, ids, nil
}

// NormalizeParticipants trims, dedupes and sorts user ids, dropping blanks.
func NormalizeParticipants(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
