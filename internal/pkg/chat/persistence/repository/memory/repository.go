// Package memory is an in-process ChatRepository used by tests and local
// tooling. It mirrors the Postgres adapter's semantics, including monotonic
// per-conversation timestamps, and supports injecting failures per operation.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	chat "go-parley/internal/pkg/chat/application/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"

	"github.com/google/uuid"
)

// Operation names accepted by SetError and Calls.
const (
	OpGetOrCreateConversation = "GetOrCreateConversation"
	OpConversationIDsForUser  = "ConversationIDsForUser"
	OpIsParticipant           = "IsParticipant"
	OpListParticipantIDs      = "ListParticipantIDs"
	OpAppendMessage           = "AppendMessage"
	OpGetMessage              = "GetMessage"
	OpUpdateMessageBody       = "UpdateMessageBody"
	OpMarkMessageDeleted      = "MarkMessageDeleted"
	OpGetMessages             = "GetMessagesByConversation"
	OpMarkRead                = "MarkRead"
)

type conversation struct {
	conv         chat.Conversation
	participants []string
	messages     []chat.Message
	reads        map[string]ReadMarker
}

// ReadMarker is a participant's last-read position.
type ReadMarker struct {
	MessageID string
	At        time.Time
}

type Repository struct {
	mu     sync.Mutex
	convs  map[string]*conversation
	byKey  map[string]string
	errs   map[string]error
	calls  map[string]int
	now    func() time.Time
	before func(op string)
}

var _ repository.ChatRepository = (*Repository)(nil)

func New() *Repository {
	return &Repository{
		convs: make(map[string]*conversation),
		byKey: make(map[string]string),
		errs:  make(map[string]error),
		calls: make(map[string]int),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the wall clock used for created_at.
func (r *Repository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// SetError makes op fail with err until cleared with a nil err.
func (r *Repository) SetError(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.errs, op)
		return
	}
	r.errs[op] = err
}

// OnCall runs hook at the start of every operation, outside the lock.
func (r *Repository) OnCall(hook func(op string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.before = hook
}

// Calls reports how many times op was invoked.
func (r *Repository) Calls(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

// AddConversation creates a conversation for the given participants and
// returns its id.
func (r *Repository) AddConversation(participantIDs ...string) string {
	conv, ids, err := chat.NewConversation(participantIDs, chat.ContextNone, "")
	if err != nil {
		panic(err)
	}
	got, _, _ := r.GetOrCreateConversation(context.Background(), conv, ids)
	return got.ID
}

// Messages returns a copy of the conversation's log in persist order.
func (r *Repository) Messages(conversationID string) []chat.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[conversationID]
	if !ok {
		return nil
	}
	return slices.Clone(c.messages)
}

// Read returns the user's read marker.
func (r *Repository) Read(conversationID, userID string) (ReadMarker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[conversationID]
	if !ok {
		return ReadMarker{}, false
	}
	m, ok := c.reads[userID]
	return m, ok
}

func (r *Repository) enter(ctx context.Context, op string) error {
	r.mu.Lock()
	r.calls[op]++
	hook := r.before
	r.mu.Unlock()

	if hook != nil {
		hook(op)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errs[op]
}

func (r *Repository) GetOrCreateConversation(ctx context.Context, conv chat.Conversation, participantIDs []string) (chat.Conversation, bool, error) {
	if err := r.enter(ctx, OpGetOrCreateConversation); err != nil {
		return chat.Conversation{}, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byKey[conv.ParticipantKey]; ok {
		return r.convs[id].conv, false, nil
	}
	conv.ID = uuid.NewString()
	conv.CreatedAt = r.now()
	ids := slices.Clone(participantIDs)
	sort.Strings(ids)
	r.convs[conv.ID] = &conversation{conv: conv, participants: ids, reads: make(map[string]ReadMarker)}
	r.byKey[conv.ParticipantKey] = conv.ID
	return conv, true, nil
}

func (r *Repository) ConversationIDsForUser(ctx context.Context, userID string, limit int) ([]string, error) {
	if err := r.enter(ctx, OpConversationIDsForUser); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	type entry struct {
		id   string
		last time.Time
	}
	var entries []entry
	for id, c := range r.convs {
		if !slices.Contains(c.participants, userID) {
			continue
		}
		last := c.conv.CreatedAt
		if n := len(c.messages); n > 0 {
			last = c.messages[n-1].CreatedAt
		}
		entries = append(entries, entry{id: id, last: last})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].last.Equal(entries[j].last) {
			return entries[i].id < entries[j].id
		}
		return entries[i].last.After(entries[j].last)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.id
	}
	return out, nil
}

func (r *Repository) IsParticipant(ctx context.Context, conversationID string, userID string) (bool, error) {
	if err := r.enter(ctx, OpIsParticipant); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[conversationID]
	return ok && slices.Contains(c.participants, userID), nil
}

func (r *Repository) ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	if err := r.enter(ctx, OpListParticipantIDs); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[conversationID]
	if !ok {
		return nil, nil
	}
	return slices.Clone(c.participants), nil
}

func (r *Repository) AppendMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	if err := r.enter(ctx, OpAppendMessage); err != nil {
		return chat.Message{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[m.ConversationID]
	if !ok {
		return chat.Message{}, chat.ErrConversationNotFound
	}

	ts := r.now()
	if n := len(c.messages); n > 0 && ts.Before(c.messages[n-1].CreatedAt) {
		ts = c.messages[n-1].CreatedAt
	}
	m.ID = uuid.NewString()
	m.CreatedAt = ts
	m.Attachments = slices.Clone(m.Attachments)
	c.messages = append(c.messages, m)
	return m, nil
}

func (r *Repository) GetMessage(ctx context.Context, conversationID string, messageID string) (chat.Message, error) {
	if err := r.enter(ctx, OpGetMessage); err != nil {
		return chat.Message{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := r.findLocked(conversationID, messageID)
	if msg == nil {
		return chat.Message{}, chat.ErrMessageNotFound
	}
	return *msg, nil
}

func (r *Repository) UpdateMessageBody(ctx context.Context, conversationID string, messageID string, body string) (chat.Message, error) {
	if err := r.enter(ctx, OpUpdateMessageBody); err != nil {
		return chat.Message{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := r.findLocked(conversationID, messageID)
	if msg == nil {
		return chat.Message{}, chat.ErrMessageNotFound
	}
	if msg.IsDeleted() {
		return chat.Message{}, chat.ErrMessageDeleted
	}
	now := r.now()
	msg.Body = strings.TrimSpace(body)
	msg.EditedAt = &now
	return *msg, nil
}

func (r *Repository) MarkMessageDeleted(ctx context.Context, conversationID string, messageID string) (chat.Message, error) {
	if err := r.enter(ctx, OpMarkMessageDeleted); err != nil {
		return chat.Message{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := r.findLocked(conversationID, messageID)
	if msg == nil {
		return chat.Message{}, chat.ErrMessageNotFound
	}
	if msg.IsDeleted() {
		return chat.Message{}, chat.ErrMessageDeleted
	}
	now := r.now()
	msg.DeletedAt = &now
	msg.Body = ""
	msg.Attachments = nil
	return *msg, nil
}

func (r *Repository) GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error) {
	if err := r.enter(ctx, OpGetMessages); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[conversationID]
	if !ok {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var out []chat.Message
	for i := len(c.messages) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, c.messages[i])
	}
	return out, nil
}

func (r *Repository) MarkRead(ctx context.Context, conversationID string, userID string, messageID string, at time.Time) error {
	if err := r.enter(ctx, OpMarkRead); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[conversationID]
	if !ok || !slices.Contains(c.participants, userID) || r.findLocked(conversationID, messageID) == nil {
		return chat.ErrMessageNotFound
	}
	c.reads[userID] = ReadMarker{MessageID: messageID, At: at}
	return nil
}

func (r *Repository) findLocked(conversationID, messageID string) *chat.Message {
	c, ok := r.convs[conversationID]
	if !ok {
		return nil
	}
	for i := range c.messages {
		if c.messages[i].ID == messageID {
			return &c.messages[i]
		}
	}
	return nil
}
