package realtime

import (
	"sort"
	"sync"
	"time"
)

// TypingChange describes one transition of a (conversation, user) pair.
// Origin is the connection that caused it; it is empty for expiry and
// disconnect cleanup.
type TypingChange struct {
	ConversationID string
	UserID         string
	Typing         bool
	Origin         string
}

// TypingFunc observes typing transitions.
type TypingFunc func(change TypingChange)

type typingEntry struct {
	timer *time.Timer
	gen   uint64
}

// Typing holds the ephemeral set of typing users per conversation.
// Nothing here is persisted. Like Presence, transitions are reported under
// the tracker lock so start/stop for a pair reach observers in order.
type Typing struct {
	mu       sync.Mutex
	ttl      time.Duration
	gen      uint64
	convs    map[string]map[string]*typingEntry // conversationID -> userID -> entry
	onChange TypingFunc
}

// NewTyping builds a tracker. A positive ttl auto-stops a typing state that
// is not refreshed by another Start within ttl; zero keeps it until Stop or
// ClearUser.
func NewTyping(ttl time.Duration, onChange TypingFunc) *Typing {
	return &Typing{
		ttl:      ttl,
		convs:    make(map[string]map[string]*typingEntry),
		onChange: onChange,
	}
}

// Start moves the pair to Typing. It returns true on a NotTyping -> Typing
// transition; a repeated Start only re-arms the expiry.
func (t *Typing) Start(conversationID, userID, origin string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	users := t.convs[conversationID]
	if users == nil {
		users = make(map[string]*typingEntry)
		t.convs[conversationID] = users
	}

	entry, already := users[userID]
	if already {
		t.armLocked(conversationID, userID, entry)
		return false
	}

	entry = &typingEntry{}
	users[userID] = entry
	t.armLocked(conversationID, userID, entry)
	t.emitLocked(TypingChange{ConversationID: conversationID, UserID: userID, Typing: true, Origin: origin})
	return true
}

// Stop moves the pair to NotTyping. It returns true if the user was typing.
func (t *Typing) Stop(conversationID, userID, origin string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopLocked(conversationID, userID, origin)
}

// ClearUser removes the user from every conversation's typing set and
// returns the affected conversations, sorted.
func (t *Typing) ClearUser(userID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var cleared []string
	for convID, users := range t.convs {
		if _, ok := users[userID]; ok {
			cleared = append(cleared, convID)
		}
	}
	sort.Strings(cleared)
	for _, convID := range cleared {
		t.stopLocked(convID, userID, "")
	}
	return cleared
}

// IsTyping reports whether the user is typing in the conversation.
func (t *Typing) IsTyping(conversationID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.convs[conversationID][userID]
	return ok
}

// typers lists the users typing in a conversation, sorted.
func (t *Typing) typers(conversationID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.convs[conversationID]))
	for id := range t.convs[conversationID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Close cancels pending expiries and drops all state without emitting.
func (t *Typing) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, users := range t.convs {
		for _, e := range users {
			if e.timer != nil {
				e.timer.Stop()
			}
		}
	}
	t.convs = make(map[string]map[string]*typingEntry)
}

func (t *Typing) stopLocked(conversationID, userID, origin string) bool {
	users := t.convs[conversationID]
	entry, ok := users[userID]
	if !ok {
		return false
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	delete(users, userID)
	if len(users) == 0 {
		delete(t.convs, conversationID)
	}
	t.emitLocked(TypingChange{ConversationID: conversationID, UserID: userID, Typing: false, Origin: origin})
	return true
}

// armLocked (re)starts the expiry timer. The generation guards against a
// timer that already fired but lost the race for the lock to a refresh.
func (t *Typing) armLocked(conversationID, userID string, entry *typingEntry) {
	if t.ttl <= 0 {
		return
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	t.gen++
	gen := t.gen
	entry.gen = gen
	entry.timer = time.AfterFunc(t.ttl, func() {
		t.expire(conversationID, userID, gen)
	})
}

func (t *Typing) expire(conversationID, userID string, gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.convs[conversationID][userID]
	if !ok || entry.gen != gen {
		return
	}
	t.stopLocked(conversationID, userID, "")
}

func (t *Typing) emitLocked(change TypingChange) {
	if t.onChange != nil {
		t.onChange(change)
	}
}
