package realtime

import "sync"

// TransitionFunc observes a user going online (true) or offline (false).
type TransitionFunc func(userID string, online bool)

// Presence maps each user to the set of their live connection ids.
// A user is present in the map if and only if the set is non-empty.
//
// Transitions are reported while the registry lock is held, right after the
// mutation that caused them, so each one fires exactly once and per-user
// transitions are observed in mutation order. The callback must not call
// back into Presence.
type Presence struct {
	mu           sync.Mutex
	users        map[string]map[string]struct{}
	onTransition TransitionFunc
}

// NewPresence builds a registry. onTransition may be nil.
func NewPresence(onTransition TransitionFunc) *Presence {
	return &Presence{
		users:        make(map[string]map[string]struct{}),
		onTransition: onTransition,
	}
}

// Register adds connectionID to the user's set. It returns true when this
// was the user's first connection, in which case an online transition fired.
func (p *Presence) Register(userID, connectionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	conns := p.users[userID]
	if conns == nil {
		conns = make(map[string]struct{})
		p.users[userID] = conns
	}
	if _, dup := conns[connectionID]; dup {
		return false
	}
	conns[connectionID] = struct{}{}

	if len(conns) != 1 {
		return false
	}
	if p.onTransition != nil {
		p.onTransition(userID, true)
	}
	return true
}

// Unregister removes connectionID from the user's set. It returns true when
// the set became empty, in which case the entry was deleted and an offline
// transition fired. Unknown pairs are a no-op.
func (p *Presence) Unregister(userID, connectionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	conns, ok := p.users[userID]
	if !ok {
		return false
	}
	if _, ok := conns[connectionID]; !ok {
		return false
	}
	delete(conns, connectionID)

	if len(conns) != 0 {
		return false
	}
	delete(p.users, userID)
	if p.onTransition != nil {
		p.onTransition(userID, false)
	}
	return true
}

// IsOnline reports whether the user has at least one live connection.
func (p *Presence) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.users[userID]
	return ok
}

// connectionCount returns how many live connections the user holds.
func (p *Presence) connectionCount(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.users[userID])
}

func (p *Presence) onlineCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.users)
}
