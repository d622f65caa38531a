package realtime

import (
	"sort"
	"sync"
)

// Router tracks live endpoints and the conversation rooms each one has
// joined. Rooms exist only while they have members; membership is never
// persisted. A user may hold any number of endpoints at once.
type Router struct {
	mu        sync.RWMutex
	endpoints map[string]Endpoint            // connectionID -> endpoint
	rooms     map[string]map[string]Endpoint // conversationID -> connectionID -> endpoint
	connRooms map[string]map[string]struct{} // connectionID -> set of conversationIDs
}

// NewRouter constructs an initialized Router.
func NewRouter() *Router {
	return &Router{
		endpoints: make(map[string]Endpoint),
		rooms:     make(map[string]map[string]Endpoint),
		connRooms: make(map[string]map[string]struct{}),
	}
}

// Attach starts tracking ep. It reports false when the id is already attached.
func (r *Router) Attach(ep Endpoint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.endpoints[ep.ID()]; ok {
		return false
	}
	r.endpoints[ep.ID()] = ep
	return true
}

// Detach removes the endpoint from every room and stops tracking it.
// It returns the rooms it was in and false if the endpoint was unknown,
// which makes repeated detaches harmless.
func (r *Router) Detach(connectionID string) (Endpoint, []string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.endpoints[connectionID]
	if !ok {
		return nil, nil, false
	}
	delete(r.endpoints, connectionID)

	left := make([]string, 0, len(r.connRooms[connectionID]))
	for roomID := range r.connRooms[connectionID] {
		left = append(left, roomID)
		r.leaveLocked(roomID, connectionID)
	}
	delete(r.connRooms, connectionID)
	sort.Strings(left)
	return ep, left, true
}

// Join adds the endpoint to the conversation room. Unknown endpoints are ignored.
func (r *Router) Join(conversationID, connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.endpoints[connectionID]
	if !ok || conversationID == "" {
		return false
	}

	room := r.rooms[conversationID]
	if room == nil {
		room = make(map[string]Endpoint)
		r.rooms[conversationID] = room
	}
	room[connectionID] = ep

	memberships := r.connRooms[connectionID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		r.connRooms[connectionID] = memberships
	}
	memberships[conversationID] = struct{}{}
	return true
}

// Leave removes the endpoint from the conversation room.
func (r *Router) Leave(conversationID, connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(conversationID, connectionID)
}

// IsJoined reports whether the endpoint is currently in the room.
func (r *Router) IsJoined(conversationID, connectionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[conversationID][connectionID]
	return ok
}

// Rooms lists the conversations the endpoint has joined, sorted.
func (r *Router) Rooms(connectionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.connRooms[connectionID]))
	for id := range r.connRooms[connectionID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Broadcast delivers payload to every endpoint in the room except
// excludeConnectionID (empty excludes nobody) and returns the delivery count.
func (r *Router) Broadcast(conversationID string, payload []byte, excludeConnectionID string) int {
	r.mu.RLock()
	targets := make([]Endpoint, 0, len(r.rooms[conversationID]))
	for id, ep := range r.rooms[conversationID] {
		if excludeConnectionID != "" && id == excludeConnectionID {
			continue
		}
		targets = append(targets, ep)
	}
	r.mu.RUnlock()
	return deliver(targets, payload)
}

// BroadcastAll delivers payload to every attached endpoint not owned by excludeUserID.
func (r *Router) BroadcastAll(payload []byte, excludeUserID string) int {
	r.mu.RLock()
	targets := make([]Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		if excludeUserID != "" && ep.UserID() == excludeUserID {
			continue
		}
		targets = append(targets, ep)
	}
	r.mu.RUnlock()
	return deliver(targets, payload)
}

// ConnectionCount returns the number of attached endpoints.
func (r *Router) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.endpoints)
}

func (r *Router) roomSize(conversationID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[conversationID])
}

type closer interface {
	Close(code int, reason string)
}

// Close closes every endpoint that supports it, clears router state and
// returns the endpoints it dropped.
func (r *Router) Close() []Endpoint {
	r.mu.Lock()
	eps := make([]Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		eps = append(eps, ep)
	}
	r.endpoints = make(map[string]Endpoint)
	r.rooms = make(map[string]map[string]Endpoint)
	r.connRooms = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, ep := range eps {
		if c, ok := ep.(closer); ok {
			c.Close(1001, "server shutdown")
		}
	}
	return eps
}

func (r *Router) leaveLocked(conversationID, connectionID string) bool {
	room := r.rooms[conversationID]
	if room == nil {
		return false
	}
	if _, ok := room[connectionID]; !ok {
		return false
	}
	delete(room, connectionID)
	if len(room) == 0 {
		delete(r.rooms, conversationID)
	}
	if memberships, ok := r.connRooms[connectionID]; ok {
		delete(memberships, conversationID)
		if len(memberships) == 0 {
			delete(r.connRooms, connectionID)
		}
	}
	return true
}

// deliver runs outside the router lock: a full buffer makes Send close the
// endpoint, and close handling must be free to re-enter the router.
func deliver(targets []Endpoint, payload []byte) int {
	delivered := 0
	for _, ep := range targets {
		if err := ep.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}
