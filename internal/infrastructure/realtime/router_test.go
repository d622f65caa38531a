package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_JoinLeaveBroadcast(t *testing.T) {
	r := NewRouter()
	a1 := newRecorder("a1", "alice")
	a2 := newRecorder("a2", "alice")
	b1 := newRecorder("b1", "bob")

	for _, ep := range []*recorder{a1, a2, b1} {
		require.True(t, r.Attach(ep))
	}
	assert.False(t, r.Attach(a1), "attaching twice must be rejected")

	assert.True(t, r.Join("conv-1", "a1"))
	assert.True(t, r.Join("conv-1", "a2"))
	assert.True(t, r.Join("conv-1", "b1"))
	assert.False(t, r.Join("conv-1", "unknown"))
	assert.Equal(t, 3, r.roomSize("conv-1"))

	payload, err := Encode(EventTypingStart, TypingPayload{UserID: "alice", ConversationID: "conv-1"})
	require.NoError(t, err)

	delivered := r.Broadcast("conv-1", payload, "a1")
	assert.Equal(t, 2, delivered)
	assert.Equal(t, 0, a1.count())
	assert.Equal(t, 1, a2.count())
	assert.Equal(t, 1, b1.count())

	assert.True(t, r.Leave("conv-1", "b1"))
	assert.False(t, r.Leave("conv-1", "b1"))
	assert.False(t, r.IsJoined("conv-1", "b1"))
	assert.Equal(t, 2, r.Broadcast("conv-1", payload, ""))
	assert.Equal(t, 1, b1.count())
}

func TestRouter_DetachRemovesMembershipsAndIsIdempotent(t *testing.T) {
	r := NewRouter()
	a1 := newRecorder("a1", "alice")
	r.Attach(a1)
	r.Join("conv-2", "a1")
	r.Join("conv-1", "a1")

	assert.Equal(t, []string{"conv-1", "conv-2"}, r.Rooms("a1"))

	ep, rooms, ok := r.Detach("a1")
	require.True(t, ok)
	assert.Equal(t, a1, ep)
	assert.Equal(t, []string{"conv-1", "conv-2"}, rooms)
	assert.Equal(t, 0, r.roomSize("conv-1"))
	assert.Empty(t, r.Rooms("a1"))

	_, rooms, ok = r.Detach("a1")
	assert.False(t, ok)
	assert.Nil(t, rooms)
	assert.Equal(t, 0, r.ConnectionCount())
}

func TestRouter_BroadcastAllExcludesUser(t *testing.T) {
	r := NewRouter()
	a1 := newRecorder("a1", "alice")
	a2 := newRecorder("a2", "alice")
	b1 := newRecorder("b1", "bob")
	r.Attach(a1)
	r.Attach(a2)
	r.Attach(b1)

	payload, err := Encode(EventUserOnline, PresencePayload{UserID: "alice"})
	require.NoError(t, err)

	assert.Equal(t, 1, r.BroadcastAll(payload, "alice"))
	assert.Equal(t, []string{EventUserOnline}, b1.types(t))
	assert.Equal(t, 0, a1.count())
}

func TestRouter_FailedSendIsNotCounted(t *testing.T) {
	r := NewRouter()
	ok := newRecorder("ok", "alice")
	broken := newRecorder("broken", "bob")
	broken.fail = true
	r.Attach(ok)
	r.Attach(broken)
	r.Join("c", "ok")
	r.Join("c", "broken")

	assert.Equal(t, 1, r.Broadcast("c", []byte(`{}`), ""))
	assert.Equal(t, 1, r.BroadcastAll([]byte(`{}`), ""))
	assert.Equal(t, 2, ok.count())
}

func TestRouter_CloseClearsState(t *testing.T) {
	r := NewRouter()
	r.Attach(newRecorder("a1", "alice"))
	r.Join("c", "a1")

	dropped := r.Close()
	require.Len(t, dropped, 1)
	assert.Equal(t, "a1", dropped[0].ID())
	assert.Equal(t, 0, r.ConnectionCount())
	assert.Equal(t, 0, r.roomSize("c"))
}
