package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialConnection serves one websocket upgrade and returns the server side
// wrapped in a started Connection along with the client socket.
func dialConnection(t *testing.T) (*Connection, *websocket.Conn) {
	t.Helper()

	conns := make(chan *Connection, 1)
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewConnection("alice", ws)
		conn.Start()
		conns <- conn
	}))
	t.Cleanup(ts.Close)

	client, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = client.Close() })

	select {
	case conn := <-conns:
		t.Cleanup(func() { conn.Close(websocket.CloseNormalClosure, "") })
		return conn, client
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the connection")
		return nil, nil
	}
}

func TestConnection_SendDelivers(t *testing.T) {
	conn, client := dialConnection(t)

	require.NoError(t, conn.Send([]byte(`{"type":"connected"}`)))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"connected"}`, string(msg))
}

func TestConnection_SendToStalledPeerNeverBlocks(t *testing.T) {
	conn, _ := dialConnection(t)

	// The client never reads, so the socket fills, the writer stalls and
	// the buffer runs out. Every Send must still return right away.
	payload := []byte(strings.Repeat("x", 1<<20))
	var (
		slowest time.Duration
		lastErr error
	)
	for i := 0; i < 4*sendBufferSize && lastErr == nil; i++ {
		start := time.Now()
		lastErr = conn.Send(payload)
		if d := time.Since(start); d > slowest {
			slowest = d
		}
	}

	require.ErrorIs(t, lastErr, ErrBufferExceeded)
	assert.Less(t, slowest, 500*time.Millisecond)

	select {
	case <-conn.Done():
	default:
		t.Fatal("connection left open after its buffer overflowed")
	}

	start := time.Now()
	assert.ErrorIs(t, conn.Send(payload), ErrConnectionClosed)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestConnection_CloseIsPromptAndIdempotent(t *testing.T) {
	conn, client := dialConnection(t)

	start := time.Now()
	conn.Close(websocket.CloseGoingAway, "server shutdown")
	conn.Close(websocket.CloseGoingAway, "server shutdown")
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := client.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
