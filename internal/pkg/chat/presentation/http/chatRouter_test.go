package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go-parley/internal/infrastructure/logging"
	"go-parley/internal/infrastructure/realtime"
	"go-parley/internal/pkg/auth"
	"go-parley/internal/pkg/chat/application/gateway"
	"go-parley/internal/pkg/chat/persistence/repository/memory"
	"go-parley/internal/pkg/chat/presentation/controller"
	httpHandler "go-parley/internal/pkg/chat/presentation/http"
	"go-parley/internal/pkg/notification"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtConfig = auth.JWTConfig{SecretKey: "router-test-secret"}

type nopBridge struct{}

func (nopBridge) Notify(context.Context, string, string, notification.Context) error { return nil }

type server struct {
	url  string
	repo *memory.Repository
	gw   *gateway.Gateway
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := memory.New()
	gw := gateway.New(repo, nopBridge{}, gateway.Config{}, logging.Discard())
	t.Cleanup(gw.Close)

	r := gin.New()
	httpHandler.RegisterRoutes(r.Group("/api/v1"), httpHandler.Deps{
		Repo:     repo,
		Gateway:  gw,
		Verifier: auth.NewJWTVerifier(jwtConfig),
		Timeout:  time.Second,
		Log:      logging.Discard(),
	})

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return &server{url: ts.URL, repo: repo, gw: gw}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.IssueToken(jwtConfig, userID, time.Minute)
	require.NoError(t, err)
	return tok
}

func (s *server) do(t *testing.T, method, path, userID string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.url+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (s *server) wsURL() string {
	return "ws" + strings.TrimPrefix(s.url, "http") + "/api/v1/chat/ws"
}

func (s *server) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	ws, resp, err := websocket.DefaultDialer.Dial(s.wsURL()+"?token="+url.QueryEscape(token(t, userID)), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	t.Cleanup(func() { _ = ws.Close() })

	f := readUntil(t, ws, realtime.EventConnected)
	var ack realtime.ConnectedPayload
	require.NoError(t, json.Unmarshal(f.Data, &ack))
	require.Equal(t, userID, ack.UserID)
	return ws
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readUntil(t *testing.T, ws *websocket.Conn, eventType string) frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f frame
		require.NoError(t, ws.ReadJSON(&f))
		if f.Type == eventType {
			return f
		}
	}
}

func TestSocket_RejectsUnauthenticatedHandshake(t *testing.T) {
	s := newServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(s.wsURL(), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	_, resp, err = websocket.DefaultDialer.Dial(s.wsURL()+"?token=garbage", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	assert.Equal(t, 0, s.gw.ConnectionCount())
}

func TestSocket_BearerSubprotocol(t *testing.T) {
	s := newServer(t)

	dialer := websocket.Dialer{Subprotocols: []string{auth.BearerSubprotocol, token(t, "alice")}}
	ws, resp, err := dialer.Dial(s.wsURL(), nil)
	require.NoError(t, err)
	defer ws.Close()
	_ = resp.Body.Close()

	assert.Equal(t, auth.BearerSubprotocol, ws.Subprotocol())
	readUntil(t, ws, realtime.EventConnected)
	assert.True(t, s.gw.IsOnline("alice"))
}

func TestChatFlow_CreateSendAndHistory(t *testing.T) {
	s := newServer(t)

	status, body := s.do(t, http.MethodPost, "/api/v1/chat", "alice", map[string]any{
		"participant_ids": []string{"bob"},
		"context_type":    "job",
		"context_id":      "job-7",
	})
	require.Equal(t, http.StatusCreated, status, body)
	convID, _ := body["id"].(string)
	require.NotEmpty(t, convID)

	status, again := s.do(t, http.MethodPost, "/api/v1/chat", "bob", map[string]any{
		"participant_ids": []string{"alice"},
		"context_type":    "job",
		"context_id":      "job-7",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, convID, again["id"])

	bob := s.dial(t, "bob")
	alice := s.dial(t, "alice")

	require.NoError(t, alice.WriteJSON(map[string]any{"type": "message:send", "conversationId": convID, "content": "hello"}))

	f := readUntil(t, bob, realtime.EventMessageNew)
	var got gateway.MessagePayload
	require.NoError(t, json.Unmarshal(f.Data, &got))
	assert.Equal(t, "hello", got.Message.Content)
	assert.Equal(t, "alice", got.Message.SenderID)

	status, _ = s.do(t, http.MethodPost, "/api/v1/chat/"+convID+"/messages", "bob", map[string]any{"content": "hi alice"})
	require.Equal(t, http.StatusCreated, status)
	f = readUntil(t, alice, realtime.EventMessageNew)
	require.NoError(t, json.Unmarshal(f.Data, &got))
	assert.Equal(t, "hi alice", got.Message.Content)

	status, history := s.do(t, http.MethodGet, "/api/v1/chat/"+convID+"/messages?limit=10", "bob", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, history["count"])

	status, denied := s.do(t, http.MethodGet, "/api/v1/chat/"+convID+"/messages", "mallory", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, gateway.CodeForbidden, denied["code"])

	status, _ = s.do(t, http.MethodPost, "/api/v1/chat/"+convID+"/messages", "mallory", map[string]any{"content": "spam"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Len(t, s.repo.Messages(convID), 2)
}

func TestCreateChat_Validation(t *testing.T) {
	s := newServer(t)

	status, _ := s.do(t, http.MethodPost, "/api/v1/chat", "alice", map[string]any{"participant_ids": []string{"alice"}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/chat", "alice", map[string]any{"participant_ids": []string{"bob"}, "context_type": "job"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := s.do(t, http.MethodPost, "/api/v1/chat", "", map[string]any{"participant_ids": []string{"bob"}})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "missing credential", body["error"])
}

func TestPresenceEndpoint(t *testing.T) {
	s := newServer(t)

	status, body := s.do(t, http.MethodGet, "/api/v1/presence/bob", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["online"])

	bob := s.dial(t, "bob")

	_, body = s.do(t, http.MethodGet, "/api/v1/presence/bob", "alice", nil)
	assert.Equal(t, true, body["online"])
	assert.Equal(t, "bob", body["user_id"])

	require.NoError(t, bob.Close())
	require.Eventually(t, func() bool {
		_, body := s.do(t, http.MethodGet, "/api/v1/presence/bob", "alice", nil)
		return body["online"] == false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHealthController(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", controller.NewHealthController(map[string]controller.Pinger{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}, time.Second).Handle())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "DEGRADED", body.Status)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "connection refused"}, body.Dependencies)
}
