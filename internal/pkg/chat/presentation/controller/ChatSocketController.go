package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go-parley/internal/infrastructure/realtime"
	"go-parley/internal/pkg/auth"
	"go-parley/internal/pkg/chat/application/gateway"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ChatSocketController handles the websocket endpoint for realtime chat traffic.
// It authenticates the handshake, then hands the connection and every
// inbound frame to the gateway.
type ChatSocketController struct {
	gateway  *gateway.Gateway
	verifier auth.Verifier
	timeout  time.Duration
	log      *slog.Logger
}

func NewChatSocketController(gw *gateway.Gateway, verifier auth.Verifier, timeout time.Duration, log *slog.Logger) *ChatSocketController {
	return &ChatSocketController{
		gateway:  gw,
		verifier: verifier,
		timeout:  timeout,
		log:      log.With("component", "socket"),
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// echoes the subprotocol browsers use to carry the bearer token
	Subprotocols: []string{auth.BearerSubprotocol},
	CheckOrigin: func(r *http.Request) bool {
		// Token auth, not cookies, so cross-origin upgrades carry no ambient credential.
		return true
	},
}

const (
	defaultReadTimeout = 60 * time.Second
	maxFrameSize       = 64 << 10
)

// Handle verifies the credential, upgrades HTTP connections to websocket and
// processes frames until the client disconnects. A rejected handshake never
// touches presence or rooms.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := ctl.authenticate(c.Request)
		if err != nil {
			ctl.log.Info("handshake rejected", "remote", c.ClientIP(), "reason", auth.Reason(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": auth.Reason(err)})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just log and return.
			ctl.log.Debug("upgrade failed", "user_id", userID, "error", err)
			return
		}

		conn := realtime.NewConnection(userID, ws)
		conn.Start()

		ctx := c.Request.Context()
		if err := ctl.gateway.Connect(ctx, conn); err != nil {
			ctl.log.Error("connect failed", "user_id", userID, "error", err)
			conn.Close(websocket.CloseInternalServerErr, "connect failed")
			return
		}
		defer func() {
			ctl.gateway.Disconnect(conn.ID())
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(maxFrameSize)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
					ctl.log.Debug("connection lost", "user_id", userID, "connection_id", conn.ID(), "error", err)
				}
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
			ctl.gateway.Dispatch(ctx, conn, data)
		}
	}
}

func (ctl *ChatSocketController) authenticate(r *http.Request) (string, error) {
	ctx := r.Context()
	if ctl.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ctl.timeout)
		defer cancel()
	}
	return ctl.verifier.Verify(ctx, auth.CredentialFromRequest(r))
}
