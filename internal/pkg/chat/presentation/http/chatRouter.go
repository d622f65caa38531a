package http

import (
	"log/slog"
	"time"

	"go-parley/internal/pkg/auth"
	"go-parley/internal/pkg/chat/application/gateway"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
	"go-parley/internal/pkg/chat/presentation/controller"

	"github.com/gin-gonic/gin"
)

// Deps carries what the chat endpoints are built from.
type Deps struct {
	Repo     repository.ChatRepository
	Gateway  *gateway.Gateway
	Verifier auth.Verifier
	// Timeout bounds identity verification and store calls per request.
	Timeout time.Duration
	Log     *slog.Logger
}

const defaultTimeout = 5 * time.Second

// RegisterRoutes registers chat-related HTTP endpoints under the given router group
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, d Deps) {
	if d.Timeout <= 0 {
		d.Timeout = defaultTimeout
	}

	createCtl := controller.NewCreateChatController(d.Repo, d.Timeout, d.Log)
	sendMsgCtl := controller.NewSendMessageController(d.Gateway.Pipeline(), d.Log)
	getMsgCtl := controller.NewGetMessageController(d.Repo, d.Timeout, d.Log)
	presenceCtl := controller.NewPresenceController(d.Gateway)
	socketCtl := controller.NewChatSocketController(d.Gateway, d.Verifier, d.Timeout, d.Log)

	// GET /api/v1/chat/ws -> websocket endpoint; authenticates its own handshake
	g.GET("/chat/ws", socketCtl.Handle())

	authed := g.Group("", auth.Middleware(d.Verifier, d.Timeout))

	// POST /api/v1/chat -> get or create a chat
	authed.POST("/chat", createCtl.Handle())

	// POST /api/v1/chat/:chatId/messages -> send a message into a chat
	authed.POST("/chat/:chatId/messages", sendMsgCtl.Handle())

	// GET /api/v1/chat/:chatId/messages -> fetch messages by chat id
	authed.GET("/chat/:chatId/messages", getMsgCtl.Handle())

	// GET /api/v1/presence/:userId -> is the user connected
	authed.GET("/presence/:userId", presenceCtl.Handle())
}
