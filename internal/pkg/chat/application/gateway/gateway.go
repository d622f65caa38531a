// Package gateway is the realtime core: connection lifecycle, presence
// transitions, room membership, command dispatch and the message pipeline.
// The transport (websocket controller) only authenticates, then hands each
// connection and frame to the Gateway.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go-parley/internal/infrastructure/realtime"
	"go-parley/internal/pkg/chat/application/usecase"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
	"go-parley/internal/pkg/notification"
)

// Config tunes the gateway. Zero values pick the defaults.
type Config struct {
	DependencyTimeout time.Duration
	TypingTTL         time.Duration
	JoinAllLimit      int
	PreviewLength     int
}

const defaultDependencyTimeout = 5 * time.Second

// ErrDuplicateConnection is returned by Connect for an id already attached.
var ErrDuplicateConnection = errors.New("gateway: connection already attached")

type Gateway struct {
	router   *realtime.Router
	presence *realtime.Presence
	typing   *realtime.Typing
	pipeline *Pipeline

	listConversationsUC *usecase.ListConversationsUseCase
	joinConversationUC  *usecase.JoinConversationUseCase
	markReadUC          *usecase.MarkReadUseCase

	cfg Config
	log *slog.Logger
}

func New(repo repository.ChatRepository, bridge notification.Bridge, cfg Config, log *slog.Logger) *Gateway {
	if cfg.DependencyTimeout <= 0 {
		cfg.DependencyTimeout = defaultDependencyTimeout
	}
	if cfg.JoinAllLimit <= 0 {
		cfg.JoinAllLimit = usecase.DefaultConversationLimit
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = notification.DefaultPreviewLength
	}
	log = log.With("component", "gateway")

	g := &Gateway{
		router:              realtime.NewRouter(),
		listConversationsUC: usecase.NewListConversationsUseCase(repo),
		joinConversationUC:  usecase.NewJoinConversationUseCase(repo),
		markReadUC:          usecase.NewMarkReadUseCase(repo),
		cfg:                 cfg,
		log:                 log,
	}
	g.presence = realtime.NewPresence(g.onPresence)
	g.typing = realtime.NewTyping(cfg.TypingTTL, g.onTyping)
	g.pipeline = newPipeline(repo, g.router, g.presence, bridge, cfg, log)
	return g
}

// Pipeline exposes the message pipeline to non-socket entry points.
func (g *Gateway) Pipeline() *Pipeline { return g.pipeline }

// IsOnline reports whether the user has at least one live connection.
func (g *Gateway) IsOnline(userID string) bool { return g.presence.IsOnline(userID) }

// ConnectionCount is the number of attached connections.
func (g *Gateway) ConnectionCount() int { return g.router.ConnectionCount() }

// Connect registers an authenticated connection: presence first, then an
// auto-join to the user's recent conversations. A failed conversation lookup
// leaves the connection usable without rooms.
func (g *Gateway) Connect(ctx context.Context, ep realtime.Endpoint) error {
	if !g.router.Attach(ep) {
		return ErrDuplicateConnection
	}
	g.presence.Register(ep.UserID(), ep.ID())

	joined := g.joinAll(ctx, ep)

	g.reply(ep, realtime.EventConnected, realtime.ConnectedPayload{
		UserID:        ep.UserID(),
		ConnectionID:  ep.ID(),
		Conversations: joined,
	})
	g.log.Debug("connection registered", "user_id", ep.UserID(), "connection_id", ep.ID(), "rooms", len(joined))
	return nil
}

func (g *Gateway) joinAll(ctx context.Context, ep realtime.Endpoint) []string {
	ctx, cancel := withTimeout(ctx, g.cfg.DependencyTimeout)
	defer cancel()

	ids, err := g.listConversationsUC.Execute(ctx, usecase.ListConversationsInput{UserID: ep.UserID(), Limit: g.cfg.JoinAllLimit})
	if err != nil {
		g.log.Warn("auto-join failed", "user_id", ep.UserID(), "connection_id", ep.ID(), "error", err)
		return []string{}
	}

	joined := make([]string, 0, len(ids))
	for _, id := range ids {
		if g.router.Join(id, ep.ID()) {
			joined = append(joined, id)
		}
	}
	return joined
}

// Disconnect tears a connection down: rooms, then presence, then, if that
// was the user's last connection, every typing state of the user. Calling
// it again for the same connection does nothing.
func (g *Gateway) Disconnect(connectionID string) {
	ep, _, ok := g.router.Detach(connectionID)
	if !ok {
		return
	}
	g.release(ep)
}

// release drops presence for a detached endpoint and clears the user's
// typing state once no connection is left.
func (g *Gateway) release(ep realtime.Endpoint) {
	userID := ep.UserID()
	if !g.presence.Unregister(userID, ep.ID()) {
		return
	}
	if cleared := g.typing.ClearUser(userID); len(cleared) > 0 {
		g.log.Debug("typing cleared on disconnect", "user_id", userID, "conversations", len(cleared))
	}
}

// Dispatch decodes one client frame and runs it. Failures are reported to
// the originating connection only.
func (g *Gateway) Dispatch(ctx context.Context, ep realtime.Endpoint, raw []byte) {
	cmd, err := ParseCommand(raw)
	if err != nil {
		g.replyError(ep, cmd.Name, err)
		return
	}

	opCtx, cancel := withTimeout(ctx, g.cfg.DependencyTimeout)
	defer cancel()

	switch cmd.Type {
	case CommandJoin:
		err = g.join(opCtx, ep, cmd)
	case CommandLeave:
		g.router.Leave(cmd.ConversationID, ep.ID())
		g.reply(ep, realtime.EventRoomLeft, realtime.RoomPayload{ConversationID: cmd.ConversationID})
	case CommandSend:
		_, err = g.pipeline.Send(ctx, usecase.SendMessageInput{
			ConversationID: cmd.ConversationID,
			SenderID:       ep.UserID(),
			Body:           cmd.Content,
			Attachments:    cmd.Attachments,
		})
	case CommandEdit:
		_, err = g.pipeline.Edit(ctx, usecase.EditMessageInput{
			ConversationID: cmd.ConversationID,
			MessageID:      cmd.MessageID,
			UserID:         ep.UserID(),
			Body:           cmd.Content,
		})
	case CommandDelete:
		_, err = g.pipeline.Delete(ctx, usecase.DeleteMessageInput{
			ConversationID: cmd.ConversationID,
			MessageID:      cmd.MessageID,
			UserID:         ep.UserID(),
		})
	case CommandTypingStart:
		if !g.router.IsJoined(cmd.ConversationID, ep.ID()) {
			err = ErrNotJoined
			break
		}
		g.typing.Start(cmd.ConversationID, ep.UserID(), ep.ID())
	case CommandTypingStop:
		g.typing.Stop(cmd.ConversationID, ep.UserID(), ep.ID())
	case CommandRead:
		err = g.markRead(opCtx, ep, cmd)
	}

	if err != nil {
		g.replyError(ep, cmd.Name, err)
	}
}

func (g *Gateway) join(ctx context.Context, ep realtime.Endpoint, cmd Command) error {
	err := g.joinConversationUC.Execute(ctx, usecase.JoinConversationInput{
		ConversationID: cmd.ConversationID,
		UserID:         ep.UserID(),
	})
	if err != nil {
		return err
	}
	g.router.Join(cmd.ConversationID, ep.ID())
	g.reply(ep, realtime.EventRoomJoined, realtime.RoomPayload{ConversationID: cmd.ConversationID})
	return nil
}

func (g *Gateway) markRead(ctx context.Context, ep realtime.Endpoint, cmd Command) error {
	err := g.markReadUC.Execute(ctx, usecase.MarkReadInput{
		ConversationID: cmd.ConversationID,
		UserID:         ep.UserID(),
		MessageID:      cmd.MessageID,
	})
	if err != nil {
		return err
	}
	payload, err := realtime.Encode(realtime.EventMessageRead, ReadPayload{
		MessageID:      cmd.MessageID,
		ReadBy:         ep.UserID(),
		ConversationID: cmd.ConversationID,
	})
	if err != nil {
		return err
	}
	g.router.Broadcast(cmd.ConversationID, payload, ep.ID())
	return nil
}

// Close closes every connection and takes its user offline, then drops the
// remaining typing timers. Later Disconnect calls for those connections do nothing.
func (g *Gateway) Close() {
	for _, ep := range g.router.Close() {
		g.release(ep)
	}
	g.typing.Close()
}

// onPresence runs under the presence lock, right after the mutation.
func (g *Gateway) onPresence(userID string, online bool) {
	event := realtime.EventUserOffline
	if online {
		event = realtime.EventUserOnline
	}
	payload, err := realtime.Encode(event, realtime.PresencePayload{UserID: userID})
	if err != nil {
		g.log.Error("encode presence event", "error", err)
		return
	}
	g.router.BroadcastAll(payload, userID)
}

// onTyping runs under the typing lock. Origin is excluded so the typing
// connection does not hear its own echo.
func (g *Gateway) onTyping(change realtime.TypingChange) {
	event := realtime.EventTypingStop
	if change.Typing {
		event = realtime.EventTypingStart
	}
	payload, err := realtime.Encode(event, realtime.TypingPayload{UserID: change.UserID, ConversationID: change.ConversationID})
	if err != nil {
		g.log.Error("encode typing event", "error", err)
		return
	}
	g.router.Broadcast(change.ConversationID, payload, change.Origin)
}

func (g *Gateway) reply(ep realtime.Endpoint, event string, data any) {
	payload, err := realtime.Encode(event, data)
	if err != nil {
		g.log.Error("encode reply", "event", event, "error", err)
		return
	}
	_ = ep.Send(payload)
}

func (g *Gateway) replyError(ep realtime.Endpoint, command string, err error) {
	code, message := Classify(err)
	if code == CodeInternal {
		g.log.Error("command failed", "command", command, "user_id", ep.UserID(), "connection_id", ep.ID(), "error", err)
	}
	g.reply(ep, realtime.EventError, realtime.ErrorPayload{Code: code, Message: message, Command: command})
}
