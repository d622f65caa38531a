package gateway

import (
	"context"
	"log/slog"
	"time"

	"go-parley/internal/infrastructure/realtime"
	chat "go-parley/internal/pkg/chat/application/domain"
	"go-parley/internal/pkg/chat/application/usecase"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
	"go-parley/internal/pkg/notification"
)

// Pipeline persists messages and fans them out. Writes to one conversation
// are serialized from the store call through the broadcast enqueue, so
// every room member sees messages in persist order.
type Pipeline struct {
	router   *realtime.Router
	presence *realtime.Presence
	bridge   notification.Bridge

	sendUC         *usecase.SendMessageUseCase
	systemUC       *usecase.PostSystemMessageUseCase
	editUC         *usecase.EditMessageUseCase
	deleteUC       *usecase.DeleteMessageUseCase
	participantsUC *usecase.ListParticipantsUseCase

	locks         *keyedMutex
	timeout       time.Duration
	previewLength int
	log           *slog.Logger
}

func newPipeline(repo repository.ChatRepository, router *realtime.Router, presence *realtime.Presence, bridge notification.Bridge, cfg Config, log *slog.Logger) *Pipeline {
	return &Pipeline{
		router:         router,
		presence:       presence,
		bridge:         bridge,
		sendUC:         usecase.NewSendMessageUseCase(repo),
		systemUC:       usecase.NewPostSystemMessageUseCase(repo),
		editUC:         usecase.NewEditMessageUseCase(repo),
		deleteUC:       usecase.NewDeleteMessageUseCase(repo),
		participantsUC: usecase.NewListParticipantsUseCase(repo),
		locks:          newKeyedMutex(),
		timeout:        cfg.DependencyTimeout,
		previewLength:  cfg.PreviewLength,
		log:            log.With("component", "pipeline"),
	}
}

// Send authorizes, persists and broadcasts a user message to every
// connection in the room, the sender's own included. Offline participants
// are then handed to the notification bridge; that step never fails Send.
func (p *Pipeline) Send(ctx context.Context, in usecase.SendMessageInput) (*chat.Message, error) {
	msg, err := p.write(ctx, in.ConversationID, realtime.EventMessageNew, func(ctx context.Context) (*chat.Message, error) {
		return p.sendUC.Execute(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	p.notifyOffline(ctx, *msg)
	return msg, nil
}

// PostSystem writes a platform notice into a conversation.
func (p *Pipeline) PostSystem(ctx context.Context, in usecase.PostSystemMessageInput) (*chat.Message, error) {
	msg, err := p.write(ctx, in.ConversationID, realtime.EventMessageNew, func(ctx context.Context) (*chat.Message, error) {
		return p.systemUC.Execute(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	p.notifyOffline(ctx, *msg)
	return msg, nil
}

func (p *Pipeline) Edit(ctx context.Context, in usecase.EditMessageInput) (*chat.Message, error) {
	return p.write(ctx, in.ConversationID, realtime.EventMessageEdited, func(ctx context.Context) (*chat.Message, error) {
		return p.editUC.Execute(ctx, in)
	})
}

func (p *Pipeline) Delete(ctx context.Context, in usecase.DeleteMessageInput) (*chat.Message, error) {
	return p.write(ctx, in.ConversationID, realtime.EventMessageDeleted, func(ctx context.Context) (*chat.Message, error) {
		return p.deleteUC.Execute(ctx, in)
	})
}

// write runs persist under the conversation lock and broadcasts before
// releasing it. Nothing is broadcast when persist fails.
func (p *Pipeline) write(ctx context.Context, conversationID, event string, persist func(context.Context) (*chat.Message, error)) (*chat.Message, error) {
	unlock := p.locks.Lock(conversationID)
	defer unlock()

	opCtx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	msg, err := persist(opCtx)
	if err != nil {
		return nil, err
	}

	payload, err := realtime.Encode(event, MessagePayload{Message: NewMessageView(*msg), ConversationID: msg.ConversationID})
	if err != nil {
		// persisted already; clients recover it from history
		p.log.Error("encode message event", "event", event, "message_id", msg.ID, "error", err)
		return msg, nil
	}
	p.router.Broadcast(msg.ConversationID, payload, "")
	return msg, nil
}

func (p *Pipeline) notifyOffline(ctx context.Context, msg chat.Message) {
	ctx, cancel := withTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	participants, err := p.participantsUC.Execute(ctx, usecase.ListParticipantsInput{ConversationID: msg.ConversationID})
	if err != nil {
		p.log.Warn("offline fallback skipped", "conversation_id", msg.ConversationID, "message_id", msg.ID, "error", err)
		return
	}

	preview := notification.Preview(msg, p.previewLength)
	nctx := notification.Context{ConversationID: msg.ConversationID, MessageID: msg.ID}
	for _, uid := range participants {
		if uid == msg.SenderID || p.presence.IsOnline(uid) {
			continue
		}
		if err := p.bridge.Notify(ctx, uid, preview, nctx); err != nil {
			p.log.Warn("notification bridge failed", "user_id", uid, "message_id", msg.ID, "error", err)
		}
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
