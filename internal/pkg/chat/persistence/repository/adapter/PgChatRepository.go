package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	chat "go-parley/internal/pkg/chat/application/domain"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

const messageColumns = `id::text, conversation_id::text, COALESCE(sender_id, ''), kind,
	COALESCE(body, ''), attachments, created_at, edited_at, deleted_at`

type PgChatRepository struct {
	pool *pgxpool.Pool
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

var errNilPool = errors.New("PgChatRepository: nil pool")

func (r *PgChatRepository) GetOrCreateConversation(ctx context.Context, conv chat.Conversation, participantIDs []string) (chat.Conversation, bool, error) {
	if r == nil || r.pool == nil {
		return chat.Conversation{}, false, errNilPool
	}

	var created bool
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO chat.conversation (participant_key, context_type, context_id)
			VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
			ON CONFLICT (participant_key) DO NOTHING
			RETURNING id::text, created_at
		`, conv.ParticipantKey, string(conv.ContextType), conv.ContextID).Scan(&conv.ID, &conv.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			var contextType string
			err = tx.QueryRow(ctx, `
				SELECT id::text, created_at, COALESCE(context_type, ''), COALESCE(context_id, '')
				FROM chat.conversation
				WHERE participant_key = $1
			`, conv.ParticipantKey).Scan(&conv.ID, &conv.CreatedAt, &contextType, &conv.ContextID)
			conv.ContextType = chat.ContextType(contextType)
			return err
		}
		if err != nil {
			return err
		}

		created = true
		batch := &pgx.Batch{}
		for _, uid := range participantIDs {
			batch.Queue(`
				INSERT INTO chat.participant (conversation_id, user_id)
				VALUES ($1::uuid, $2)
				ON CONFLICT (conversation_id, user_id) DO NOTHING
			`, conv.ID, uid)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return chat.Conversation{}, false, err
	}
	return conv, created, nil
}

func (r *PgChatRepository) ConversationIDsForUser(ctx context.Context, userID string, limit int) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT p.conversation_id::text
		FROM chat.participant p
		JOIN chat.conversation c ON c.id = p.conversation_id
		LEFT JOIN LATERAL (
			SELECT max(m.created_at) AS last_at
			FROM chat.message m
			WHERE m.conversation_id = p.conversation_id
		) lm ON true
		WHERE p.user_id = $1
		ORDER BY COALESCE(lm.last_at, c.created_at) DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *PgChatRepository) IsParticipant(ctx context.Context, conversationID string, userID string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errNilPool
	}
	if !validID(conversationID) {
		return false, nil
	}
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chat.participant WHERE conversation_id = $1::uuid AND user_id = $2
		)
	`, conversationID, userID).Scan(&ok)
	return ok, err
}

func (r *PgChatRepository) ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if !validID(conversationID) {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM chat.participant WHERE conversation_id = $1::uuid ORDER BY user_id
	`, conversationID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// AppendMessage locks the conversation row so concurrent writers append one
// at a time, and stamps created_at no earlier than the newest message.
func (r *PgChatRepository) AppendMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	if r == nil || r.pool == nil {
		return chat.Message{}, errNilPool
	}
	if !validID(m.ConversationID) {
		return chat.Message{}, chat.ErrConversationNotFound
	}
	attachments, err := encodeAttachments(m.Attachments)
	if err != nil {
		return chat.Message{}, err
	}

	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, `SELECT id::text FROM chat.conversation WHERE id = $1::uuid FOR UPDATE`, m.ConversationID).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return chat.ErrConversationNotFound
		}
		if err != nil {
			return err
		}
		return tx.QueryRow(ctx, `
			INSERT INTO chat.message (conversation_id, sender_id, kind, body, attachments, created_at)
			VALUES ($1::uuid, NULLIF($2, ''), $3, NULLIF($4, ''), $5::jsonb,
				GREATEST(clock_timestamp(), COALESCE(
					(SELECT max(created_at) FROM chat.message WHERE conversation_id = $1::uuid),
					'-infinity'::timestamptz)))
			RETURNING id::text, created_at
		`, m.ConversationID, m.SenderID, int16(m.Kind), m.Body, attachments).Scan(&m.ID, &m.CreatedAt)
	})
	if err != nil {
		return chat.Message{}, err
	}
	return m, nil
}

func (r *PgChatRepository) GetMessage(ctx context.Context, conversationID string, messageID string) (chat.Message, error) {
	if r == nil || r.pool == nil {
		return chat.Message{}, errNilPool
	}
	if !validID(conversationID) || !validID(messageID) {
		return chat.Message{}, chat.ErrMessageNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM chat.message
		WHERE id = $2::uuid AND conversation_id = $1::uuid
	`, conversationID, messageID)
	return scanMessage(row)
}

func (r *PgChatRepository) UpdateMessageBody(ctx context.Context, conversationID string, messageID string, body string) (chat.Message, error) {
	if r == nil || r.pool == nil {
		return chat.Message{}, errNilPool
	}
	if !validID(conversationID) || !validID(messageID) {
		return chat.Message{}, chat.ErrMessageNotFound
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE chat.message
		SET body = NULLIF($3, ''), edited_at = clock_timestamp()
		WHERE id = $2::uuid AND conversation_id = $1::uuid AND deleted_at IS NULL
		RETURNING `+messageColumns,
		conversationID, messageID, body)
	msg, err := scanMessage(row)
	if errors.Is(err, chat.ErrMessageNotFound) {
		return chat.Message{}, r.missingOrDeleted(ctx, conversationID, messageID)
	}
	return msg, err
}

func (r *PgChatRepository) MarkMessageDeleted(ctx context.Context, conversationID string, messageID string) (chat.Message, error) {
	if r == nil || r.pool == nil {
		return chat.Message{}, errNilPool
	}
	if !validID(conversationID) || !validID(messageID) {
		return chat.Message{}, chat.ErrMessageNotFound
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE chat.message
		SET deleted_at = clock_timestamp(), body = NULL, attachments = '[]'::jsonb
		WHERE id = $2::uuid AND conversation_id = $1::uuid AND deleted_at IS NULL
		RETURNING `+messageColumns,
		conversationID, messageID)
	msg, err := scanMessage(row)
	if errors.Is(err, chat.ErrMessageNotFound) {
		return chat.Message{}, r.missingOrDeleted(ctx, conversationID, messageID)
	}
	return msg, err
}

func (r *PgChatRepository) GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errNilPool
	}
	if !validID(conversationID) {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM chat.message
		WHERE conversation_id = $1::uuid
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

func (r *PgChatRepository) MarkRead(ctx context.Context, conversationID string, userID string, messageID string, at time.Time) error {
	if r == nil || r.pool == nil {
		return errNilPool
	}
	if !validID(conversationID) || !validID(messageID) {
		return chat.ErrMessageNotFound
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.participant p
		SET last_read_msg = $3::uuid, last_read_at = $4
		WHERE p.conversation_id = $1::uuid AND p.user_id = $2
		  AND EXISTS (
			SELECT 1 FROM chat.message m WHERE m.id = $3::uuid AND m.conversation_id = $1::uuid
		  )
	`, conversationID, userID, messageID, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return chat.ErrMessageNotFound
	}
	return nil
}

func (r *PgChatRepository) missingOrDeleted(ctx context.Context, conversationID, messageID string) error {
	msg, err := r.GetMessage(ctx, conversationID, messageID)
	if err != nil {
		return err
	}
	if msg.IsDeleted() {
		return chat.ErrMessageDeleted
	}
	return fmt.Errorf("PgChatRepository: message %s changed concurrently", messageID)
}

func scanMessage(row pgx.Row) (chat.Message, error) {
	var (
		msg         chat.Message
		kind        int16
		attachments []byte
	)
	err := row.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &kind, &msg.Body,
		&attachments, &msg.CreatedAt, &msg.EditedAt, &msg.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.Message{}, chat.ErrMessageNotFound
	}
	if err != nil {
		return chat.Message{}, err
	}
	msg.Kind = chat.MessageKind(kind)
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &msg.Attachments); err != nil {
			return chat.Message{}, fmt.Errorf("decode attachments: %w", err)
		}
	}
	if len(msg.Attachments) == 0 {
		msg.Attachments = nil
	}
	return msg, nil
}

func encodeAttachments(a []chat.Attachment) (string, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encode attachments: %w", err)
	}
	return string(b), nil
}

// validID filters ids that would make Postgres reject the uuid cast.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
