package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"time"

	cport "go-parley/internal/infrastructure/cache/port"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"

	"golang.org/x/sync/singleflight"
)

// CachedChatRepository puts a read-through cache in front of participant
// lookups. Participant sets never change after a conversation is created,
// so entries are only dropped by TTL. Cache failures fall through to the
// wrapped repository.
type CachedChatRepository struct {
	repository.ChatRepository

	cache   cport.Cache
	ttl     time.Duration
	log     *slog.Logger
	sfGroup singleflight.Group
}

var _ repository.ChatRepository = (*CachedChatRepository)(nil)

func NewCachedChatRepository(next repository.ChatRepository, cache cport.Cache, ttl time.Duration, log *slog.Logger) *CachedChatRepository {
	return &CachedChatRepository{
		ChatRepository: next,
		cache:          cache,
		ttl:            ttl,
		log:            log.With("component", "participant_cache"),
	}
}

func participantsKey(conversationID string) string {
	return "participants:" + conversationID
}

func (r *CachedChatRepository) ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	key := participantsKey(conversationID)

	raw, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var ids []string
		if jsonErr := json.Unmarshal([]byte(raw), &ids); jsonErr == nil {
			return ids, nil
		}
		r.log.Warn("discarding undecodable cache entry", "key", key)
	case !errors.Is(err, cport.ErrMiss):
		r.log.Warn("cache read failed", "key", key, "error", err)
	}

	val, err, _ := r.sfGroup.Do(key, func() (any, error) {
		return r.ChatRepository.ListParticipantIDs(ctx, conversationID)
	})
	if err != nil {
		return nil, err
	}
	ids, _ := val.([]string)

	// An empty set means the conversation does not exist (yet); keep it uncached.
	if len(ids) > 0 {
		if b, err := json.Marshal(ids); err == nil {
			if err := r.cache.Set(ctx, key, string(b), r.ttl); err != nil {
				r.log.Warn("cache write failed", "key", key, "error", err)
			}
		}
	}
	return slices.Clone(ids), nil
}

// IsParticipant answers from the cached participant set.
func (r *CachedChatRepository) IsParticipant(ctx context.Context, conversationID string, userID string) (bool, error) {
	ids, err := r.ListParticipantIDs(ctx, conversationID)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, userID), nil
}
