package adapter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-parley/internal/infrastructure/cache/port"
	"go-parley/internal/infrastructure/logging"
	"go-parley/internal/pkg/chat/persistence/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu      sync.Mutex
	data    map[string]string
	failGet error
}

func newMapCache() *mapCache { return &mapCache{data: map[string]string{}} }

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet != nil {
		return "", c.failGet
	}
	v, ok := c.data[key]
	if !ok {
		return "", port.ErrMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Ping(context.Context) error { return nil }
func (c *mapCache) Close() error               { return nil }

func TestCachedChatRepository_ReadsThroughOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	convID := store.AddConversation("alice", "bob")
	cache := newMapCache()
	repo := NewCachedChatRepository(store, cache, time.Minute, logging.Discard())

	ids, err := repo.ListParticipantIDs(ctx, convID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, ids)

	ok, err := repo.IsParticipant(ctx, convID, "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsParticipant(ctx, convID, "mallory")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, store.Calls(memory.OpListParticipantIDs))
	assert.Contains(t, cache.data, participantsKey(convID))
}

func TestCachedChatRepository_CacheFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	convID := store.AddConversation("alice", "bob")
	cache := newMapCache()
	cache.failGet = errors.New("connection refused")
	repo := NewCachedChatRepository(store, cache, time.Minute, logging.Discard())

	ok, err := repo.IsParticipant(ctx, convID, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, store.Calls(memory.OpListParticipantIDs))
}

func TestCachedChatRepository_EmptySetIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cache := newMapCache()
	repo := NewCachedChatRepository(store, cache, time.Minute, logging.Discard())

	ok, err := repo.IsParticipant(ctx, "missing", "alice")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, cache.data)
}

func TestCachedChatRepository_StoreErrorPropagates(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	convID := store.AddConversation("alice", "bob")
	store.SetError(memory.OpListParticipantIDs, errors.New("db down"))
	repo := NewCachedChatRepository(store, newMapCache(), time.Minute, logging.Discard())

	_, err := repo.IsParticipant(ctx, convID, "alice")
	assert.EqualError(t, err, "db down")
}
