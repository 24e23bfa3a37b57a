package persistence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/tecnico-console/internal/config"
	"github.com/spec-kit/tecnico-console/internal/domain"
)

func exerciseCountStore(t *testing.T, store CountStore, technicianID int) {
	t.Helper()
	ctx := context.Background()

	empty, err := store.Load(ctx, technicianID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, technicianID, CountSnapshot{Scope: domain.ScopeAvailable, Count: 4, UpdatedAt: at}))
	require.NoError(t, store.Save(ctx, technicianID, CountSnapshot{Scope: domain.ScopeAssigned, Count: 2, UpdatedAt: at}))
	require.NoError(t, store.Save(ctx, technicianID, CountSnapshot{Scope: domain.ScopeAvailable, Count: 3, UpdatedAt: at}))

	loaded, err := store.Load(ctx, technicianID)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 3, loaded[domain.ScopeAvailable].Count)
	assert.Equal(t, 2, loaded[domain.ScopeAssigned].Count)
	assert.True(t, loaded[domain.ScopeAssigned].UpdatedAt.Equal(at))

	other, err := store.Load(ctx, technicianID+1)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemoryCountStore(t *testing.T) {
	exerciseCountStore(t, NewMemoryCountStore(), 7)
}

func TestRedisCountStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	const technicianID = 990001
	require.NoError(t, client.Del(context.Background(), countKey(technicianID), countKey(technicianID+1)).Err())
	exerciseCountStore(t, NewRedisCountStore(&Redis{Client: client}, time.Minute), technicianID)
}

func TestRedisNilSafe(t *testing.T) {
	var r *Redis
	assert.Error(t, r.Ping(context.Background()))
	r.Close()
	assert.Nil(t, NewRedis(config.RedisConfig{}, zap.NewNop()))
}

func TestCountKeysAreNamespaced(t *testing.T) {
	assert.Equal(t, "tecnico:counts:7", countKey(7))
	assert.Equal(t, "tecnico", Key())
}
