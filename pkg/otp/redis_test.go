package otp

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Redis-backed tests run only when REDIS_TEST_ADDR is set.
const envRedisTestAddr = "REDIS_TEST_ADDR"

func newRedisTestStore(t *testing.T, maxAttempts int) *RedisStore {
	t.Helper()
	addr := os.Getenv(envRedisTestAddr)
	if addr == "" {
		t.Skipf("%s not set", envRedisTestAddr)
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	return NewRedisStore(client, time.Minute, maxAttempts)
}

func TestRedisStore_DiscardsAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	s := newRedisTestStore(t, 3)
	key := "test:" + gofakeit.UUID()

	require.NoError(t, s.Put(ctx, key, "123456"))
	assert.ErrorIs(t, s.Verify(ctx, key, "000000"), ErrCodeInvalid)
	assert.ErrorIs(t, s.Verify(ctx, key, "000001"), ErrCodeInvalid)
	assert.ErrorIs(t, s.Verify(ctx, key, "000002"), ErrTooManyAttempts)
	assert.ErrorIs(t, s.Verify(ctx, key, "123456"), ErrCodeInvalid)

	exists, err := s.client.Exists(ctx, redisKeyPrefix+key, redisKeyPrefix+key+redisTriesSuffix).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestRedisStore_PutResetsAttempts(t *testing.T) {
	ctx := context.Background()
	s := newRedisTestStore(t, 2)
	key := "test:" + gofakeit.UUID()

	require.NoError(t, s.Put(ctx, key, "1111"))
	assert.ErrorIs(t, s.Verify(ctx, key, "0000"), ErrCodeInvalid)

	require.NoError(t, s.Put(ctx, key, "2222"))
	assert.ErrorIs(t, s.Verify(ctx, key, "0000"), ErrCodeInvalid)
	assert.NoError(t, s.Verify(ctx, key, "2222"))
}
