package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "otp:"
	redisTriesSuffix = ":tries"
)

// RedisStore lets several API replicas share codes. Expiry is delegated
// to the key TTL. Wrong guesses are counted with INCR so replicas share
// one attempt budget per code.
type RedisStore struct {
	client      *redis.Client
	ttl         time.Duration
	maxAttempts int
}

func NewRedisStore(client *redis.Client, ttl time.Duration, maxAttempts int) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, maxAttempts: attemptLimit(maxAttempts)}
}

func (s *RedisStore) Put(ctx context.Context, key, code string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKeyPrefix+key, code, s.ttl)
		pipe.Del(ctx, redisKeyPrefix+key+redisTriesSuffix)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	return nil
}

func (s *RedisStore) Verify(ctx context.Context, key, code string) error {
	codeKey := redisKeyPrefix + key
	triesKey := codeKey + redisTriesSuffix

	stored, err := s.client.Get(ctx, codeKey).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCodeInvalid
	}
	if err != nil {
		return fmt.Errorf("load code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return s.recordFailure(ctx, codeKey, triesKey)
	}

	if err := s.client.Del(ctx, codeKey, triesKey).Err(); err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	return nil
}

func (s *RedisStore) recordFailure(ctx context.Context, codeKey, triesKey string) error {
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, triesKey)
		pipe.Expire(ctx, triesKey, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("count attempt: %w", err)
	}

	if incr.Val() < int64(s.maxAttempts) {
		return ErrCodeInvalid
	}
	if err := s.client.Del(ctx, codeKey, triesKey).Err(); err != nil {
		return fmt.Errorf("discard code: %w", err)
	}
	return ErrTooManyAttempts
}

// Stop is a no-op; the shared client is closed with the config.
func (s *RedisStore) Stop() {}
