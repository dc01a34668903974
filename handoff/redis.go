package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "onboarding:handoff:"

// RedisStore shares pending sessions between activity workers and API
// replicas. Entries expire after ttl so abandoned sessions do not linger.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Dial parses url, pings the server and returns a RedisStore.
func Dial(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisStore(client, ttl), nil
}

func (s *RedisStore) Put(ctx context.Context, key string, p Pending) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pending session: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store pending session: %w", err)
	}
	return nil
}

func (s *RedisStore) Peek(ctx context.Context, key string) (Pending, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	return decode(raw, err)
}

// Take uses GETDEL so concurrent completions observe the entry at most once.
func (s *RedisStore) Take(ctx context.Context, key string) (Pending, error) {
	raw, err := s.client.GetDel(ctx, redisKeyPrefix+key).Bytes()
	return decode(raw, err)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decode(raw []byte, err error) (Pending, error) {
	if errors.Is(err, redis.Nil) {
		return Pending{}, ErrNotFound
	}
	if err != nil {
		return Pending{}, fmt.Errorf("load pending session: %w", err)
	}
	var p Pending
	if err := json.Unmarshal(raw, &p); err != nil {
		return Pending{}, fmt.Errorf("decode pending session: %w", err)
	}
	return p, nil
}

const redisSecretPrefix = "onboarding:secret:"

// RedisVault is a Vault backed by Redis key expiry.
type RedisVault struct {
	client *redis.Client
}

func NewRedisVault(client *redis.Client) *RedisVault {
	return &RedisVault{client: client}
}

// Vault returns a RedisVault sharing the store's connection.
func (s *RedisStore) Vault() *RedisVault {
	return NewRedisVault(s.client)
}

func (v *RedisVault) Seal(ctx context.Context, value []byte, ttl time.Duration) (string, error) {
	ref := newRef()
	if err := v.client.Set(ctx, redisSecretPrefix+ref, value, ttl).Err(); err != nil {
		return "", fmt.Errorf("seal secret: %w", err)
	}
	return ref, nil
}

func (v *RedisVault) Reveal(ctx context.Context, ref string) ([]byte, error) {
	return secret(v.client.Get(ctx, redisSecretPrefix+ref).Bytes())
}

func (v *RedisVault) Redeem(ctx context.Context, ref string) ([]byte, error) {
	return secret(v.client.GetDel(ctx, redisSecretPrefix+ref).Bytes())
}

func (v *RedisVault) Discard(ctx context.Context, refs ...string) error {
	if len(refs) == 0 {
		return nil
	}
	keys := make([]string, len(refs))
	for i, ref := range refs {
		keys[i] = redisSecretPrefix + ref
	}
	if err := v.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("discard secrets: %w", err)
	}
	return nil
}

func secret(raw []byte, err error) ([]byte, error) {
	if errors.Is(err, redis.Nil) {
		return nil, ErrSecretGone
	}
	if err != nil {
		return nil, fmt.Errorf("load secret: %w", err)
	}
	return raw, nil
}
