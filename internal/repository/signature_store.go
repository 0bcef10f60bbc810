package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const signatureKeyPrefix = "dispatch:last_seen_sig:"

// SignatureStore persists each client's last-seen collection signature
// across requests, replacing the ambient session globals the staleness
// tracker would otherwise need.
type SignatureStore interface {
	Get(ctx context.Context, clientKey string) (string, error)
	Set(ctx context.Context, clientKey, signature string) error
}

type redisSignatureStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSignatureStore builds a redis-backed store. TTL bounds how long a
// stale baseline survives an idle client.
func NewRedisSignatureStore(client *redis.Client, ttl time.Duration) SignatureStore {
	return &redisSignatureStore{client: client, ttl: ttl}
}

func (s *redisSignatureStore) Get(ctx context.Context, clientKey string) (string, error) {
	val, err := s.client.Get(ctx, signatureKeyPrefix+clientKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *redisSignatureStore) Set(ctx context.Context, clientKey, signature string) error {
	return s.client.Set(ctx, signatureKeyPrefix+clientKey, signature, s.ttl).Err()
}
