// Package authstore provides the server-side stores backing challenge
// single-use enforcement and session token revocation.
package authstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/silentoaq/zuvi-auth/ports"
)

const (
	challengePrefix  = "zuvi:challenge:"
	revocationPrefix = "zuvi:revoked:"
)

// RedisStore is a Redis implementation of both ChallengeStore and
// RevocationStore.
type RedisStore struct {
	client *redis.Client
}

var (
	_ ports.ChallengeStore  = (*RedisStore)(nil)
	_ ports.RevocationStore = (*RedisStore)(nil)
)

// NewRedisStore creates a store over an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put records an issued challenge nonce, bound to the public key it was
// issued for, until it is consumed or the TTL elapses.
func (s *RedisStore) Put(ctx context.Context, nonce, publicKey string, ttl time.Duration) error {
	if err := s.client.Set(ctx, challengePrefix+nonce, publicKey, ttl).Err(); err != nil {
		return fmt.Errorf("failed to record challenge: %w", err)
	}
	return nil
}

// Consume removes the nonce and returns the public key it was issued for.
// GETDEL keeps consumption atomic across instances.
func (s *RedisStore) Consume(ctx context.Context, nonce string) (string, bool, error) {
	publicKey, err := s.client.GetDel(ctx, challengePrefix+nonce).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to consume challenge: %w", err)
	}
	return publicKey, true, nil
}

// Revoke marks a token ID as revoked until its natural expiry.
func (s *RedisStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, revocationPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks whether a token ID has been revoked.
func (s *RedisStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revocationPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}
