package envelope

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/silentoaq/zuvi-auth/core"
	"github.com/silentoaq/zuvi-auth/ports"
)

const defaultEnvelopeKey = "zuvi:session:envelope"

// RedisStore persists the session envelope under a single Redis key, for
// deployments where the session must survive the host as well as the process.
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ ports.EnvelopeStore = (*RedisStore)(nil)

// NewRedisStore creates a store over an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: defaultEnvelopeKey}
}

// NewRedisStoreWithKey creates a store using a caller-chosen key, allowing
// multiple independent sessions on one Redis instance.
func NewRedisStoreWithKey(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Save(ctx context.Context, env core.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, b, 0).Err()
}

// Load reads the envelope. A missing key or an unparseable value is reported
// as absent.
func (s *RedisStore) Load(ctx context.Context) (core.Envelope, bool, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.Envelope{}, false, nil
	}
	if err != nil {
		return core.Envelope{}, false, err
	}

	var env core.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return core.Envelope{}, false, nil
	}
	return env, true, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
