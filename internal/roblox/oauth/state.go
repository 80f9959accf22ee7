package oauth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// statePrefix namespaces login states in the Redis OAuth-state database.
const statePrefix = "oauth_state:"

// StateStore mints and consumes one-shot login states backed by Redis.
// States expire on their own after the TTL; a consumed state cannot be
// replayed.
type StateStore struct {
	client rueidis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStateStore creates a StateStore on the given Redis client.
func NewStateStore(client rueidis.Client, ttl time.Duration, logger *zap.Logger) *StateStore {
	return &StateStore{
		client: client,
		ttl:    ttl,
		logger: logger.Named("oauth_state"),
	}
}

// Mint creates and stores a fresh state value.
func (s *StateStore) Mint(ctx context.Context) (string, error) {
	state := uuid.NewString()
	key := statePrefix + state

	err := s.client.Do(ctx, s.client.B().Set().Key(key).Value("1").Ex(s.ttl).Build()).Error()
	if err != nil {
		return "", fmt.Errorf("failed to store login state: %w", err)
	}

	return state, nil
}

// Consume validates a state and removes it atomically. Returns false for
// unknown, expired, or already-consumed states.
func (s *StateStore) Consume(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}

	key := statePrefix + state

	_, err := s.client.Do(ctx, s.client.B().Getdel().Key(key).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to consume login state: %w", err)
	}

	return true, nil
}
