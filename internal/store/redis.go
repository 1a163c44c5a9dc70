package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/loantools/loancalc/pkg/constants"
)

const redisKeyPrefix = "loancalc:comparisons:"

// RedisStore persists saved comparisons in redis, one JSON blob per user
// token.
type RedisStore struct {
	client     *redis.Client
	maxPerUser int
}

// NewRedisStore connects to the given redis address.
func NewRedisStore(addr string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisStore{
		client:     client,
		maxPerUser: constants.MaxSavedComparisons,
	}
}

// Ping verifies connectivity, used at server startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// List returns the user's saved scenarios, oldest first.
func (s *RedisStore) List(ctx context.Context, userToken string) ([]SavedScenario, error) {
	if userToken == "" {
		return nil, nil
	}
	raw, err := s.client.Get(ctx, redisKeyPrefix+userToken).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var saved []SavedScenario
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		return nil, fmt.Errorf("decode saved scenarios: %w", err)
	}
	return saved, nil
}

// Add appends a scenario and trims the oldest entries beyond the per-user
// cap.
func (s *RedisStore) Add(ctx context.Context, userToken string, scenario SavedScenario) error {
	if userToken == "" {
		return nil
	}
	saved, err := s.List(ctx, userToken)
	if err != nil {
		return err
	}
	return s.write(ctx, userToken, trim(append(saved, scenario), s.maxPerUser))
}

// Remove deletes one scenario by id.
func (s *RedisStore) Remove(ctx context.Context, userToken, id string) error {
	if userToken == "" {
		return nil
	}
	saved, err := s.List(ctx, userToken)
	if err != nil {
		return err
	}
	for i, scenario := range saved {
		if scenario.ID == id {
			saved = append(saved[:i], saved[i+1:]...)
			return s.write(ctx, userToken, saved)
		}
	}
	return nil
}

// Clear deletes all of a user's scenarios.
func (s *RedisStore) Clear(ctx context.Context, userToken string) error {
	if userToken == "" {
		return nil
	}
	if err := s.client.Del(ctx, redisKeyPrefix+userToken).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) write(ctx context.Context, userToken string, saved []SavedScenario) error {
	raw, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("encode saved scenarios: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+userToken, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
