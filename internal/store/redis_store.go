package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"peerprep/captcha/internal/captcha"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("challenge not found or expired")

const (
	challengeKeyPrefix = "captcha:challenge:"
	redeemedKeyPrefix  = "captcha:redeemed:"
)

// RedisStore keeps issued challenges until they expire or are verified.
// Only the challenge is stored; answers are derived from its text when needed.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func challengeKey(id string) string { return challengeKeyPrefix + id }

func (s *RedisStore) Save(ctx context.Context, id string, challenge captcha.Challenge, ttl time.Duration) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to encode challenge: %w", err)
	}
	if err := s.rdb.Set(ctx, challengeKey(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save challenge %s: %w", id, err)
	}
	return nil
}

// Get returns the challenge without consuming it.
func (s *RedisStore) Get(ctx context.Context, id string) (*captcha.Challenge, error) {
	data, err := s.rdb.Get(ctx, challengeKey(id)).Bytes()
	return decode(id, data, err)
}

// Take returns the challenge and deletes it in one step, so each challenge is verified at most once.
func (s *RedisStore) Take(ctx context.Context, id string) (*captcha.Challenge, error) {
	data, err := s.rdb.GetDel(ctx, challengeKey(id)).Bytes()
	return decode(id, data, err)
}

func decode(id string, data []byte, err error) (*captcha.Challenge, error) {
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge %s: %w", id, err)
	}
	var challenge captcha.Challenge
	if err := json.Unmarshal(data, &challenge); err != nil {
		return nil, fmt.Errorf("failed to decode challenge %s: %w", id, err)
	}
	return &challenge, nil
}

// Redeem marks a pass token id as used. It reports false if the id was already redeemed.
// The marker lives for ttl, which should outlast the token itself.
func (s *RedisStore) Redeem(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, redeemedKeyPrefix+tokenID, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to redeem token %s: %w", tokenID, err)
	}
	return ok, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
