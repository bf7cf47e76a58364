package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"kyc-onboarding/backend/internal/verification/domain"
)

const redisKeyPrefix = "kyc:challenge:"

// The scripts check the key and update it in one step, so an expiring key is never
// recreated as a partial hash without a TTL.
var (
	// KEYS[1] challenge key, ARGV[1] max attempts. Returns 1 when an attempt was counted.
	reserveAttemptScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
if redis.call('HEXISTS', KEYS[1], 'consumed_at') == 1 then return 0 end
local n = tonumber(redis.call('HGET', KEYS[1], 'attempts') or '0')
if n >= tonumber(ARGV[1]) then return 0 end
redis.call('HINCRBY', KEYS[1], 'attempts', 1)
return 1
`)
	// KEYS[1] challenge key, ARGV[1] consumed_at. Returns 1 for the first caller only.
	consumeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
return redis.call('HSETNX', KEYS[1], 'consumed_at', ARGV[1])
`)
)

// RedisRepository stores challenges as hashes that expire with the challenge.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository returns a challenge repository backed by client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func redisKey(id string) string { return redisKeyPrefix + id }

// Create writes the challenge hash and sets it to expire at ExpiresAt.
func (r *RedisRepository) Create(ctx context.Context, c *domain.Challenge) error {
	key := redisKey(c.ID)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, map[string]interface{}{
			"channel":     c.Channel,
			"destination": c.Destination,
			"code_hash":   c.CodeHash,
			"attempts":    c.Attempts,
			"expires_at":  c.ExpiresAt.UTC().Format(time.RFC3339Nano),
			"created_at":  c.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		p.ExpireAt(ctx, key, c.ExpiresAt)
		return nil
	})
	return err
}

// GetByID returns the challenge, or nil once the key is missing or expired.
func (r *RedisRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	vals, err := r.client.HGetAll(ctx, redisKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil
	}
	c := &domain.Challenge{
		ID:          id,
		Channel:     vals["channel"],
		Destination: vals["destination"],
		CodeHash:    vals["code_hash"],
	}
	if c.Attempts, err = strconv.Atoi(vals["attempts"]); err != nil {
		return nil, err
	}
	if c.ExpiresAt, err = time.Parse(time.RFC3339Nano, vals["expires_at"]); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, vals["created_at"]); err != nil {
		return nil, err
	}
	if v, ok := vals["consumed_at"]; ok {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, err
		}
		c.ConsumedAt = &t
	}
	return c, nil
}

// ReserveAttempt counts an attempt in a Lua script. Expiry is the key TTL set by Create,
// so now is not consulted here.
func (r *RedisRepository) ReserveAttempt(ctx context.Context, id string, maxAttempts int, now time.Time) (bool, error) {
	n, err := reserveAttemptScript.Run(ctx, r.client, []string{redisKey(id)}, maxAttempts).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Consume sets consumed_at with HSETNX inside a script, so only the first caller gets true.
func (r *RedisRepository) Consume(ctx context.Context, id string, at time.Time) (bool, error) {
	n, err := consumeScript.Run(ctx, r.client, []string{redisKey(id)}, at.UTC().Format(time.RFC3339Nano)).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes the challenge key.
func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, redisKey(id)).Err()
}
