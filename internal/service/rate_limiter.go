package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// rateLimitScript is a Lua script for sliding window rate limiting.
// Scores are unix milliseconds.
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)

if count >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local resetAt = now + window
    if #oldest >= 2 then
        resetAt = tonumber(oldest[2]) + window
    end
    return {0, 0, resetAt}
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('PEXPIRE', key, window + 10000)

return {1, limit - count - 1, now + window}
`)

type RateLimitDecision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RateLimiter provides generic rate limiting functionality
type RateLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Check records one hit for key and reports whether it fits in the window.
// Redis failures deny the request.
func (rl *RateLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) RateLimitDecision {
	now := rl.now()
	fullKey := fmt.Sprintf("ratelimit:%s", key)

	result, err := rateLimitScript.Run(
		ctx,
		rl.client,
		[]string{fullKey},
		now.UnixMilli(),
		window.Milliseconds(),
		limit,
	).Int64Slice()

	if err != nil || len(result) != 3 {
		log.Warn().
			Err(err).
			Str("key", key).
			Msg("rate limit check failed, denying request")
		return RateLimitDecision{Allowed: false, ResetAt: now.Add(window)}
	}

	return RateLimitDecision{
		Allowed:   result[0] == 1,
		Remaining: int(result[1]),
		ResetAt:   time.UnixMilli(result[2]),
	}
}
