package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var webhookRateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisWebhookRateLimiter implements a distributed fixed-window rate limit
// for the webhook ingress, keyed per source. It is optional: a nil limiter
// (Redis unconfigured) admits everything.
type RedisWebhookRateLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisWebhookRateLimiter(client redis.UniversalClient, prefix string) *RedisWebhookRateLimiter {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = "commission:rate_limit"
	}
	return &RedisWebhookRateLimiter{client: client, prefix: trimmed}
}

// Consume counts one request against the subject's window and reports the
// running count plus the retry-after hint in seconds. Zero limit or window
// disables the check.
func (r *RedisWebhookRateLimiter) Consume(ctx context.Context, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error) {
	if r == nil || r.client == nil || limit <= 0 || window <= 0 {
		return 0, 0, nil
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return 0, 0, nil
	}

	windowMs := window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := fmt.Sprintf("%s:webhook:%s", r.prefix, subject)
	raw, err := webhookRateLimitScript.Run(ctx, r.client, []string{key}, windowMs).Result()
	if err != nil {
		return 0, 0, err
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected redis limiter response shape: %T", raw)
	}
	current, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok {
		return int(current), 0, fmt.Errorf("unexpected redis limiter ttl type: %T", values[1])
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}

	retryAfter := int(math.Ceil(float64(ttlMs) / 1000.0))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return int(current), retryAfter, nil
}
