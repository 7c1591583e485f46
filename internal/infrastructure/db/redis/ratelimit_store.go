package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const storeTimeout = 500 * time.Millisecond

// slidingWindow keeps one sorted set per client, scored by request time in
// milliseconds. Entries older than the window are trimmed before counting,
// and a request is only logged when it is admitted.
//
//	KEYS[1] = ratelimit:<identifier>
//	ARGV    = now_ms, window_ms, limit, member
var slidingWindow = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window)
return 1
`)

// RateLimitStore is a sliding-window limiter shared by every replica that
// points at the same Redis. It satisfies echo's middleware.RateLimiterStore.
type RateLimitStore struct {
	client *redis.Client
	window time.Duration
	limit  int
	log    zerolog.Logger
	now    func() time.Time
}

// NewRateLimitStore admits at most limit requests per identifier within any
// window-long interval.
func NewRateLimitStore(client *redis.Client, window time.Duration, limit int, log zerolog.Logger) *RateLimitStore {
	return &RateLimitStore{client: client, window: window, limit: limit, log: log, now: time.Now}
}

// Allow fails open: when Redis is unreachable the request is admitted and
// the error is logged.
func (s *RateLimitStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	nowMs := s.now().UnixMilli()
	res, err := slidingWindow.Run(ctx, s.client,
		[]string{s.key(identifier)},
		nowMs, s.window.Milliseconds(), s.limit, strconv.FormatInt(nowMs, 10)+"-"+uuid.NewString(),
	).Int()
	if err != nil {
		s.log.Warn().Err(err).Str("identifier", identifier).Msg("rate limit store unavailable, allowing request")
		return true, fmt.Errorf("rate limit: %w", err)
	}
	return res == 1, nil
}

func (s *RateLimitStore) key(identifier string) string {
	return "ratelimit:" + identifier
}
