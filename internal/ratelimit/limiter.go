// Package ratelimit bounds installment submissions per applicant with a
// fixed-window counter in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/config"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:submit:"

type Limiter struct {
	redis   redis.Cmdable
	enabled bool
	max     int64
	window  time.Duration
	logger  logger.Logger
}

func NewLimiter(cfg config.RateLimitConfig, rdb redis.Cmdable, log logger.Logger) *Limiter {
	return &Limiter{
		redis:   rdb,
		enabled: cfg.Enabled,
		max:     int64(cfg.MaxSubmissions),
		window:  time.Duration(cfg.Window) * time.Second,
		logger:  log.WithFields(map[string]interface{}{"component": "rate-limiter"}),
	}
}

// Allow counts a submission for email. It returns SUBMISSION_RATE_LIMITED
// once the window's budget is spent. Redis failures let the submission
// through.
func (l *Limiter) Allow(ctx context.Context, email string) error {
	if !l.enabled || l.redis == nil || l.max <= 0 {
		return nil
	}

	key := Key(email)
	var incr *redis.IntCmd
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		// NX keeps the running window and repairs a counter left without a TTL.
		pipe.ExpireNX(ctx, key, l.window)
		return nil
	})
	if err != nil {
		l.logger.Warn("rate limiter unavailable, allowing submission", map[string]interface{}{"error": err})
		return nil
	}
	count := incr.Val()

	if count > l.max {
		return errors.NewSubmissionRateLimitedError(
			fmt.Sprintf("at most %d submissions per %s", l.max, l.window)).
			WithMetadata("retryAfterSeconds", int(l.window.Seconds()))
	}
	return nil
}

func Key(email string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(email))
}
