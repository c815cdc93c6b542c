package ratelimiter

import (
	"context"
	"fmt"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/pkg/constvars"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// promptLimiter is a fixed-window counter in Redis keyed by payer phone.
// The key carries the window number so it rolls over on its own.
type promptLimiter struct {
	redis      contracts.RedisRepository
	clock      clockwork.Clock
	window     time.Duration
	maxPrompts int
	log        *zap.Logger
}

func NewPromptLimiter(redis contracts.RedisRepository, clock clockwork.Clock, window time.Duration, maxPrompts int, logger *zap.Logger) contracts.PromptLimiter {
	if window <= 0 {
		window = time.Hour
	}
	return &promptLimiter{
		redis:      redis,
		clock:      clock,
		window:     window,
		maxPrompts: maxPrompts,
		log:        logger,
	}
}

func (l *promptLimiter) Allow(ctx context.Context, msisdn string) (bool, time.Duration, error) {
	if l.maxPrompts <= 0 {
		return true, 0, nil
	}

	now := l.clock.Now().UTC()
	windowSec := int64(l.window / time.Second)
	if windowSec <= 0 {
		windowSec = 1
	}
	windowID := now.Unix() / windowSec
	key := fmt.Sprintf(constvars.PaymentPromptLimitKeyFormat, msisdn, windowID)

	count, err := l.redis.IncrementWithTTL(ctx, key, time.Duration(windowSec)*time.Second+time.Second)
	if err != nil {
		l.log.Error("promptLimiter.Allow increment failed",
			zap.String(constvars.LoggingRedisKey, key),
			zap.Error(err),
		)
		return false, 0, err
	}

	if count > l.maxPrompts {
		nextWindow := time.Unix((windowID+1)*windowSec, 0)
		return false, nextWindow.Sub(now), nil
	}
	return true, 0, nil
}
