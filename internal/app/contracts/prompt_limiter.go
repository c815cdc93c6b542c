package contracts

import (
	"context"
	"time"
)

// PromptLimiter caps how many EcoCash prompts one payer phone receives
// within a window.
type PromptLimiter interface {
	Allow(ctx context.Context, msisdn string) (allowed bool, retryAfter time.Duration, err error)
}
