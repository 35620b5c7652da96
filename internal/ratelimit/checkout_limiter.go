package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"github.com/shuddhilabs/shuddhi/internal/config"
)

const keyCheckoutUser = "checkout:user:%s"

// CheckoutLimiter bounds how fast one user can open new checkouts. Without
// redis configured it degrades to a pass-through, so local development needs
// no redis instance.
type CheckoutLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
}

func NewCheckoutLimiter(cfg config.Config) *CheckoutLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" || cfg.CheckoutRate <= 0 || cfg.CheckoutBurst <= 0 {
		return &CheckoutLimiter{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})
	return &CheckoutLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    cfg.CheckoutRate,
		burst:   cfg.CheckoutBurst,
	}
}

func (l *CheckoutLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *CheckoutLimiter) Allow(ctx context.Context, userID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyCheckoutUser, strings.TrimSpace(userID)), l.rate, l.burst)
}
