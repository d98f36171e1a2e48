package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/taskflow/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyAuthClient = "auth:%s:%s"

// AuthLimiter throttles unauthenticated auth endpoints per client address.
type AuthLimiter struct {
	bucket *TokenBucket
	limits *config.RateLimitHolder
}

// NewAuthLimiter returns nil when rate limiting is disabled.
func NewAuthLimiter(lc fx.Lifecycle, cfg config.Config, limits *config.RateLimitHolder, log *zap.Logger) (*AuthLimiter, error) {
	if !cfg.RateLimit.Enabled {
		log.Info("auth rate limiting disabled")
		return nil, nil
	}

	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		return nil, fmt.Errorf("rate limit redis addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.Redis.Password),
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("rate limit redis unreachable", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return NewAuthLimiterWithClient(client, limits), nil
}

func NewAuthLimiterWithClient(client redis.Scripter, limits *config.RateLimitHolder) *AuthLimiter {
	return &AuthLimiter{
		bucket: NewTokenBucket(client),
		limits: limits,
	}
}

func (l *AuthLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow takes one token from the bucket of (endpoint, clientIP).
func (l *AuthLimiter) Allow(ctx context.Context, endpoint, clientIP string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	limits := l.limits.Get()
	key := fmt.Sprintf(keyAuthClient, strings.TrimSpace(endpoint), strings.TrimSpace(clientIP))
	return l.bucket.Allow(ctx, key, limits.Rate, limits.Burst)
}
