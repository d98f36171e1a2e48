package config

import (
	"errors"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AuthLimits is the token bucket shape applied to unauthenticated auth endpoints.
type AuthLimits struct {
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`
}

// RateLimitHolder keeps the current auth limits and swaps them when the
// backing file changes.
type RateLimitHolder struct {
	current atomic.Value // holds AuthLimits
}

// NewRateLimitHolder seeds limits from env and, when RATE_LIMIT_CONFIG_FILE is
// set, from that file with hot reload.
func NewRateLimitHolder(cfg Config, log *zap.Logger) (*RateLimitHolder, error) {
	defaults := AuthLimits{Rate: cfg.RateLimit.AuthRate, Burst: cfg.RateLimit.AuthBurst}
	if err := validateAuthLimits(defaults); err != nil {
		return nil, err
	}

	holder := &RateLimitHolder{}
	holder.current.Store(defaults)

	if cfg.RateLimit.ConfigPath == "" {
		return holder, nil
	}

	v := viper.New()
	v.SetConfigFile(cfg.RateLimit.ConfigPath)
	v.SetDefault("auth.rate", defaults.Rate)
	v.SetDefault("auth.burst", defaults.Burst)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var limits AuthLimits
	if err := v.UnmarshalKey("auth", &limits); err != nil {
		return nil, err
	}
	if err := validateAuthLimits(limits); err != nil {
		return nil, err
	}
	holder.current.Store(limits)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated AuthLimits
		if err := v.UnmarshalKey("auth", &updated); err != nil {
			log.Warn("rate limit config reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		if err := validateAuthLimits(updated); err != nil {
			log.Warn("invalid rate limit config ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("rate limit config reloaded",
			zap.String("file", e.Name),
			zap.Float64("rate", updated.Rate),
			zap.Int("burst", updated.Burst),
		)
	})

	return holder, nil
}

func (h *RateLimitHolder) Get() AuthLimits {
	return h.current.Load().(AuthLimits)
}

func validateAuthLimits(l AuthLimits) error {
	if l.Rate <= 0 {
		return errors.New("auth rate limit must be positive")
	}
	if l.Burst <= 0 {
		return errors.New("auth burst must be positive")
	}
	return nil
}
