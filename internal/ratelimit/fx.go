package ratelimit

import (
	"github.com/smallbiznis/taskflow/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("rate.limit",
	fx.Provide(config.NewRateLimitHolder),
	fx.Provide(NewAuthLimiter),
)
