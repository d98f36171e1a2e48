package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/clock"
	"github.com/smallbiznis/taskflow/internal/config"
	"github.com/smallbiznis/taskflow/internal/integrity"
	"github.com/smallbiznis/taskflow/internal/migration"
	"github.com/smallbiznis/taskflow/internal/observability"
	"github.com/smallbiznis/taskflow/internal/server"
	"github.com/smallbiznis/taskflow/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		integrity.Module,
		migration.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
