package auth

import (
	"github.com/smallbiznis/taskflow/internal/auth/domain"
	"github.com/smallbiznis/taskflow/internal/auth/password"
	"github.com/smallbiznis/taskflow/internal/auth/repository"
	"github.com/smallbiznis/taskflow/internal/auth/service"
	"github.com/smallbiznis/taskflow/internal/auth/session"
	"github.com/smallbiznis/taskflow/internal/auth/token"
	"github.com/smallbiznis/taskflow/internal/integrity"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(
		fx.Annotate(password.NewFromConfig, fx.As(new(domain.PasswordHasher))),
		fx.Annotate(token.NewFromConfig, fx.As(new(domain.TokenIssuer))),
		func(tags *integrity.Service) domain.TagService { return tags },
	),
	fx.Provide(service.New),
	session.Module,
)
