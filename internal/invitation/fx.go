package invitation

import (
	"github.com/smallbiznis/taskflow/internal/integrity"
	"github.com/smallbiznis/taskflow/internal/invitation/domain"
	"github.com/smallbiznis/taskflow/internal/invitation/repository"
	"github.com/smallbiznis/taskflow/internal/invitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(func(tags *integrity.Service) domain.TagService { return tags }),
	fx.Provide(service.New),
)
