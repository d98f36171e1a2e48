package providers

import (
	"github.com/smallbiznis/taskflow/internal/providers/email"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
)
