package email

import (
	"strings"

	"github.com/smallbiznis/taskflow/internal/config"
	invitationdomain "github.com/smallbiznis/taskflow/internal/invitation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
	fx.Provide(func(p Provider, cfg config.Config) invitationdomain.Mailer {
		return NewInvitationMailer(p, cfg.Email.InvitationAcceptURL)
	}),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if strings.TrimSpace(cfg.Email.SMTPHost) == "" {
		log.Info("smtp host not configured, emails are dropped")
		return &NoOpProvider{}
	}
	return NewSMTP(Config{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUsername,
		Password: cfg.Email.SMTPPassword,
		From:     cfg.Email.SMTPFrom,
	})
}
