package mail

import (
	"github.com/coro-biz/journey-coach/config"
	"github.com/coro-biz/journey-coach/services/logging"
	"go.uber.org/fx"
)

var Module = fx.Module("mail",
	fx.Provide(func(cfg *config.Config, logger *logging.Service) (*Service, error) {
		if cfg.Mail.Host == "" {
			logger.Warn("SMTP_HOST not set, outbound mail disabled")
			return nil, nil
		}
		return NewService(&cfg.Mail, logger)
	}),
)
