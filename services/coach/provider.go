package coach

import (
	"github.com/coro-biz/journey-coach/config"
	"github.com/coro-biz/journey-coach/services/logging"
	"go.uber.org/fx"
)

var Module = fx.Module("coach",
	fx.Provide(func(cfg *config.Config) Completer {
		return NewOpenAIClient(cfg.Coach)
	}),
	fx.Provide(func(cfg *config.Config, completer Completer, logger *logging.Service) *Service {
		return NewService(cfg, completer, logger)
	}),
)
