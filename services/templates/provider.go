package templates

import (
	"github.com/coro-biz/journey-coach/config"
	"go.uber.org/fx"
)

var Module = fx.Module("templates",
	fx.Provide(func(cfg *config.Config) (*Service, error) {
		return New(cfg.Templates)
	}),
)
