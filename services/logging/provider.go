package logging

import (
	"github.com/coro-biz/journey-coach/config"
	"go.uber.org/fx"
)

var Module = fx.Module("logging",
	fx.Provide(func(cfg *config.Config) (*Service, error) {
		return NewService(cfg.Log)
	}),
)
