package tokens

import (
	"github.com/coro-biz/journey-coach/config"
	"github.com/coro-biz/journey-coach/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("tokens",
	fx.Provide(func(cfg *config.Config, db *gorm.DB, logger *logging.Service) *Service {
		return NewService(cfg, db, logger)
	}),
)
