package users

import (
	"github.com/coro-biz/journey-coach/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("users",
	fx.Provide(func(db *gorm.DB, logger *logging.Service) *Service {
		return NewService(db, logger)
	}),
)
