package auth

import (
	"github.com/coro-biz/journey-coach/config"
	"github.com/coro-biz/journey-coach/services/logging"
	"github.com/coro-biz/journey-coach/services/mail"
	"github.com/coro-biz/journey-coach/services/tokens"
	"github.com/coro-biz/journey-coach/services/users"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Config *config.Config
	Users  *users.Service
	Tokens *tokens.Service
	Mail   *mail.Service `optional:"true"`
	Logger *logging.Service
}

var Module = fx.Module("auth",
	fx.Provide(func(p Params) *Service {
		var mailer Mailer
		if p.Mail != nil {
			mailer = p.Mail
		}
		return NewService(p.Config, p.Users, p.Tokens, mailer, p.Logger)
	}),
)
