package handlers

import (
	"github.com/coro-biz/journey-coach/config"
	"github.com/coro-biz/journey-coach/middleware/csrf"
	"github.com/coro-biz/journey-coach/middleware/ratelimit"
	"github.com/coro-biz/journey-coach/server"
	"github.com/coro-biz/journey-coach/services/auth"
	"github.com/coro-biz/journey-coach/services/coach"
	"github.com/coro-biz/journey-coach/services/logging"
	"github.com/coro-biz/journey-coach/services/templates"
	"github.com/coro-biz/journey-coach/services/tokens"
	"github.com/coro-biz/journey-coach/services/users"
	"github.com/coro-biz/journey-coach/session"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	config   *config.Config
	auth     *auth.Service
	users    *users.Service
	tokens   *tokens.Service
	coach    *coach.Service
	sessions *session.Service
	logger   *logging.Service
}

func New(cfg *config.Config, authSvc *auth.Service, usersSvc *users.Service, tokensSvc *tokens.Service, coachSvc *coach.Service, sessionSvc *session.Service, logger *logging.Service) *Handler {
	return &Handler{
		config:   cfg,
		auth:     authSvc,
		users:    usersSvc,
		tokens:   tokensSvc,
		coach:    coachSvc,
		sessions: sessionSvc,
		logger:   logger,
	}
}

// RegisterRoutes wires the HTTP surface. Session state is loaded on every
// request; credential endpoints additionally sit behind the rate limiter,
// and mutating authenticated endpoints behind the CSRF check.
func (h *Handler) RegisterRoutes(srv *server.Server, manager *session.Manager, tmpl *templates.Service) {
	e := srv.Echo()
	srv.SetRenderer(tmpl.Renderer())

	e.Use(logging.RequestLogger(h.logger, "/health"))
	e.Use(session.Middleware(manager))

	var limited []echo.MiddlewareFunc
	if h.config.RateLimit.Enabled {
		limited = append(limited, ratelimit.Middleware(ratelimit.Config{
			Rate:   h.config.RateLimit.Rate,
			Period: h.config.RateLimit.Period,
		}))
	}

	e.GET("/health", h.Health)

	e.POST("/signup", h.Signup, limited...)
	e.POST("/login", h.Login, limited...)
	e.POST("/logout", h.Logout)
	e.POST("/forgot_password", h.ForgotPassword, limited...)

	e.GET("/reset", h.ResetForm)
	e.POST("/reset", h.ResetSubmit)
	e.GET("/verify", h.VerifyEmail)

	e.GET("/me", h.Me, session.RequireAuth())
	e.GET("/sessions", h.Sessions, session.RequireAuth())
	e.POST("/phase", h.SetPhase, session.RequireAuth(), csrf.Middleware())

	e.POST("/admin/set_password", h.AdminSetPassword)
	e.POST("/admin/cleanup_tokens", h.AdminCleanupTokens)

	e.POST("/plan", h.Plan)
	e.POST("/standup", h.Standup)
	e.POST("/gate", h.Gate)
	e.POST("/triage", h.Triage)
	e.POST("/chat", h.Chat)
}
