package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coro-biz/journey-coach/config"
	"github.com/coro-biz/journey-coach/database"
	"github.com/coro-biz/journey-coach/internal/handlers"
	"github.com/coro-biz/journey-coach/server"
	"github.com/coro-biz/journey-coach/services/auth"
	"github.com/coro-biz/journey-coach/services/coach"
	"github.com/coro-biz/journey-coach/services/logging"
	"github.com/coro-biz/journey-coach/services/mail"
	"github.com/coro-biz/journey-coach/services/templates"
	"github.com/coro-biz/journey-coach/services/tokens"
	"github.com/coro-biz/journey-coach/services/users"
	"github.com/coro-biz/journey-coach/session"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

type App struct {
	fx *fx.App
}

// New assembles the application. Every component receives its dependencies
// explicitly; there is no package-level state to initialize.
func New(cfg *config.Config) *App {
	fxApp := fx.New(
		config.NewProvider(cfg),
		logging.Module,
		database.Module,
		session.Module,
		templates.Module,
		mail.Module,
		users.Module,
		tokens.Module,
		auth.Module,
		coach.Module,
		server.Module,
		handlers.Module,
		fx.WithLogger(func(logger *logging.Service) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Logger()}
		}),
	)

	return &App{fx: fxApp}
}

func (a *App) Start(ctx context.Context) error {
	return a.fx.Start(ctx)
}

func (a *App) Stop(ctx context.Context) error {
	return a.fx.Stop(ctx)
}

// Run starts the app and blocks until SIGINT/SIGTERM, then shuts down
// gracefully.
func (a *App) Run() {
	if err := a.Start(context.Background()); err != nil {
		log.Fatalf("failed to start application: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("received signal %v, shutting down gracefully", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Stop(ctx); err != nil {
		log.Printf("failed to stop application gracefully: %v", err)
	}
}
