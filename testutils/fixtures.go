package testutils

import (
	"time"

	"github.com/coro-biz/journey-coach/config"
	"golang.org/x/crypto/bcrypt"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "Test Coach",
			URL:  "http://localhost:5055",
		},
		Auth: config.AuthConfig{
			MinPasswordLength: 8,
			BcryptCost:        bcrypt.MinCost,
			ResetTokenTTL:     time.Hour,
			VerifyTokenTTL:    time.Hour,
			TokenLength:       32,
		},
		Session: config.SessionConfig{
			Name:     "coach_session",
			Store:    "memory",
			MaxAge:   time.Hour,
			Path:     "/",
			HttpOnly: true,
			SameSite: "lax",
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    ":memory:",
		},
		RateLimit: config.RateLimitConfig{
			Enabled: false,
		},
	}
}

var TestPasswords = struct {
	Valid    string
	Another  string
	TooShort string
}{
	Valid:    "password1",
	Another:  "password2",
	TooShort: "pass1",
}
