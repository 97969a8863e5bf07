package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, env.Parse(&cfg))

	assert.Equal(t, "5055", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 8, cfg.Auth.MinPasswordLength)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, time.Hour, cfg.Auth.VerifyTokenTTL)
	assert.Equal(t, 32, cfg.Auth.TokenLength)
	assert.Equal(t, "database", cfg.Session.Store)
	assert.Equal(t, "gpt-4o-mini", cfg.Coach.Model)
	assert.InDelta(t, 0.3, cfg.Coach.TaskTemperature, 0.001)
	assert.InDelta(t, 0.2, cfg.Coach.ChatTemperature, 0.001)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestConfigOverrides(t *testing.T) {
	t.Setenv("COACH_SERVER_PORT", "8080")
	t.Setenv("COACH_AUTH_RESET_TOKEN_TTL", "30m")
	t.Setenv("COACH_LLM_MODEL", "gpt-4o")

	var cfg Config
	require.NoError(t, env.Parse(&cfg))

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, "gpt-4o", cfg.Coach.Model)
}
