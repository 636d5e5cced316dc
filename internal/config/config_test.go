package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Dialect)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Dispute.ChallengeWindow)
	assert.Equal(t, int64(10), cfg.Dispute.JudgeApprovalPoints)
	assert.Equal(t, int64(10), cfg.Dispute.JudgeOverturnPenalty)
	assert.Equal(t, time.Minute, cfg.Schedule.SweepInterval)
	assert.Equal(t, 18*time.Hour, cfg.Schedule.EventOpenOffset)
	assert.Equal(t, slog.LevelInfo, cfg.App.LogLevel)
	assert.Equal(t, "host=localhost port=5432 user=postgres password= dbname=daily_squad sslmode=disable", cfg.GetDSN())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DIALECT", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/squad.db")
	t.Setenv("CHALLENGE_WINDOW", "30m")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/squad.db", cfg.GetDSN())
	assert.Equal(t, 30*time.Minute, cfg.Dispute.ChallengeWindow)
	assert.Equal(t, slog.LevelDebug, cfg.App.LogLevel)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing jwt secret", env: map[string]string{"JWT_SECRET": ""}},
		{name: "unknown dialect", env: map[string]string{"JWT_SECRET": "s", "DB_DIALECT": "mysql"}},
		{name: "zero window", env: map[string]string{"JWT_SECRET": "s", "CHALLENGE_WINDOW": "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
