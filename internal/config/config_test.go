package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) []string {
	return []string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("test", noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "kotoba.db", cfg.Database.Path)
	assert.Equal(t, "none", cfg.AI.Provider)
	assert.Equal(t, 10, cfg.Quiz.Questions)
	assert.Equal(t, 4, cfg.Quiz.Options)
	assert.Equal(t, []rune{'。', '．', '.'}, cfg.Quiz.TerminatorRunes())
	assert.Equal(t, 5, cfg.Study.DailyGoal)
	assert.Equal(t, time.UTC, cfg.Study.Location())
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.Server.AllowedOrigins)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kotoba.yaml")
	yaml := `
server:
  addr: ":9000"
  session_ttl: 30m
database:
  path: /var/lib/kotoba.db
quiz:
  options: 3
study:
  daily_goal: 8
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))

	t.Setenv("KOTOBA_DATABASE__PATH", "/tmp/env.db")
	t.Setenv("KOTOBA_STUDY__TIMEZONE", "Asia/Tokyo")

	args := append(noEnvFile(t), "--config", path, "--quiz.options", "5")
	cfg, err := Load("test", args)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr, "file overrides default")
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path, "env overrides file")
	assert.Equal(t, 5, cfg.Quiz.Options, "flag overrides file")
	assert.Equal(t, 8, cfg.Study.DailyGoal)
	assert.Equal(t, "Asia/Tokyo", cfg.Study.Timezone)
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("KOTOBA_LOG__LEVEL=debug\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("KOTOBA_LOG__LEVEL") })

	cfg, err := Load("test", []string{"--env-file", envFile})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad provider", []string{"--ai.provider", "cohere"}, "Provider"},
		{"provider without key", []string{"--ai.provider", "openai"}, "APIKey"},
		{"too few options", []string{"--quiz.options", "1"}, "Options"},
		{"short secret", []string{"--auth.secret", "short"}, "Secret"},
		{"bad timezone", []string{"--study.timezone", "Mars/Base"}, "Timezone"},
		{"bad log format", []string{"--log.format", "xml"}, "Format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("test", append(noEnvFile(t), tt.args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load("test", append(noEnvFile(t), "--config", "/nonexistent/kotoba.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config file")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "word", "猫")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"word":"猫"`)
}

func TestAIClientConfig(t *testing.T) {
	cfg, err := Load("test", append(noEnvFile(t), "--ai.provider", "openai", "--ai.api_key", "sk-test", "--ai.max_sentences", "5"))
	require.NoError(t, err)

	client := cfg.AI.ClientConfig()
	assert.Equal(t, "openai", client.Provider)
	assert.Equal(t, "sk-test", client.APIKey)
	assert.Equal(t, 5, client.MaxSentences)
	assert.Equal(t, 60*time.Second, client.Timeout)
	assert.Equal(t, 3, client.MaxAttempts)
}
