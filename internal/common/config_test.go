package common

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", "/tmp/expenses.db")
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("STORAGE_BACKEND", "local")
	t.Setenv("GRPC_ADDR", "")
	t.Setenv("INBOX_DIRS", " /a, ,/b ")
	t.Setenv("INBOX_DEBOUNCE", "2s")
	t.Setenv("INGEST_WORKERS", "not-a-number")

	cfg := LoadConfig()
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "anthropic", cfg.LLM.Provider)
	require.Equal(t, "sk-test", cfg.LLM.APIKey)
	require.Equal(t, []string{"/a", "/b"}, cfg.Ingest.WatchDirs)
	require.Equal(t, 2*time.Second, cfg.Ingest.Debounce)
	require.Equal(t, 4, cfg.Ingest.Workers)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate_ReportsEverything(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "postgres"},
		LLM:      LLMConfig{Provider: "cohere"},
		Storage:  StorageConfig{Backend: "s3"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	require.Equal(t, KindValidation, KindOf(err))
	for _, want := range []string{"DB_URL", "LLM_PROVIDER", "LLM_API_KEY", "GRPC_ADDR", "S3_BUCKET", "INGEST_WORKERS"} {
		require.ErrorContains(t, err, want)
	}
}

func TestLogConfig_NewLogger(t *testing.T) {
	l := LogConfig{Level: "debug", Format: "json"}.NewLogger()
	require.True(t, l.Enabled(t.Context(), slog.LevelDebug))

	l = LogConfig{Level: "loud"}.NewLogger()
	require.False(t, l.Enabled(t.Context(), slog.LevelDebug))
	require.True(t, l.Enabled(t.Context(), slog.LevelInfo))
}
