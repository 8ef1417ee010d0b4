// Package repotest opens throwaway migrated SQLite databases for tests.
package repotest

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/expense-tracker/internal/repository"
)

// DiscardLogger keeps test output quiet.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// New returns a migrated SQLite database under t.TempDir(), closed on cleanup.
func New(t testing.TB) *repository.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expenses.db")
	db, err := repository.Open(context.Background(), repository.Config{Driver: "sqlite", DSN: path}, DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}
