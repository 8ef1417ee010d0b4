// Package app wires configuration into the services shared by the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/expense-tracker/internal/categories"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/events"
	"github.com/joseph-ayodele/expense-tracker/internal/export"
	"github.com/joseph-ayodele/expense-tracker/internal/llm"
	"github.com/joseph-ayodele/expense-tracker/internal/ocr"
	processor "github.com/joseph-ayodele/expense-tracker/internal/pipeline"
	"github.com/joseph-ayodele/expense-tracker/internal/receipts"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
	"github.com/joseph-ayodele/expense-tracker/internal/server"
	"github.com/joseph-ayodele/expense-tracker/internal/storage"
)

type App struct {
	DB         *repository.DB
	Files      storage.FileStore
	Events     events.Publisher
	Receipts   *receipts.Service
	Categories *categories.Service
	Export     *export.Service

	logger *slog.Logger
}

// New connects the database (migrating it), the file store, the event
// publisher and the model provider, then seeds the default categories.
// Callers must Close the result.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a := &App{DB: db, logger: logger}

	if a.Files, err = storage.New(ctx, cfg.Storage, logger); err != nil {
		a.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}
	if a.Events, err = events.New(cfg.Events.AMQPURL, cfg.Events.Exchange, logger); err != nil {
		a.Close()
		return nil, fmt.Errorf("events: %w", err)
	}
	completer, err := processor.NewCompleter(cfg.LLM, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	proc := processor.NewProcessor(logger,
		ocr.NewExtractor(processor.NewOCRConfig(cfg.OCR), logger),
		llm.NewStructuredExtractor(completer, logger),
	)
	a.Receipts = receipts.NewService(db, proc, a.Files, a.Events, logger).WithTempDir(cfg.OCR.ArtifactCacheDir)
	a.Categories = categories.NewService(db, logger)
	a.Export = export.NewService(a.Receipts, logger)

	if _, err := a.Categories.SeedDefaults(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) Close() {
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			a.logger.Warn("closing event publisher", "error", err)
		}
	}
	a.DB.Close()
}
