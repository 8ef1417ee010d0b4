package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/expense-tracker/internal/app"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem   = flag.Bool("inmem", false, "use a throwaway SQLite database and image store")
		dir     = flag.String("dir", "", "directory to process receipts from (required)")
		out     = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		fromStr = flag.String("from", "", "from date YYYY-MM-DD")
		toStr   = flag.String("to", "", "to date YYYY-MM-DD")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "receipts.xlsx")
	}

	var filter entity.ReceiptFilter
	for _, f := range []struct {
		name string
		raw  string
		dst  **time.Time
	}{{"from", *fromStr, &filter.From}, {"to", *toStr, &filter.To}} {
		if f.raw == "" {
			continue
		}
		parsed, err := time.Parse("2006-01-02", f.raw)
		if err != nil {
			printError("Error: invalid --%s date format, use YYYY-MM-DD: %v\n", f.name, err)
			os.Exit(1)
		}
		*f.dst = &parsed
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	ctx := context.Background()

	cfg := common.LoadConfig()
	if *inmem {
		tmp, err := os.MkdirTemp("", "receipt-batch-*")
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		defer os.RemoveAll(tmp)
		cfg.Database.Driver = "sqlite"
		cfg.Database.DSN = filepath.Join(tmp, "batch.db")
		cfg.Storage.Backend = "local"
		cfg.Storage.RootDir = filepath.Join(tmp, "images")
		cfg.Events.AMQPURL = ""
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	logger.Info("starting ingestion", "dir", *dir)
	results, stats, err := ingest.IngestDirectory(ctx, *dir, true, func(ctx context.Context, path string) (string, error) {
		pctx, cancel := context.WithTimeout(ctx, cfg.Ingest.ProcessTimeout)
		defer cancel()
		rec, err := a.Receipts.IngestFromImage(pctx, path)
		if err != nil {
			return "", err
		}
		return rec.ID.String(), nil
	})
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}
	for _, r := range results {
		if r.Err != nil {
			logger.Warn("file failed", "path", r.Path, "kind", common.KindOf(r.Err), "error", r.Err)
		}
	}
	logger.Info("ingestion complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed)

	logger.Info("exporting to XLSX", "output", *out)
	xlsxBytes, err := a.Export.ExportXLSX(ctx, filter)
	if err != nil {
		logger.Error("failed to export receipts", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files matched: %d\n", stats.Matched)
	fmt.Printf("- Receipts stored: %d\n", stats.Succeeded)
	fmt.Printf("- Failures: %d\n", stats.Failed)
	fmt.Printf("- Output: %s\n", *out)
}
