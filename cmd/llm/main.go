package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/llm"
	processor "github.com/joseph-ayodele/expense-tracker/internal/pipeline"
)

// Runs the structured extraction over a saved OCR text file, optionally
// several times, to eyeball how stable the model output is.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: llm <ocr-text-file> [times]")
		os.Exit(2)
	}
	text, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read text file", "path", os.Args[1], "error", err)
		os.Exit(2)
	}
	times := 1
	if len(os.Args) >= 3 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			times = n
		}
	}

	cfg := common.LoadConfig()
	completer, err := processor.NewCompleter(cfg.LLM, logger)
	if err != nil {
		logger.Error("llm client", "error", err)
		os.Exit(2)
	}
	extractor := llm.NewStructuredExtractor(completer, logger)

	req := llm.ExtractRequest{
		OCRText:         string(text),
		KnownCategories: constants.DefaultCategories(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	failures := 0
	for i := 1; i <= times; i++ {
		runCtx, cancelRun := context.WithTimeout(context.Background(), cfg.LLM.Timeout+15*time.Second)
		cand, _, err := extractor.Extract(runCtx, req)
		cancelRun()
		if err != nil {
			failures++
			logger.Error("extract.run.error", "iter", i, "kind", common.KindOf(err), "error", err)
			continue
		}
		if err := enc.Encode(cand); err != nil {
			logger.Error("encode candidate", "error", err)
		}
		if i < times {
			time.Sleep(750 * time.Millisecond)
		}
	}

	logger.Info("done", "times", times, "failures", failures)
	if failures == times {
		os.Exit(1)
	}
}
