package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// StructuredExtractor turns OCR text into a ReceiptCandidate via a Completer.
type StructuredExtractor struct {
	completer Completer
	logger    *slog.Logger
	now       func() time.Time
}

func NewStructuredExtractor(c Completer, logger *slog.Logger) *StructuredExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &StructuredExtractor{completer: c, logger: logger, now: time.Now}
}

// WithClock overrides "today" for the date fallback.
func (e *StructuredExtractor) WithClock(now func() time.Time) *StructuredExtractor {
	e.now = now
	return e
}

// Extract returns the parsed candidate together with the raw model response.
func (e *StructuredExtractor) Extract(ctx context.Context, req ExtractRequest) (ReceiptCandidate, string, error) {
	rid := uuid.New().String()
	start := time.Now()
	e.logger.Info("llm.extract.start",
		"req_id", rid,
		"text_len", len(req.OCRText),
		"known_categories", len(req.KnownCategories),
		"known_shops", len(req.KnownShops),
	)

	raw, err := e.completer.Complete(ctx, BuildPrompt(req))
	if err != nil {
		e.logger.Error("llm.extract.complete_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return ReceiptCandidate{}, "", fmt.Errorf("llm complete: %w", err)
	}

	cand, err := ParseReceipt(raw, Today(e.now()))
	if err != nil {
		e.logger.Error("llm.extract.parse_error", "req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds())
		return ReceiptCandidate{}, raw, err
	}
	if len(cand.Defaulted) > 0 {
		e.logger.Warn("llm.extract.fallbacks_applied", "req_id", rid, "fields", cand.Defaulted)
	}

	e.logger.Info("llm.extract.ok",
		"req_id", rid,
		"shop", cand.Shop.Name,
		"date", cand.Date.Format("2006-01-02"),
		"total", cand.TotalAmount.StringFixed(2),
		"items", len(cand.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return cand, raw, nil
}

// Today is the calendar date of t in its own location, as UTC midnight.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
