package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/expense-tracker/internal/llm"
	"github.com/joseph-ayodele/expense-tracker/internal/ocr"
)

// CandidateExtractor is the structured-extraction step; *llm.StructuredExtractor satisfies it.
type CandidateExtractor interface {
	Extract(ctx context.Context, req llm.ExtractRequest) (llm.ReceiptCandidate, string, error)
}

// Hints steer the model towards existing taxonomy.
type Hints struct {
	Categories []string
	Shops      []string
}

// Result of one OCR + extraction run. The caller owns OCR.ProcessedPath and
// must call Close once it has been persisted.
type Result struct {
	OCR       ocr.ExtractionResult
	Candidate llm.ReceiptCandidate
	RawModel  string
}

func (r *Result) Close() {
	if r != nil && r.OCR.Cleanup != nil {
		r.OCR.Cleanup()
		r.OCR.Cleanup = nil
	}
}

// Processor coordinates OCR (text extract) then LLM parse (fields). It
// touches no storage, so a failure at either step leaves nothing behind.
type Processor struct {
	Logger *slog.Logger
	OCR    ocr.Recognizer
	Parse  CandidateExtractor
}

func NewProcessor(logger *slog.Logger, recognizer ocr.Recognizer, parse CandidateExtractor) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, OCR: recognizer, Parse: parse}
}

// Process fails with ExtractionError when OCR cannot read the image and with
// ParseError when the model output cannot be coerced into a receipt.
func (p *Processor) Process(ctx context.Context, imagePath string, hints Hints) (*Result, error) {
	start := time.Now()

	ocrRes, err := p.OCR.Extract(ctx, imagePath)
	if err != nil {
		p.Logger.Error("processor.ocr.failed", "path", imagePath, "err", err)
		return nil, err
	}
	res := &Result{OCR: ocrRes}
	p.Logger.Info("processor.ocr.ok",
		"path", imagePath,
		"method", ocrRes.Method,
		"chars", len(ocrRes.Text),
		"confidence", ocrRes.Confidence,
	)

	cand, raw, err := p.Parse.Extract(ctx, llm.ExtractRequest{
		OCRText:         ocrRes.Text,
		KnownCategories: hints.Categories,
		KnownShops:      hints.Shops,
	})
	if err != nil {
		res.Close()
		p.Logger.Error("processor.parse.failed", "path", imagePath, "err", err)
		return nil, err
	}
	res.Candidate, res.RawModel = cand, raw

	p.Logger.Info("processor.parse.ok",
		"path", imagePath,
		"items", len(cand.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
