package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
)

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
	HeicConverter string // "heif-convert" | "magick" | "sips"

	EnableTSVConfidence bool
	PSM                 int // e.g., 6 is good for uniform block of text
	OEM                 int // 1 = LSTM; leave 0 to use default

	// MaxEdge bounds the longest side of the processed image; 0 -> 2400.
	MaxEdge int

	ArtifactCacheDir string
}

type ExtractionResult struct {
	Text       string
	Method     string
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32

	// ProcessedPath is the preprocessed PNG tesseract actually read. The caller
	// owns it and should call Cleanup once it has been persisted.
	ProcessedPath string
	Cleanup       func()
}

// Recognizer is what the pipeline depends on.
type Recognizer interface {
	Extract(ctx context.Context, path string) (ExtractionResult, error)
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	return NewExtractorWithRunner(cfg, execRunner{}, logger)
}

// NewExtractorWithRunner lets tests stub out external binaries.
func NewExtractorWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.MaxEdge <= 0 {
		cfg.MaxEdge = 2400
	}
	if cfg.ArtifactCacheDir == "" {
		cfg.ArtifactCacheDir = "./tmp"
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// Extract runs OCR over an image file. Any failure (unsupported format,
// undecodable image, engine error) is returned as an ExtractionError.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)

	if constants.MapExtToFormat(ext) != constants.IMAGE {
		e.logger.Error("unsupported ocr extension", "extension", ext)
		return ExtractionResult{}, common.NewExtractionError("unsupported image format", fmt.Errorf("extension %q", ext))
	}
	if st, err := os.Stat(path); err != nil || st.IsDir() {
		return ExtractionResult{}, common.NewExtractionError("image not readable", err)
	}

	var warns []string
	src := path
	if constants.IsHEICExt(ext) {
		hashHex, _ := contentHashFromCtx(ctx)
		out, w, cleanup, err := convertHEICtoPNG(ctx, e.runner, e.logger, e.cfg.HeicConverter, path, e.cfg.ArtifactCacheDir, hashHex)
		warns = append(warns, w...)
		if err != nil {
			e.logger.Error("heic conversion failed", "path", path, "error", err)
			return ExtractionResult{Warnings: warns}, common.NewExtractionError("heic conversion failed", err)
		}
		if cleanup != nil {
			defer cleanup()
		}
		src = out
	}

	processed, cleanup, err := Preprocess(src, e.cfg.MaxEdge)
	if err != nil {
		e.logger.Error("image preprocessing failed", "path", path, "error", err)
		return ExtractionResult{Warnings: warns}, common.NewExtractionError("cannot decode image", err)
	}

	res, err := e.extractImage(ctx, processed)
	res.Warnings = append(res.Warnings, warns...)
	res.Duration = time.Since(start)
	if err != nil {
		cleanup()
		return res, common.NewExtractionError("ocr engine failed", err)
	}
	res.ProcessedPath = processed
	res.Cleanup = cleanup

	if res.Confidence < constants.ImageConfidenceThreshold {
		e.logger.Warn("ocr.extract.low_confidence", "path", path, "confidence", res.Confidence)
	}
	e.logger.Info("ocr.extract.ok",
		"path", path,
		"chars", len(res.Text),
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
