package processor

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/llm"
	"github.com/joseph-ayodele/expense-tracker/internal/llm/anthropic"
	"github.com/joseph-ayodele/expense-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/expense-tracker/internal/ocr"
)

// NewCompleter picks the model provider named in cfg.
func NewCompleter(cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, error) {
	switch cfg.Provider {
	case "", "openai":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		}, logger), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}

// NewOCRConfig maps the environment config onto the OCR engine's.
func NewOCRConfig(cfg common.OCRConfig) ocr.Config {
	return ocr.Config{
		Tesseract:           cfg.Tesseract,
		TesseractLang:       cfg.Language,
		TessdataDir:         cfg.TessdataDir,
		HeicConverter:       cfg.HeicConverter,
		ArtifactCacheDir:    cfg.ArtifactCacheDir,
		PSM:                 6,
		OEM:                 1,
		EnableTSVConfidence: true,
	}
}
