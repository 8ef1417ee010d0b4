package llm

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Completer is the generative model service: prompt in, free-form text out.
// Nothing about the response is trusted.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type ExtractRequest struct {
	OCRText         string
	KnownCategories []string
	KnownShops      []string
}

type ShopCandidate struct {
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
}

type ItemCandidate struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Category string          `json:"category"`
}

// ReceiptCandidate is the well-typed result of a successful parse. Every
// field is populated, either from the model or from a fallback.
type ReceiptCandidate struct {
	Date        time.Time       `json:"date"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Shop        ShopCandidate   `json:"shop"`
	Items       []ItemCandidate `json:"items"`

	// Defaulted lists the fields that were filled by a fallback.
	Defaulted []string `json:"-"`
}
