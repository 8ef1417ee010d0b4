package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt represents a receipt for data transfer between layers.
type Receipt struct {
	ID           uuid.UUID       `json:"id"`
	Date         time.Time       `json:"date"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ImageURL     string          `json:"image_url,omitempty"`
	RawImagePath string          `json:"raw_image_path,omitempty"`
	ProcessedKey string          `json:"processed_key,omitempty"`
	Source       string          `json:"source"`
	ShopID       *uuid.UUID      `json:"shop_id,omitempty"`
	Shop         *Shop           `json:"shop,omitempty"`
	Items        []Item          `json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Item is one line of a receipt.
type Item struct {
	ID           uuid.UUID       `json:"id"`
	ReceiptID    uuid.UUID       `json:"receipt_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	CategoryID   uuid.UUID       `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	Position     int             `json:"position"`
}

// LineTotal is price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SumItems returns Σ price×quantity rounded to cents.
func SumItems(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total.Round(2)
}

// ReceiptFilter narrows ListReceipts; zero values mean no constraint.
type ReceiptFilter struct {
	From       *time.Time
	To         *time.Time
	ShopID     *uuid.UUID
	CategoryID *uuid.UUID
}
