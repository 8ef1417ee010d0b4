package server

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
)

type shopView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type itemView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	Quantity     int    `json:"quantity"`
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	LineTotal    string `json:"lineTotal"`
}

type receiptView struct {
	ID          string     `json:"id"`
	Date        string     `json:"date"`
	TotalAmount string     `json:"totalAmount"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Source      string     `json:"source"`
	Shop        *shopView  `json:"shop,omitempty"`
	Items       []itemView `json:"items"`
	CreatedAt   string     `json:"createdAt"`
	UpdatedAt   string     `json:"updatedAt"`
}

type categoryView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ItemCount int    `json:"itemCount"`
}

func toShopView(s *entity.Shop) *shopView {
	if s == nil {
		return nil
	}
	v := &shopView{ID: s.ID.String(), Name: s.Name}
	if s.Address != nil {
		v.Address = *s.Address
	}
	return v
}

func toReceiptView(r *entity.Receipt) receiptView {
	v := receiptView{
		ID:          r.ID.String(),
		Date:        r.Date.Format(time.DateOnly),
		TotalAmount: r.TotalAmount.StringFixed(2),
		ImageURL:    r.ImageURL,
		Source:      r.Source,
		Shop:        toShopView(r.Shop),
		Items:       make([]itemView, 0, len(r.Items)),
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   r.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, it := range r.Items {
		v.Items = append(v.Items, itemView{
			ID:           it.ID.String(),
			Name:         it.Name,
			Price:        it.Price.StringFixed(2),
			Quantity:     it.Quantity,
			CategoryID:   it.CategoryID.String(),
			CategoryName: it.CategoryName,
			LineTotal:    it.LineTotal().StringFixed(2),
		})
	}
	return v
}

func toCategoryView(c *entity.Category) categoryView {
	return categoryView{ID: c.ID.String(), Name: c.Name, ItemCount: c.ItemCount}
}

func parseID(field, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, common.NewValidationError(field, "must be a valid UUID")
	}
	return id, nil
}

func parseOptionalID(field, s string) (*uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := parseID(field, s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseYMD strips time to midnight UTC to match DATE semantics.
func parseYMD(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return nil, common.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}
