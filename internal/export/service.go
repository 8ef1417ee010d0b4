// Package export renders receipts as XLSX workbooks.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/expense-tracker/internal/entity"
)

const (
	receiptsSheet = "Receipts"
	itemsSheet    = "Items"
)

// ReceiptLister is satisfied by *receipts.Service.
type ReceiptLister interface {
	ListReceipts(ctx context.Context, filter entity.ReceiptFilter) ([]*entity.Receipt, error)
}

// Service produces XLSX bytes for exports.
type Service struct {
	receipts ReceiptLister
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(receipts ReceiptLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{receipts: receipts, logger: logger, now: time.Now}
}

// ExportXLSX returns a workbook with one row per receipt on "Receipts" and
// one row per item on "Items".
// If only From is set the window ends today; if neither is set every
// receipt is exported.
func (s *Service) ExportXLSX(ctx context.Context, filter entity.ReceiptFilter) ([]byte, error) {
	start := time.Now()
	filter = s.normalize(filter)

	recs, err := s.receipts.ListReceipts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default "Sheet1" becomes Receipts so it stays the first tab
	if err := f.SetSheetName(f.GetSheetName(0), receiptsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	if err := writeRow(f, receiptsSheet, 1, "Date", "Shop", "Total", "Item Count", "Image URL"); err != nil {
		return nil, err
	}
	if err := writeRow(f, itemsSheet, 1, "Date", "Shop", "Item", "Category", "Price", "Quantity", "Line Total"); err != nil {
		return nil, err
	}

	itemRow := 2
	for i, r := range recs {
		date, shop := r.Date.Format("2006-01-02"), shopName(r)
		total, _ := r.TotalAmount.Float64()
		if err := writeRow(f, receiptsSheet, i+2, date, shop, total, len(r.Items), r.ImageURL); err != nil {
			return nil, err
		}
		for _, it := range r.Items {
			price, _ := it.Price.Float64()
			line, _ := it.LineTotal().Round(2).Float64()
			if err := writeRow(f, itemsSheet, itemRow, date, shop, it.Name, it.CategoryName, price, it.Quantity, line); err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	if err := s.style(f, len(recs)+1, itemRow-1); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"receipts", len(recs),
		"items", itemRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) normalize(filter entity.ReceiptFilter) entity.ReceiptFilter {
	dateOnly := func(t time.Time) *time.Time {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}
	if filter.From != nil {
		filter.From = dateOnly(*filter.From)
	}
	if filter.To != nil {
		filter.To = dateOnly(*filter.To)
	}
	if filter.From != nil && filter.To == nil {
		filter.To = dateOnly(s.now().UTC())
	}
	return filter
}

func (s *Service) style(f *excelize.File, lastReceiptRow, lastItemRow int) error {
	money, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}
	if lastReceiptRow >= 2 {
		if err := f.SetCellStyle(receiptsSheet, "C2", fmt.Sprintf("C%d", lastReceiptRow), money); err != nil {
			return err
		}
	}
	if lastItemRow >= 2 {
		if err := f.SetCellStyle(itemsSheet, "E2", fmt.Sprintf("E%d", lastItemRow), money); err != nil {
			return err
		}
		if err := f.SetCellStyle(itemsSheet, "G2", fmt.Sprintf("G%d", lastItemRow), money); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(receiptsSheet, "A", "A", 12) // date
	_ = f.SetColWidth(receiptsSheet, "B", "B", 28) // shop
	_ = f.SetColWidth(receiptsSheet, "C", "D", 12)
	_ = f.SetColWidth(receiptsSheet, "E", "E", 60) // url
	_ = f.SetColWidth(itemsSheet, "A", "A", 12)
	_ = f.SetColWidth(itemsSheet, "B", "D", 28)
	_ = f.SetColWidth(itemsSheet, "E", "G", 12)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func shopName(r *entity.Receipt) string {
	if r.Shop != nil {
		return r.Shop.Name
	}
	return ""
}
