package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/expense-tracker/internal/entity"
)

type stubLister struct {
	recs   []*entity.Receipt
	filter entity.ReceiptFilter
}

func (s *stubLister) ListReceipts(_ context.Context, f entity.ReceiptFilter) ([]*entity.Receipt, error) {
	s.filter = f
	return s.recs, nil
}

func TestExportXLSX(t *testing.T) {
	rec := &entity.Receipt{
		ID:          uuid.New(),
		Date:        time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		TotalAmount: decimal.RequireFromString("8.50"),
		ImageURL:    "/uploads/receipts/x/raw.jpg",
		Shop:        &entity.Shop{Name: "Shop X"},
		Items: []entity.Item{
			{Name: "Milk", Price: decimal.RequireFromString("2.50"), Quantity: 1, CategoryName: "Groceries"},
			{Name: "Bread", Price: decimal.RequireFromString("3.00"), Quantity: 2, CategoryName: "Groceries"},
		},
	}
	lister := &stubLister{recs: []*entity.Receipt{rec}}
	svc := NewService(lister, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2024, 4, 1, 18, 0, 0, 0, time.UTC) }

	from := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	b, err := svc.ExportXLSX(context.Background(), entity.ReceiptFilter{From: &from})
	require.NoError(t, err)
	require.Equal(t, "2024-03-01", lister.filter.From.Format(time.DateOnly))
	require.Equal(t, "2024-04-01", lister.filter.To.Format(time.DateOnly))

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{"Receipts", "Items"}, f.GetSheetList())

	rows, err := f.GetRows("Receipts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, []string{"Date", "Shop", "Total", "Item Count", "Image URL"}, rows[0])
	require.Equal(t, "2024-03-05", rows[1][0])
	require.Equal(t, "Shop X", rows[1][1])
	require.Equal(t, "2", rows[1][3])

	items, err := f.GetRows("Items")
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "Bread", items[2][2])
	require.Equal(t, "Groceries", items[2][3])

	line, err := f.GetCellValue("Items", "G3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Equal(t, "6", line)
}
