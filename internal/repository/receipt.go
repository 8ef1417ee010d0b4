package repository

import (
	"context"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/expense-tracker/internal/entity"
)

const tableReceipts = "receipts"

type ReceiptRepository interface {
	// ListReceipts returns receipt headers (no items) newest first.
	ListReceipts(ctx context.Context, filter entity.ReceiptFilter) ([]*entity.Receipt, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Receipt, error)
	Create(ctx context.Context, rec *entity.Receipt) error
	// UpdateHeader writes date, total, shop and file references.
	UpdateHeader(ctx context.Context, rec *entity.Receipt) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type receiptRepository struct {
	q      dbtx
	b      *entsql.DialectBuilder
	logger *slog.Logger
}

var receiptColumns = []string{
	"id", "date", "total_amount", "image_url", "raw_image_path", "processed_key",
	"source", "shop_id", "created_at", "updated_at",
}

func scanReceipt(sc interface{ Scan(...any) error }) (*entity.Receipt, error) {
	var (
		rec              entity.Receipt
		date             dateValue
		shopID           uuid.NullUUID
		created, updated timeValue
	)
	if err := sc.Scan(&rec.ID, &date, &rec.TotalAmount, &rec.ImageURL, &rec.RawImagePath,
		&rec.ProcessedKey, &rec.Source, &shopID, &created, &updated); err != nil {
		return nil, err
	}
	rec.Date = date.t
	if shopID.Valid {
		id := shopID.UUID
		rec.ShopID = &id
	}
	rec.CreatedAt, rec.UpdatedAt = created.t, updated.t
	return &rec, nil
}

func (r *receiptRepository) ListReceipts(ctx context.Context, filter entity.ReceiptFilter) ([]*entity.Receipt, error) {
	t := r.b.Table(tableReceipts)
	sel := r.b.Select(qualify(t, receiptColumns)...).From(t)

	var preds []*entsql.Predicate
	if filter.From != nil {
		preds = append(preds, entsql.GTE(t.C("date"), FormatDate(*filter.From)))
	}
	if filter.To != nil {
		preds = append(preds, entsql.LTE(t.C("date"), FormatDate(*filter.To)))
	}
	if filter.ShopID != nil {
		preds = append(preds, entsql.EQ(t.C("shop_id"), *filter.ShopID))
	}
	if filter.CategoryID != nil {
		// receipts having at least one item in the category
		items := r.b.Table(tableItems)
		sub := r.b.Select(items.C("receipt_id")).
			From(items).
			Where(entsql.EQ(items.C("category_id"), *filter.CategoryID))
		preds = append(preds, entsql.In(t.C("id"), sub))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	query, args := sel.OrderBy(entsql.Desc(t.C("date")), entsql.Desc(t.C("created_at"))).Query()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list receipts", "error", err)
		return nil, translate(err, "list receipts")
	}
	defer rows.Close()

	var out []*entity.Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, translate(err, "scan receipt")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "list receipts")
	}
	return out, nil
}

func (r *receiptRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	query, args := r.b.Select(receiptColumns...).
		From(r.b.Table(tableReceipts)).
		Where(entsql.EQ("id", id)).
		Query()
	rec, err := scanReceipt(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err, "receipt", id)
	}
	return rec, nil
}

func (r *receiptRepository) Create(ctx context.Context, rec *entity.Receipt) error {
	now := time.Now().UTC()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt, rec.UpdatedAt = now, now
	query, args := r.b.Insert(tableReceipts).
		Columns(receiptColumns...).
		Values(rec.ID, FormatDate(rec.Date), money(rec.TotalAmount), rec.ImageURL, rec.RawImagePath,
			rec.ProcessedKey, rec.Source, nullableUUID(rec.ShopID), rec.CreatedAt, rec.UpdatedAt).
		Query()
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return translate(err, "create receipt")
	}
	return nil
}

func (r *receiptRepository) UpdateHeader(ctx context.Context, rec *entity.Receipt) error {
	rec.UpdatedAt = time.Now().UTC()
	query, args := r.b.Update(tableReceipts).
		Set("date", FormatDate(rec.Date)).
		Set("total_amount", money(rec.TotalAmount)).
		Set("image_url", rec.ImageURL).
		Set("raw_image_path", rec.RawImagePath).
		Set("processed_key", rec.ProcessedKey).
		Set("shop_id", nullableUUID(rec.ShopID)).
		Set("updated_at", rec.UpdatedAt).
		Where(entsql.EQ("id", rec.ID)).
		Query()
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, "update receipt")
	}
	return expectAffected(res, "receipt", rec.ID)
}

func (r *receiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args := r.b.Delete(tableReceipts).
		Where(entsql.EQ("id", id)).
		Query()
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, "delete receipt")
	}
	return expectAffected(res, "receipt", id)
}

func qualify(t *entsql.SelectTable, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = t.C(c)
	}
	return out
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return *id
}

// money renders a decimal with exactly two places for NUMERIC(12,2) / TEXT columns.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
