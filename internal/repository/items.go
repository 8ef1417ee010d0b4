package repository

import (
	"context"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/expense-tracker/internal/entity"
)

type ItemRepository interface {
	// ListByReceipts returns items keyed by receipt, in position order, with category names.
	ListByReceipts(ctx context.Context, receiptIDs []uuid.UUID) (map[uuid.UUID][]entity.Item, error)
	ListByReceipt(ctx context.Context, receiptID uuid.UUID) ([]entity.Item, error)
	Insert(ctx context.Context, items []entity.Item) error
	Update(ctx context.Context, item entity.Item) error
	DeleteByIDs(ctx context.Context, receiptID uuid.UUID, ids []uuid.UUID) (int64, error)
	DeleteByReceipt(ctx context.Context, receiptID uuid.UUID) (int64, error)
}

type itemRepository struct {
	q      dbtx
	b      *entsql.DialectBuilder
	logger *slog.Logger
}

func (r *itemRepository) ListByReceipt(ctx context.Context, receiptID uuid.UUID) ([]entity.Item, error) {
	m, err := r.ListByReceipts(ctx, []uuid.UUID{receiptID})
	if err != nil {
		return nil, err
	}
	return m[receiptID], nil
}

func (r *itemRepository) ListByReceipts(ctx context.Context, receiptIDs []uuid.UUID) (map[uuid.UUID][]entity.Item, error) {
	out := make(map[uuid.UUID][]entity.Item, len(receiptIDs))
	if len(receiptIDs) == 0 {
		return out, nil
	}
	ids := make([]any, len(receiptIDs))
	for i, id := range receiptIDs {
		ids[i] = id
	}

	i := r.b.Table(tableItems)
	c := r.b.Table(tableCategories)
	query, args := r.b.Select(
		i.C("id"), i.C("receipt_id"), i.C("name"), i.C("price"), i.C("quantity"),
		i.C("category_id"), c.C("name"), i.C("position"),
	).
		From(i).
		Join(c).On(i.C("category_id"), c.C("id")).
		Where(entsql.In(i.C("receipt_id"), ids...)).
		OrderBy(i.C("receipt_id"), i.C("position")).
		Query()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list items")
	}
	defer rows.Close()

	for rows.Next() {
		var it entity.Item
		if err := rows.Scan(&it.ID, &it.ReceiptID, &it.Name, &it.Price, &it.Quantity,
			&it.CategoryID, &it.CategoryName, &it.Position); err != nil {
			return nil, translate(err, "scan item")
		}
		out[it.ReceiptID] = append(out[it.ReceiptID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "list items")
	}
	return out, nil
}

func (r *itemRepository) Insert(ctx context.Context, items []entity.Item) error {
	if len(items) == 0 {
		return nil
	}
	ins := r.b.Insert(tableItems).
		Columns("id", "receipt_id", "name", "price", "quantity", "category_id", "position")
	for idx := range items {
		if items[idx].ID == uuid.Nil {
			items[idx].ID = uuid.New()
		}
		it := items[idx]
		ins = ins.Values(it.ID, it.ReceiptID, it.Name, money(it.Price), it.Quantity, it.CategoryID, it.Position)
	}
	query, args := ins.Query()
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return translate(err, "insert items")
	}
	return nil
}

func (r *itemRepository) Update(ctx context.Context, it entity.Item) error {
	query, args := r.b.Update(tableItems).
		Set("name", it.Name).
		Set("price", money(it.Price)).
		Set("quantity", it.Quantity).
		Set("category_id", it.CategoryID).
		Set("position", it.Position).
		Where(entsql.And(entsql.EQ("id", it.ID), entsql.EQ("receipt_id", it.ReceiptID))).
		Query()
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, "update item")
	}
	return expectAffected(res, "item", it.ID)
}

func (r *itemRepository) DeleteByIDs(ctx context.Context, receiptID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query, qargs := r.b.Delete(tableItems).
		Where(entsql.And(entsql.EQ("receipt_id", receiptID), entsql.In("id", args...))).
		Query()
	res, err := r.q.ExecContext(ctx, query, qargs...)
	if err != nil {
		return 0, translate(err, "delete items")
	}
	return res.RowsAffected()
}

func (r *itemRepository) DeleteByReceipt(ctx context.Context, receiptID uuid.UUID) (int64, error) {
	query, args := r.b.Delete(tableItems).
		Where(entsql.EQ("receipt_id", receiptID)).
		Query()
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translate(err, "delete items")
	}
	return res.RowsAffected()
}
