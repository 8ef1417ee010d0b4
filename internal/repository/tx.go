package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repos bundles the repositories sharing one connection or transaction.
type Repos struct {
	Categories CategoryRepository
	Shops      ShopRepository
	Receipts   ReceiptRepository
	Items      ItemRepository
}

func newRepos(q dbtx, d string, logger *slog.Logger) *Repos {
	if logger == nil {
		logger = slog.Default()
	}
	b := entsql.Dialect(d)
	return &Repos{
		Categories: &categoryRepository{q: q, b: b, logger: logger},
		Shops:      &shopRepository{q: q, b: b, logger: logger},
		Receipts:   &receiptRepository{q: q, b: b, logger: logger},
		Items:      &itemRepository{q: q, b: b, logger: logger},
	}
}

// WithTx runs fn inside one transaction. Any error from fn, or a panic, rolls
// the whole transaction back. Driver errors are reported as StorageError.
func (d *DB) WithTx(ctx context.Context, fn func(r *Repos) error) (err error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return common.NewStorageError("begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(newRepos(tx, d.dialect, d.logger)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.logger.Error("transaction rollback failed", "error", rbErr)
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return translate(err, "commit transaction")
	}
	return nil
}
