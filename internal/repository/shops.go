package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/expense-tracker/internal/entity"
)

const tableShops = "shops"

type ShopRepository interface {
	ListShops(ctx context.Context) ([]*entity.Shop, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Shop, error)
	ByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Shop, error)
	FindByName(ctx context.Context, name string) (*entity.Shop, error)
	Create(ctx context.Context, name string, address *string) (*entity.Shop, error)
	// Ensure is Create that returns the stored row when the name is taken.
	Ensure(ctx context.Context, name string, address *string) (shop *entity.Shop, created bool, err error)
	// BackfillAddress sets address only where the stored one is NULL or empty.
	// It reports whether a row changed.
	BackfillAddress(ctx context.Context, id uuid.UUID, address string) (bool, error)
}

type shopRepository struct {
	q      dbtx
	b      *entsql.DialectBuilder
	logger *slog.Logger
}

var shopColumns = []string{"id", "name", "address", "created_at", "updated_at"}

func scanShop(sc interface{ Scan(...any) error }) (*entity.Shop, error) {
	var (
		s                entity.Shop
		addr             sql.NullString
		created, updated timeValue
	)
	if err := sc.Scan(&s.ID, &s.Name, &addr, &created, &updated); err != nil {
		return nil, err
	}
	if addr.Valid {
		a := addr.String
		s.Address = &a
	}
	s.CreatedAt, s.UpdatedAt = created.t, updated.t
	return &s, nil
}

func (r *shopRepository) ListShops(ctx context.Context) ([]*entity.Shop, error) {
	query, args := r.b.Select(shopColumns...).
		From(r.b.Table(tableShops)).
		OrderBy("name").
		Query()
	return r.list(ctx, query, args)
}

func (r *shopRepository) list(ctx context.Context, query string, args []any) ([]*entity.Shop, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list shops")
	}
	defer rows.Close()

	var out []*entity.Shop
	for rows.Next() {
		s, err := scanShop(rows)
		if err != nil {
			return nil, translate(err, "scan shop")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "list shops")
	}
	return out, nil
}

func (r *shopRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Shop, error) {
	query, args := r.b.Select(shopColumns...).
		From(r.b.Table(tableShops)).
		Where(entsql.EQ("id", id)).
		Query()
	s, err := scanShop(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err, "shop", id)
	}
	return s, nil
}

func (r *shopRepository) ByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Shop, error) {
	out := make(map[uuid.UUID]*entity.Shop, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query, qargs := r.b.Select(shopColumns...).
		From(r.b.Table(tableShops)).
		Where(entsql.In("id", args...)).
		Query()
	shops, err := r.list(ctx, query, qargs)
	if err != nil {
		return nil, err
	}
	for _, s := range shops {
		out[s.ID] = s
	}
	return out, nil
}

func (r *shopRepository) FindByName(ctx context.Context, name string) (*entity.Shop, error) {
	query, args := r.b.Select(shopColumns...).
		From(r.b.Table(tableShops)).
		Where(entsql.EQ("name", name)).
		Query()
	s, err := scanShop(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err, "shop", name)
	}
	return s, nil
}

func (r *shopRepository) insert(name string, address *string) (*entity.Shop, *entsql.InsertBuilder) {
	now := time.Now().UTC()
	s := &entity.Shop{ID: uuid.New(), Name: strings.TrimSpace(name), CreatedAt: now, UpdatedAt: now}
	var addr any
	if address != nil && strings.TrimSpace(*address) != "" {
		a := strings.TrimSpace(*address)
		s.Address = &a
		addr = a
	}
	ins := r.b.Insert(tableShops).
		Columns(shopColumns...).
		Values(s.ID, s.Name, addr, s.CreatedAt, s.UpdatedAt)
	return s, ins
}

func (r *shopRepository) Create(ctx context.Context, name string, address *string) (*entity.Shop, error) {
	s, ins := r.insert(name, address)
	query, args := ins.Query()
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return nil, translate(err, "create shop "+s.Name)
	}
	r.logger.Info("shop created", "shop_id", s.ID, "name", s.Name, "has_address", s.Address != nil)
	return s, nil
}

func (r *shopRepository) Ensure(ctx context.Context, name string, address *string) (*entity.Shop, bool, error) {
	s, ins := r.insert(name, address)
	query, args := ins.OnConflict(entsql.DoNothing()).Query()
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, false, translate(err, "ensure shop "+s.Name)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		r.logger.Info("shop created", "shop_id", s.ID, "name", s.Name, "has_address", s.Address != nil)
		return s, true, nil
	}
	existing, err := r.FindByName(ctx, s.Name)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *shopRepository) BackfillAddress(ctx context.Context, id uuid.UUID, address string) (bool, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return false, nil
	}
	query, args := r.b.Update(tableShops).
		Set("address", address).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.Or(entsql.IsNull("address"), entsql.EQ("address", "")),
		)).
		Query()
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, translate(err, "backfill shop address")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translate(err, "backfill shop address")
	}
	if n > 0 {
		r.logger.Info("shop address backfilled", "shop_id", id)
	}
	return n > 0, nil
}
