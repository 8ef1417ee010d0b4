package repository

import (
	"context"
	"log/slog"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
)

const (
	tableCategories = "categories"
	tableItems      = "items"
)

type CategoryRepository interface {
	// ListCategories returns every category ordered by name, with item counts.
	ListCategories(ctx context.Context) ([]*entity.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	// FindByName matches exactly; FindByNameFold ignores case.
	FindByName(ctx context.Context, name string) (*entity.Category, error)
	FindByNameFold(ctx context.Context, name string) (*entity.Category, error)
	Create(ctx context.Context, name string) (*entity.Category, error)
	// Ensure inserts name unless a case-insensitive match exists and returns
	// whichever row is stored. It never fails with a conflict, so it is safe
	// inside a transaction on Postgres.
	Ensure(ctx context.Context, name string) (cat *entity.Category, created bool, err error)
	Rename(ctx context.Context, id uuid.UUID, name string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryRepository struct {
	q      dbtx
	b      *entsql.DialectBuilder
	logger *slog.Logger
}

func (r *categoryRepository) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	c := r.b.Table(tableCategories)
	i := r.b.Table(tableItems)
	query, args := r.b.Select(c.C("id"), c.C("name"), c.C("created_at"), "COUNT("+i.C("id")+")").
		From(c).
		LeftJoin(i).On(c.C("id"), i.C("category_id")).
		GroupBy(c.C("id"), c.C("name"), c.C("created_at")).
		OrderBy(c.C("name")).
		Query()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list categories")
	}
	defer rows.Close()

	var out []*entity.Category
	for rows.Next() {
		var (
			cat     entity.Category
			created timeValue
		)
		if err := rows.Scan(&cat.ID, &cat.Name, &created, &cat.ItemCount); err != nil {
			return nil, translate(err, "scan category")
		}
		cat.CreatedAt = created.t
		out = append(out, &cat)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "list categories")
	}
	return out, nil
}

func (r *categoryRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	cat, err := r.findOne(ctx, entsql.EQ("id", id))
	if err != nil {
		return nil, notFound(err, "category", id)
	}
	return cat, nil
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*entity.Category, error) {
	cat, err := r.findOne(ctx, entsql.EQ("name", name))
	if err != nil {
		return nil, notFound(err, "category", name)
	}
	return cat, nil
}

func (r *categoryRepository) FindByNameFold(ctx context.Context, name string) (*entity.Category, error) {
	cat, err := r.findOne(ctx, lowerEQ("name", name))
	if err != nil {
		return nil, notFound(err, "category", name)
	}
	return cat, nil
}

func (r *categoryRepository) findOne(ctx context.Context, p *entsql.Predicate) (*entity.Category, error) {
	query, args := r.b.Select("id", "name", "created_at").
		From(r.b.Table(tableCategories)).
		Where(p).
		Limit(1).
		Query()

	var (
		cat     entity.Category
		created timeValue
	)
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&cat.ID, &cat.Name, &created); err != nil {
		return nil, err
	}
	cat.CreatedAt = created.t
	return &cat, nil
}

func (r *categoryRepository) Create(ctx context.Context, name string) (*entity.Category, error) {
	cat := &entity.Category{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}
	query, args := r.b.Insert(tableCategories).
		Columns("id", "name", "created_at").
		Values(cat.ID, cat.Name, cat.CreatedAt).
		Query()
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.logger.Debug("create category failed", "name", cat.Name, "error", err)
		return nil, translate(err, "create category "+cat.Name)
	}
	r.logger.Info("category created", "category_id", cat.ID, "name", cat.Name)
	return cat, nil
}

func (r *categoryRepository) Ensure(ctx context.Context, name string) (*entity.Category, bool, error) {
	cat := &entity.Category{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}
	query, args := r.b.Insert(tableCategories).
		Columns("id", "name", "created_at").
		Values(cat.ID, cat.Name, cat.CreatedAt).
		OnConflict(entsql.DoNothing()).
		Query()
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, false, translate(err, "ensure category "+cat.Name)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		r.logger.Info("category created", "category_id", cat.ID, "name", cat.Name)
		return cat, true, nil
	}
	existing, err := r.FindByNameFold(ctx, cat.Name)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *categoryRepository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	query, args := r.b.Update(tableCategories).
		Set("name", strings.TrimSpace(name)).
		Where(entsql.EQ("id", id)).
		Query()
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, "rename category")
	}
	return expectAffected(res, "category", id)
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args := r.b.Delete(tableCategories).
		Where(entsql.EQ("id", id)).
		Query()
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, "delete category")
	}
	return expectAffected(res, "category", id)
}

// lowerEQ builds LOWER(col) = lower(v), matching the lower(name) unique index.
func lowerEQ(col, v string) *entsql.Predicate {
	return entsql.P(func(b *entsql.Builder) {
		b.WriteString("LOWER(").Ident(col).WriteString(") = ").Arg(strings.ToLower(strings.TrimSpace(v)))
	})
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func expectAffected(res rowsAffected, resource string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return common.NewStorageError("rows affected", err)
	}
	if n == 0 {
		return common.NewNotFoundError(resource, id)
	}
	return nil
}
