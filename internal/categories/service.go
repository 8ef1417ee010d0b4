// Package categories manages the user-visible expense taxonomy.
package categories

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
)

// Service handles category business logic.
type Service struct {
	db     *repository.DB
	logger *slog.Logger
}

// NewService creates a new category service.
func NewService(db *repository.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger}
}

// NameRequest is the payload of create and rename.
type NameRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

func (r NameRequest) normalized() (string, error) {
	r.Name = strings.TrimSpace(r.Name)
	if err := common.ValidateStruct(r); err != nil {
		return "", err
	}
	return r.Name, nil
}

// ListCategories returns every category with its item count, ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	cats, err := s.db.Repos().Categories.ListCategories(ctx)
	if err != nil {
		s.logger.Error("failed to list categories", "error", err)
		return nil, err
	}
	s.logger.Debug("categories listed", "count", len(cats))
	return cats, nil
}

func (s *Service) GetCategory(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	return s.db.Repos().Categories.Get(ctx, id)
}

// CreateCategory fails with ConflictError when a category with the same
// name, ignoring case, already exists.
func (s *Service) CreateCategory(ctx context.Context, req NameRequest) (*entity.Category, error) {
	name, err := req.normalized()
	if err != nil {
		return nil, err
	}
	cat, err := s.db.Repos().Categories.Create(ctx, name)
	if err != nil {
		s.logger.Warn("category.create.failed", "name", name, "kind", common.KindOf(err), "error", err)
		return nil, err
	}
	return cat, nil
}

func (s *Service) RenameCategory(ctx context.Context, id uuid.UUID, req NameRequest) (*entity.Category, error) {
	name, err := req.normalized()
	if err != nil {
		return nil, err
	}
	var out *entity.Category
	err = s.db.WithTx(ctx, func(r *repository.Repos) error {
		if err := r.Categories.Rename(ctx, id, name); err != nil {
			return err
		}
		var err error
		out, err = r.Categories.Get(ctx, id)
		return err
	})
	if err != nil {
		s.logger.Warn("category.rename.failed", "category_id", id, "kind", common.KindOf(err), "error", err)
		return nil, err
	}
	s.logger.Info("category renamed", "category_id", id, "name", name)
	return out, nil
}

// DeleteCategory is restricted: it fails with ConflictError while any item
// still references the category.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.db.Repos().Categories.Delete(ctx, id); err != nil {
		s.logger.Warn("category.delete.failed", "category_id", id, "kind", common.KindOf(err), "error", err)
		return err
	}
	s.logger.Info("category deleted", "category_id", id)
	return nil
}

// SeedDefaults makes sure the default taxonomy exists. Existing rows, in
// any casing, are left alone.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	err := s.db.WithTx(ctx, func(r *repository.Repos) error {
		created = 0
		for _, name := range constants.DefaultCategories() {
			_, ok, err := r.Categories.Ensure(ctx, name)
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("category.seed.failed", "error", err)
		return 0, err
	}
	s.logger.Info("category.seed.ok", "created", created)
	return created, nil
}
