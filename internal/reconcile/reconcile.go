// Package reconcile maps extracted shop and category names onto stored rows,
// creating them on first use.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
)

// Resolver holds a case-insensitive name -> id map loaded once per run, so
// items later in a receipt see categories created for earlier ones.
// It is bound to one set of repos (normally a transaction) and is not safe
// for concurrent use.
type Resolver struct {
	repos  *repository.Repos
	logger *slog.Logger

	byName  map[string]uuid.UUID
	names   map[uuid.UUID]string
	created []*entity.Category
}

func NewResolver(ctx context.Context, repos *repository.Repos, logger *slog.Logger) (*Resolver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cats, err := repos.Categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	r := &Resolver{
		repos:  repos,
		logger: logger,
		byName: make(map[string]uuid.UUID, len(cats)),
		names:  make(map[uuid.UUID]string, len(cats)),
	}
	for _, c := range cats {
		r.remember(c.ID, c.Name)
	}
	return r, nil
}

func (r *Resolver) remember(id uuid.UUID, name string) {
	r.byName[constants.CategoryKey(name)] = id
	if id != uuid.Nil {
		r.names[id] = name
	}
}

// Category resolves a category name to its id and stored name. Blank names
// resolve to Miscellaneous.
func (r *Resolver) Category(ctx context.Context, name string) (uuid.UUID, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return r.miscellaneous(ctx)
	}
	key := constants.CategoryKey(name)
	if id, ok := r.byName[key]; ok {
		if stored, valid := r.names[id]; valid {
			return id, stored, nil
		}
		r.logger.Warn("reconcile.category.invalid_entry", "name", name, "category_id", id)
		return r.miscellaneous(ctx)
	}
	return r.ensure(ctx, name)
}

// CategoryByID checks that id exists and returns its name.
func (r *Resolver) CategoryByID(ctx context.Context, id uuid.UUID) (string, error) {
	if name, ok := r.names[id]; ok {
		return name, nil
	}
	cat, err := r.repos.Categories.Get(ctx, id)
	if err != nil {
		return "", err
	}
	r.remember(cat.ID, cat.Name)
	return cat.Name, nil
}

func (r *Resolver) miscellaneous(ctx context.Context) (uuid.UUID, string, error) {
	if id, ok := r.byName[constants.CategoryKey(constants.Miscellaneous)]; ok {
		if stored, valid := r.names[id]; valid {
			return id, stored, nil
		}
	}
	return r.ensure(ctx, constants.Miscellaneous)
}

// ensure creates the category, or adopts a row another request committed
// under the same case-insensitive name.
func (r *Resolver) ensure(ctx context.Context, name string) (uuid.UUID, string, error) {
	cat, created, err := r.repos.Categories.Ensure(ctx, name)
	if err != nil {
		return uuid.Nil, "", err
	}
	r.remember(cat.ID, cat.Name)
	if created {
		r.created = append(r.created, cat)
		r.logger.Info("reconcile.category.created", "category_id", cat.ID, "name", cat.Name)
	} else {
		r.logger.Debug("reconcile.category.adopted", "category_id", cat.ID, "name", cat.Name)
	}
	return cat.ID, cat.Name, nil
}

// Created lists categories this resolver inserted.
func (r *Resolver) Created() []*entity.Category {
	return r.created
}

// Shop resolves an extracted shop. The Unknown Shop sentinel (or a blank
// name) yields nil. An existing shop with no address gets the incoming one;
// a stored address is never replaced.
func (r *Resolver) Shop(ctx context.Context, name string, address *string) (*entity.Shop, error) {
	if constants.IsUnknownShop(name) {
		return nil, nil
	}
	name = strings.TrimSpace(name)

	shop, err := r.repos.Shops.FindByName(ctx, name)
	if errors.Is(err, common.ErrNotFound) {
		var created bool
		shop, created, err = r.repos.Shops.Ensure(ctx, name, address)
		if err != nil {
			return nil, err
		}
		if created {
			return shop, nil
		}
	} else if err != nil {
		return nil, err
	}

	if address == nil || strings.TrimSpace(*address) == "" || shop.HasAddress() {
		return shop, nil
	}
	changed, err := r.repos.Shops.BackfillAddress(ctx, shop.ID, *address)
	if err != nil {
		return nil, err
	}
	if !changed {
		// another writer filled the address after our read
		return r.repos.Shops.Get(ctx, shop.ID)
	}
	a := strings.TrimSpace(*address)
	shop.Address = &a
	r.logger.Info("reconcile.shop.address_backfilled", "shop_id", shop.ID)
	return shop, nil
}
