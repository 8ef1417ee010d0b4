package reconcile

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
	"github.com/joseph-ayodele/expense-tracker/internal/repository/repotest"
)

func strPtr(s string) *string { return &s }

func TestCategory_MatchesCaseInsensitivelyAndCreatesOncePerName(t *testing.T) {
	ctx := context.Background()
	repos := repotest.New(t).Repos()
	groceries, err := repos.Categories.Create(ctx, "Groceries")
	require.NoError(t, err)

	r, err := NewResolver(ctx, repos, repotest.DiscardLogger())
	require.NoError(t, err)

	id, name, err := r.Category(ctx, "GROCERIES")
	require.NoError(t, err)
	require.Equal(t, groceries.ID, id)
	require.Equal(t, "Groceries", name)

	first, name, err := r.Category(ctx, "Pet Food")
	require.NoError(t, err)
	require.Equal(t, "Pet Food", name)
	second, _, err := r.Category(ctx, "pet food")
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.Len(t, r.Created(), 1)
	cats, err := repos.Categories.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
}

func TestCategory_BlankAndInvalidEntriesFallBackToMiscellaneous(t *testing.T) {
	ctx := context.Background()
	repos := repotest.New(t).Repos()
	r, err := NewResolver(ctx, repos, repotest.DiscardLogger())
	require.NoError(t, err)

	misc, name, err := r.Category(ctx, "  ")
	require.NoError(t, err)
	require.Equal(t, constants.Miscellaneous, name)

	r.byName["ghost"] = uuid.New()
	id, name, err := r.Category(ctx, "Ghost")
	require.NoError(t, err)
	require.Equal(t, misc, id)
	require.Equal(t, constants.Miscellaneous, name)
}

func TestCategory_AdoptsRowCreatedElsewhere(t *testing.T) {
	ctx := context.Background()
	repos := repotest.New(t).Repos()
	r, err := NewResolver(ctx, repos, repotest.DiscardLogger())
	require.NoError(t, err)

	// committed by a concurrent request after the map was loaded
	other, err := repos.Categories.Create(ctx, "Electronics")
	require.NoError(t, err)

	id, _, err := r.Category(ctx, "electronics")
	require.NoError(t, err)
	require.Equal(t, other.ID, id)
	require.Empty(t, r.Created())
}

func TestCategoryByID(t *testing.T) {
	ctx := context.Background()
	repos := repotest.New(t).Repos()
	cat, err := repos.Categories.Create(ctx, "Household")
	require.NoError(t, err)
	r, err := NewResolver(ctx, repos, repotest.DiscardLogger())
	require.NoError(t, err)

	name, err := r.CategoryByID(ctx, cat.ID)
	require.NoError(t, err)
	require.Equal(t, "Household", name)

	_, err = r.CategoryByID(ctx, uuid.New())
	require.Equal(t, common.KindNotFound, common.KindOf(err))
}

func TestShop_Rules(t *testing.T) {
	ctx := context.Background()
	repos := repotest.New(t).Repos()
	r, err := NewResolver(ctx, repos, repotest.DiscardLogger())
	require.NoError(t, err)

	none, err := r.Shop(ctx, constants.UnknownShop, strPtr("1 Main St"))
	require.NoError(t, err)
	require.Nil(t, none)

	created, err := r.Shop(ctx, "Shop X", nil)
	require.NoError(t, err)
	require.False(t, created.HasAddress())

	filled, err := r.Shop(ctx, "Shop X", strPtr("1 Main St"))
	require.NoError(t, err)
	require.Equal(t, created.ID, filled.ID)
	require.Equal(t, "1 Main St", *filled.Address)

	kept, err := r.Shop(ctx, "Shop X", strPtr("99 Other Rd"))
	require.NoError(t, err)
	require.Equal(t, "1 Main St", *kept.Address)

	stored, err := repos.Shops.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "1 Main St", *stored.Address)

	shops, err := repos.Shops.ListShops(ctx)
	require.NoError(t, err)
	require.Len(t, shops, 1)
}

// staleShops serves lookups from a snapshot taken before the address was set.
type staleShops struct {
	repository.ShopRepository
	snapshot entity.Shop
}

func (s staleShops) FindByName(context.Context, string) (*entity.Shop, error) {
	cp := s.snapshot
	return &cp, nil
}

func TestShop_AddressFilledConcurrently(t *testing.T) {
	ctx := context.Background()
	repos := repotest.New(t).Repos()
	shop, err := repos.Shops.Create(ctx, "Shop X", nil)
	require.NoError(t, err)
	_, err = repos.Shops.BackfillAddress(ctx, shop.ID, "2 High St")
	require.NoError(t, err)

	stale := *repos
	stale.Shops = staleShops{ShopRepository: repos.Shops, snapshot: *shop}
	r, err := NewResolver(ctx, &stale, repotest.DiscardLogger())
	require.NoError(t, err)

	got, err := r.Shop(ctx, "Shop X", strPtr("9 Late Ave"))
	require.NoError(t, err)
	require.Equal(t, shop.ID, got.ID)
	require.NotNil(t, got.Address)
	require.Equal(t, "2 High St", *got.Address)
}
