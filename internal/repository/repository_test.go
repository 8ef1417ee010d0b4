package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
	"github.com/joseph-ayodele/expense-tracker/internal/repository/repotest"
)

func TestCategories_CaseInsensitiveUniqueness(t *testing.T) {
	ctx := context.Background()
	repos := repotest.New(t).Repos()

	groceries, err := repos.Categories.Create(ctx, "Groceries")
	require.NoError(t, err)

	_, err = repos.Categories.Create(ctx, "groceries")
	require.Error(t, err)
	require.Equal(t, common.KindConflict, common.KindOf(err))

	found, err := repos.Categories.FindByNameFold(ctx, "GROCERIES")
	require.NoError(t, err)
	require.Equal(t, groceries.ID, found.ID)
	require.Equal(t, "Groceries", found.Name)

	_, err = repos.Categories.FindByName(ctx, "groceries")
	require.True(t, errors.Is(err, common.ErrNotFound))
}

func TestCategories_RenameAndDelete(t *testing.T) {
	ctx := context.Background()
	repos := repotest.New(t).Repos()

	cat, err := repos.Categories.Create(ctx, "Food")
	require.NoError(t, err)
	require.NoError(t, repos.Categories.Rename(ctx, cat.ID, "Restaurant"))

	got, err := repos.Categories.Get(ctx, cat.ID)
	require.NoError(t, err)
	require.Equal(t, "Restaurant", got.Name)

	require.NoError(t, repos.Categories.Delete(ctx, cat.ID))
	err = repos.Categories.Delete(ctx, cat.ID)
	require.Equal(t, common.KindNotFound, common.KindOf(err))

	err = repos.Categories.Rename(ctx, uuid.New(), "Nope")
	require.Equal(t, common.KindNotFound, common.KindOf(err))
}

func TestShops_BackfillAddressIsMonotonic(t *testing.T) {
	ctx := context.Background()
	repos := repotest.New(t).Repos()

	shop, err := repos.Shops.Create(ctx, "Shop X", nil)
	require.NoError(t, err)
	require.Nil(t, shop.Address)

	changed, err := repos.Shops.BackfillAddress(ctx, shop.ID, "1 Main St")
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = repos.Shops.BackfillAddress(ctx, shop.ID, "2 Other Rd")
	require.NoError(t, err)
	require.False(t, changed)

	got, err := repos.Shops.FindByName(ctx, "Shop X")
	require.NoError(t, err)
	require.NotNil(t, got.Address)
	require.Equal(t, "1 Main St", *got.Address)

	_, err = repos.Shops.Create(ctx, "Shop X", nil)
	require.Equal(t, common.KindConflict, common.KindOf(err))
}

func seedReceipt(t *testing.T, repos *repository.Repos, cat *entity.Category, date time.Time, prices ...string) *entity.Receipt {
	t.Helper()
	ctx := context.Background()
	rec := &entity.Receipt{ID: uuid.New(), Date: date, Source: "MANUAL"}
	var items []entity.Item
	for i, p := range prices {
		items = append(items, entity.Item{
			ReceiptID:  rec.ID,
			Name:       "item",
			Price:      decimal.RequireFromString(p),
			Quantity:   1,
			CategoryID: cat.ID,
			Position:   i,
		})
	}
	rec.TotalAmount = entity.SumItems(items)
	require.NoError(t, repos.Receipts.Create(ctx, rec))
	require.NoError(t, repos.Items.Insert(ctx, items))
	return rec
}

func TestReceipts_CreateGetListDelete(t *testing.T) {
	ctx := context.Background()
	db := repotest.New(t)
	repos := db.Repos()

	cat, err := repos.Categories.Create(ctx, "Groceries")
	require.NoError(t, err)

	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	r1 := seedReceipt(t, repos, cat, d1, "2.50", "3.00")
	r2 := seedReceipt(t, repos, cat, d2, "10.00")

	got, err := repos.Receipts.Get(ctx, r1.ID)
	require.NoError(t, err)
	require.True(t, got.Date.Equal(d1))
	require.True(t, decimal.RequireFromString("5.50").Equal(got.TotalAmount))
	require.Nil(t, got.ShopID)

	items, err := repos.Items.ListByReceipt(ctx, r1.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Groceries", items[0].CategoryName)

	list, err := repos.Receipts.ListReceipts(ctx, entity.ReceiptFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, r2.ID, list[0].ID)

	from := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	list, err = repos.Receipts.ListReceipts(ctx, entity.ReceiptFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, r2.ID, list[0].ID)

	list, err = repos.Receipts.ListReceipts(ctx, entity.ReceiptFilter{CategoryID: &cat.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)

	cats, err := repos.Categories.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.Equal(t, 3, cats[0].ItemCount)

	// referenced categories cannot be deleted
	err = repos.Categories.Delete(ctx, cat.ID)
	require.Equal(t, common.KindConflict, common.KindOf(err))

	require.NoError(t, db.WithTx(ctx, func(r *repository.Repos) error {
		n, err := r.Items.DeleteByReceipt(ctx, r1.ID)
		require.EqualValues(t, 2, n)
		if err != nil {
			return err
		}
		return r.Receipts.Delete(ctx, r1.ID)
	}))
	_, err = repos.Receipts.Get(ctx, r1.ID)
	require.True(t, errors.Is(err, common.ErrNotFound))
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := repotest.New(t)

	boom := errors.New("boom")
	err := db.WithTx(ctx, func(r *repository.Repos) error {
		if _, err := r.Categories.Create(ctx, "Transient"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = db.Repos().Categories.FindByName(ctx, "Transient")
	require.Equal(t, common.KindNotFound, common.KindOf(err))
}

func TestItems_DeleteByIDsScopedToReceipt(t *testing.T) {
	ctx := context.Background()
	repos := repotest.New(t).Repos()
	cat, err := repos.Categories.Create(ctx, "Household")
	require.NoError(t, err)

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	r1 := seedReceipt(t, repos, cat, day, "1.00")
	r2 := seedReceipt(t, repos, cat, day, "2.00")

	other, err := repos.Items.ListByReceipt(ctx, r2.ID)
	require.NoError(t, err)

	n, err := repos.Items.DeleteByIDs(ctx, r1.ID, []uuid.UUID{other[0].ID})
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestEnsure_ReusesExistingRowsInsideTx(t *testing.T) {
	ctx := context.Background()
	db := repotest.New(t)

	existing, err := db.Repos().Categories.Create(ctx, "Groceries")
	require.NoError(t, err)

	err = db.WithTx(ctx, func(r *repository.Repos) error {
		cat, created, err := r.Categories.Ensure(ctx, "  GROCERIES ")
		require.NoError(t, err)
		require.False(t, created)
		require.Equal(t, existing.ID, cat.ID)

		fresh, created, err := r.Categories.Ensure(ctx, "Pharmacy")
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, "Pharmacy", fresh.Name)

		shop, created, err := r.Shops.Ensure(ctx, "Shop X", nil)
		require.NoError(t, err)
		require.True(t, created)

		again, created, err := r.Shops.Ensure(ctx, "Shop X", nil)
		require.NoError(t, err)
		require.False(t, created)
		require.Equal(t, shop.ID, again.ID)
		return nil
	})
	require.NoError(t, err)

	cats, err := db.Repos().Categories.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
}
