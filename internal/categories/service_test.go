package categories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
	"github.com/joseph-ayodele/expense-tracker/internal/repository/repotest"
)

func newService(t *testing.T) (*Service, *repository.DB) {
	db := repotest.New(t)
	return NewService(db, repotest.DiscardLogger()), db
}

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	cat, err := svc.CreateCategory(ctx, NameRequest{Name: "  Travel "})
	require.NoError(t, err)
	require.Equal(t, "Travel", cat.Name)

	_, err = svc.CreateCategory(ctx, NameRequest{Name: "TRAVEL"})
	require.True(t, errors.Is(err, common.ErrConflict), "got %v", err)

	_, err = svc.CreateCategory(ctx, NameRequest{Name: "   "})
	require.Equal(t, common.KindValidation, common.KindOf(err))

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.CreateCategory(ctx, NameRequest{Name: string(long)})
	require.Equal(t, common.KindValidation, common.KindOf(err))
}

func TestRenameCategory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	a, err := svc.CreateCategory(ctx, NameRequest{Name: "Food"})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, NameRequest{Name: "Fuel"})
	require.NoError(t, err)

	got, err := svc.RenameCategory(ctx, a.ID, NameRequest{Name: "Dining"})
	require.NoError(t, err)
	require.Equal(t, "Dining", got.Name)

	_, err = svc.RenameCategory(ctx, a.ID, NameRequest{Name: "fuel"})
	require.True(t, errors.Is(err, common.ErrConflict), "got %v", err)

	_, err = svc.RenameCategory(ctx, uuid.New(), NameRequest{Name: "Other"})
	require.True(t, errors.Is(err, common.ErrNotFound), "got %v", err)
}

func TestDeleteCategory_RestrictedWhileReferenced(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t)
	cat, err := svc.CreateCategory(ctx, NameRequest{Name: "Snacks"})
	require.NoError(t, err)

	rec := &entity.Receipt{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Source: string(constants.SourceManual)}
	require.NoError(t, db.WithTx(ctx, func(r *repository.Repos) error {
		if err := r.Receipts.Create(ctx, rec); err != nil {
			return err
		}
		return r.Items.Insert(ctx, []entity.Item{{
			ReceiptID:  rec.ID,
			Name:       "Chips",
			Price:      decimal.NewFromInt(2),
			Quantity:   1,
			CategoryID: cat.ID,
		}})
	}))

	err = svc.DeleteCategory(ctx, cat.ID)
	require.True(t, errors.Is(err, common.ErrConflict), "got %v", err)

	_, err = db.Repos().Items.DeleteByReceipt(ctx, rec.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))

	_, err = svc.GetCategory(ctx, cat.ID)
	require.True(t, errors.Is(err, common.ErrNotFound))
	require.True(t, errors.Is(svc.DeleteCategory(ctx, cat.ID), common.ErrNotFound))
}

func TestSeedDefaults_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, err := svc.CreateCategory(ctx, NameRequest{Name: "groceries"})
	require.NoError(t, err)

	n, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	require.Equal(t, len(constants.DefaultCategories())-1, n)

	n, err = svc.SeedDefaults(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, len(constants.DefaultCategories()))
}
