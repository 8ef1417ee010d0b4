package receipts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/reconcile"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
	"github.com/joseph-ayodele/expense-tracker/internal/storage"
)

// RecalculateReceipt re-runs OCR and extraction on the stored raw image and
// replaces every item with the fresh result. Manual edits are discarded.
func (s *Service) RecalculateReceipt(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	start := time.Now()
	rec, err := s.db.Repos().Receipts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.RawImagePath == "" {
		return nil, common.NewValidationError("id", "receipt has no stored image to recalculate from")
	}

	local, cleanup, err := storage.Download(ctx, s.files, rec.RawImagePath, s.tmpDir)
	if err != nil {
		s.logger.Error("receipt.recalculate.download_failed", "receipt_id", id, "key", rec.RawImagePath, "error", err)
		if common.KindOf(err) == common.KindNotFound {
			return nil, common.NewExtractionError("stored image is missing", err)
		}
		return nil, common.NewStorageError("read stored image", err)
	}
	defer cleanup()

	hints, err := s.hints(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.processor.Process(ctx, local, hints)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	if res.OCR.ProcessedPath != "" {
		key := storage.ProcessedKey(id)
		if _, err := storage.PutFile(ctx, s.files, key, res.OCR.ProcessedPath); err != nil {
			s.logger.Warn("receipt.recalculate.processed_store_failed", "receipt_id", id, "error", err)
		} else {
			rec.ProcessedKey = key
		}
	}

	cand := res.Candidate
	var out *entity.Receipt
	err = s.db.WithTx(ctx, func(r *repository.Repos) error {
		current, err := r.Receipts.Get(ctx, id)
		if err != nil {
			return err
		}
		current.ProcessedKey = rec.ProcessedKey

		resolver, err := reconcile.NewResolver(ctx, r, s.logger)
		if err != nil {
			return err
		}
		if err := attachShop(ctx, resolver, current, cand.Shop.Name, cand.Shop.Address); err != nil {
			return err
		}
		items, err := candidateItems(ctx, resolver, id, cand.Items)
		if err != nil {
			return err
		}
		if _, err := r.Items.DeleteByReceipt(ctx, id); err != nil {
			return err
		}
		if err := r.Items.Insert(ctx, items); err != nil {
			return err
		}
		current.Date = cand.Date
		current.TotalAmount = entity.SumItems(items)
		if err := r.Receipts.UpdateHeader(ctx, current); err != nil {
			return err
		}
		current.Items = items
		out = current
		return nil
	})
	if err != nil {
		s.logger.Error("receipt.recalculate.failed", "receipt_id", id, "error", err)
		return nil, err
	}

	s.logger.Info("receipt.recalculate.ok",
		"receipt_id", id,
		"items", len(out.Items),
		"total", out.TotalAmount.StringFixed(2),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	s.publish(ctx, constants.EventReceiptRecalculated, id, out)
	return out, nil
}
