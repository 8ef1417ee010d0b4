package receipts

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
)

// DeleteReceipt removes the items and the receipt in one transaction, then
// best-effort removes the stored images. File removal failures are logged only.
func (s *Service) DeleteReceipt(ctx context.Context, id uuid.UUID) error {
	var rec *entity.Receipt
	err := s.db.WithTx(ctx, func(r *repository.Repos) error {
		var err error
		if rec, err = r.Receipts.Get(ctx, id); err != nil {
			return err
		}
		n, err := r.Items.DeleteByReceipt(ctx, id)
		if err != nil {
			return err
		}
		s.logger.Debug("receipt.delete.items", "receipt_id", id, "deleted", n)
		return r.Receipts.Delete(ctx, id)
	})
	if err != nil {
		s.logger.Error("receipt.delete.failed", "receipt_id", id, "error", err)
		return err
	}

	s.removeFiles(context.WithoutCancel(ctx), rec.RawImagePath, rec.ProcessedKey)
	s.logger.Info("receipt.delete.ok", "receipt_id", id)
	s.publish(ctx, constants.EventReceiptDeleted, id, nil)
	return nil
}
