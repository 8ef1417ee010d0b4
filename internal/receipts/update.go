package receipts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/reconcile"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
)

// line is one desired item after classification against the stored set.
type line struct {
	in       ItemInput
	id       uuid.UUID
	existing bool
	pos      int
}

type itemDiff struct {
	lines  []line
	delete []uuid.UUID
}

// UpdateStats counts the item writes an update performed.
type UpdateStats struct {
	Created, Updated, Deleted int
}

// planDiff classifies desired lines as create or update and collects stored
// items missing from the desired list for deletion. A stored-looking id that
// is not on this receipt, or appears twice, is a ValidationError.
func planDiff(stored []entity.Item, desired []ItemInput) (itemDiff, error) {
	storedPos := make(map[uuid.UUID]int, len(stored))
	for _, it := range stored {
		storedPos[it.ID] = it.Position
	}

	var (
		d    itemDiff
		verr common.ValidationError
		seen = make(map[uuid.UUID]bool, len(desired))
	)
	for i, in := range desired {
		id, ok := in.storedID()
		if !ok {
			d.lines = append(d.lines, line{in: in})
			continue
		}
		field := fmt.Sprintf("items[%d].id", i)
		switch _, onReceipt := storedPos[id]; {
		case !onReceipt:
			verr.Fields = append(verr.Fields, common.FieldError{Field: field, Message: "is not an item of this receipt"})
		case seen[id]:
			verr.Fields = append(verr.Fields, common.FieldError{Field: field, Message: "is listed more than once"})
		default:
			seen[id] = true
			d.lines = append(d.lines, line{in: in, id: id, existing: true})
		}
	}
	if len(verr.Fields) > 0 {
		return itemDiff{}, &verr
	}

	for _, it := range stored {
		if !seen[it.ID] {
			d.delete = append(d.delete, it.ID)
		}
	}
	assignPositions(d.lines, storedPos)
	return d, nil
}

// assignPositions keeps stored positions while kept lines are still in
// order, so untouched lines are not rewritten. New lines take the next free
// slot; if there is none, or lines were reordered, everything is renumbered.
func assignPositions(lines []line, storedPos map[uuid.UUID]int) {
	renumber := func() {
		for i := range lines {
			lines[i].pos = i
		}
	}
	prev := -1
	for i := range lines {
		if lines[i].existing {
			p := storedPos[lines[i].id]
			if p <= prev {
				renumber()
				return
			}
			lines[i].pos, prev = p, p
			continue
		}
		p := prev + 1
		for _, next := range lines[i+1:] {
			if next.existing {
				if p >= storedPos[next.id] {
					renumber()
					return
				}
				break
			}
		}
		lines[i].pos, prev = p, p
	}
}

// UpdateReceipt replaces the receipt's header and item set with the desired
// state in one transaction. The total is recomputed from the final items.
func (s *Service) UpdateReceipt(ctx context.Context, id uuid.UUID, in ReceiptInput) (*entity.Receipt, error) {
	rec, _, err := s.update(ctx, id, in)
	return rec, err
}

func (s *Service) update(ctx context.Context, id uuid.UUID, in ReceiptInput) (*entity.Receipt, UpdateStats, error) {
	var stats UpdateStats
	if err := common.ValidateStruct(in); err != nil {
		return nil, stats, err
	}
	date, _ := time.Parse("2006-01-02", in.Date)

	var out *entity.Receipt
	err := s.db.WithTx(ctx, func(r *repository.Repos) error {
		stats = UpdateStats{}
		rec, err := r.Receipts.Get(ctx, id)
		if err != nil {
			return err
		}
		stored, err := r.Items.ListByReceipt(ctx, id)
		if err != nil {
			return err
		}
		diff, err := planDiff(stored, in.Items)
		if err != nil {
			return err
		}

		resolver, err := reconcile.NewResolver(ctx, r, s.logger)
		if err != nil {
			return err
		}
		if err := attachShop(ctx, resolver, rec, in.ShopName, in.ShopAddress); err != nil {
			return err
		}

		byID := make(map[uuid.UUID]entity.Item, len(stored))
		for _, it := range stored {
			byID[it.ID] = it
		}
		final := make([]entity.Item, 0, len(diff.lines))
		var creates []entity.Item
		for i, l := range diff.lines {
			it, err := inputItem(ctx, resolver, id, i, l.pos, l.in)
			if err != nil {
				return err
			}
			if !l.existing {
				creates = append(creates, it)
				final = append(final, it)
				continue
			}
			it.ID = l.id
			if !sameItem(byID[l.id], it) {
				if err := r.Items.Update(ctx, it); err != nil {
					return err
				}
				stats.Updated++
			}
			final = append(final, it)
		}

		n, err := r.Items.DeleteByIDs(ctx, id, diff.delete)
		if err != nil {
			return err
		}
		stats.Deleted = int(n)
		if err := r.Items.Insert(ctx, creates); err != nil {
			return err
		}
		stats.Created = len(creates)

		rec.Date = date
		rec.TotalAmount = entity.SumItems(final)
		if err := r.Receipts.UpdateHeader(ctx, rec); err != nil {
			return err
		}
		out, err = loadReceipt(ctx, r, id)
		return err
	})
	if err != nil {
		s.logger.Error("receipt.update.failed", "receipt_id", id, "error", err)
		return nil, UpdateStats{}, err
	}

	s.logger.Info("receipt.update.ok",
		"receipt_id", id,
		"created", stats.Created,
		"updated", stats.Updated,
		"deleted", stats.Deleted,
		"total", out.TotalAmount.StringFixed(2),
	)
	s.publish(ctx, constants.EventReceiptUpdated, id, out)
	return out, stats, nil
}

func sameItem(a, b entity.Item) bool {
	return a.Name == b.Name &&
		a.Price.Equal(b.Price) &&
		a.Quantity == b.Quantity &&
		a.CategoryID == b.CategoryID &&
		a.Position == b.Position
}
