package receipts

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/llm"
	"github.com/joseph-ayodele/expense-tracker/internal/reconcile"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
	"github.com/joseph-ayodele/expense-tracker/internal/storage"
)

// IngestFromImage runs the full pipeline over an image file. OCR and model
// failures happen before anything is written. The raw and processed images
// are stored under a fresh receipt id before the transaction and removed
// again if it fails.
func (s *Service) IngestFromImage(ctx context.Context, path string) (*entity.Receipt, error) {
	start := time.Now()
	log := common.LoggerWithRequest(ctx, s.logger).With("path", path)

	hints, err := s.hints(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.processor.Process(ctx, path, hints)
	if err != nil {
		log.Error("receipt.ingest.extract_failed", "kind", common.KindOf(err), "error", err)
		return nil, err
	}
	defer res.Close()

	id := uuid.New()
	rawKey, processedKey, url, err := s.storeImages(ctx, id, path, res.OCR.ProcessedPath)
	if err != nil {
		return nil, err
	}

	cand := res.Candidate
	rec := &entity.Receipt{
		ID:           id,
		Date:         cand.Date,
		ImageURL:     url,
		RawImagePath: rawKey,
		ProcessedKey: processedKey,
		Source:       string(constants.SourceImage),
	}
	err = s.db.WithTx(ctx, func(r *repository.Repos) error {
		resolver, err := reconcile.NewResolver(ctx, r, s.logger)
		if err != nil {
			return err
		}
		if err := attachShop(ctx, resolver, rec, cand.Shop.Name, cand.Shop.Address); err != nil {
			return err
		}
		if rec.Items, err = candidateItems(ctx, resolver, id, cand.Items); err != nil {
			return err
		}
		rec.TotalAmount = entity.SumItems(rec.Items)
		if err := r.Receipts.Create(ctx, rec); err != nil {
			return err
		}
		return r.Items.Insert(ctx, rec.Items)
	})
	if err != nil {
		s.removeFiles(context.WithoutCancel(ctx), rawKey, processedKey)
		log.Error("receipt.ingest.persist_failed", "receipt_id", id, "error", err)
		return nil, err
	}

	if !cand.TotalAmount.Equal(rec.TotalAmount) {
		log.Warn("receipt.ingest.total_mismatch",
			"receipt_id", id,
			"extracted", cand.TotalAmount.StringFixed(2),
			"computed", rec.TotalAmount.StringFixed(2),
		)
	}
	log.Info("receipt.ingest.ok",
		"receipt_id", id,
		"items", len(rec.Items),
		"total", rec.TotalAmount.StringFixed(2),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	s.publish(ctx, constants.EventReceiptCreated, id, rec)
	return rec, nil
}

// storeImages writes the raw upload and, when present, the processed image.
func (s *Service) storeImages(ctx context.Context, id uuid.UUID, rawPath, processedPath string) (rawKey, processedKey, url string, err error) {
	rawKey = storage.RawKey(id, filepath.Ext(rawPath))
	url, err = storage.PutFile(ctx, s.files, rawKey, rawPath)
	if err != nil {
		return "", "", "", common.NewStorageError("store raw image", err)
	}
	if processedPath == "" {
		return rawKey, "", url, nil
	}
	processedKey = storage.ProcessedKey(id)
	if _, err := storage.PutFile(ctx, s.files, processedKey, processedPath); err != nil {
		s.removeFiles(context.WithoutCancel(ctx), rawKey)
		return "", "", "", common.NewStorageError("store processed image", err)
	}
	return rawKey, processedKey, url, nil
}

// IngestManual stores a caller-entered receipt. The payload is validated
// before anything is written; the total is computed from the items.
func (s *Service) IngestManual(ctx context.Context, in ReceiptInput) (*entity.Receipt, error) {
	if err := common.ValidateStruct(in); err != nil {
		return nil, err
	}
	date, _ := time.Parse("2006-01-02", in.Date)

	rec := &entity.Receipt{
		ID:     uuid.New(),
		Date:   date,
		Source: string(constants.SourceManual),
	}
	err := s.db.WithTx(ctx, func(r *repository.Repos) error {
		resolver, err := reconcile.NewResolver(ctx, r, s.logger)
		if err != nil {
			return err
		}
		if err := attachShop(ctx, resolver, rec, in.ShopName, in.ShopAddress); err != nil {
			return err
		}
		rec.Items = make([]entity.Item, 0, len(in.Items))
		for i, line := range in.Items {
			it, err := inputItem(ctx, resolver, rec.ID, i, i, line)
			if err != nil {
				return err
			}
			rec.Items = append(rec.Items, it)
		}
		rec.TotalAmount = entity.SumItems(rec.Items)
		if err := r.Receipts.Create(ctx, rec); err != nil {
			return err
		}
		return r.Items.Insert(ctx, rec.Items)
	})
	if err != nil {
		s.logger.Error("receipt.manual.failed", "error", err)
		return nil, err
	}

	s.logger.Info("receipt.manual.ok", "receipt_id", rec.ID, "items", len(rec.Items), "total", rec.TotalAmount.StringFixed(2))
	s.publish(ctx, constants.EventReceiptCreated, rec.ID, rec)
	return rec, nil
}

func attachShop(ctx context.Context, resolver *reconcile.Resolver, rec *entity.Receipt, name string, address *string) error {
	shop, err := resolver.Shop(ctx, name, address)
	if err != nil {
		return err
	}
	rec.Shop, rec.ShopID = shop, nil
	if shop != nil {
		rec.ShopID = &shop.ID
	}
	return nil
}

// candidateItems resolves categories line by line, so later lines reuse
// categories created for earlier ones.
func candidateItems(ctx context.Context, resolver *reconcile.Resolver, receiptID uuid.UUID, lines []llm.ItemCandidate) ([]entity.Item, error) {
	items := make([]entity.Item, 0, len(lines))
	for i, c := range lines {
		catID, catName, err := resolver.Category(ctx, c.Category)
		if err != nil {
			return nil, err
		}
		items = append(items, entity.Item{
			ReceiptID:    receiptID,
			Name:         c.Name,
			Price:        c.Price.Round(2),
			Quantity:     max(c.Quantity, 1),
			CategoryID:   catID,
			CategoryName: catName,
			Position:     i,
		})
	}
	return items, nil
}

// inputItem resolves payload line idx; pos is its stored position.
func inputItem(ctx context.Context, resolver *reconcile.Resolver, receiptID uuid.UUID, idx, pos int, in ItemInput) (entity.Item, error) {
	catID, catName, err := resolveInputCategory(ctx, resolver, idx, in)
	if err != nil {
		return entity.Item{}, err
	}
	return entity.Item{
		ReceiptID:    receiptID,
		Name:         strings.TrimSpace(in.Name),
		Price:        in.Price.Round(2),
		Quantity:     in.quantity(),
		CategoryID:   catID,
		CategoryName: catName,
		Position:     pos,
	}, nil
}

func resolveInputCategory(ctx context.Context, resolver *reconcile.Resolver, idx int, in ItemInput) (uuid.UUID, string, error) {
	if in.CategoryID == "" {
		return resolver.Category(ctx, in.Category)
	}
	field := fmt.Sprintf("items[%d].categoryId", idx)
	id, err := uuid.Parse(in.CategoryID)
	if err != nil {
		return uuid.Nil, "", common.NewValidationError(field, "must be a valid UUID")
	}
	name, err := resolver.CategoryByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return uuid.Nil, "", common.NewValidationError(field, "is not a known category")
	}
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, name, nil
}
