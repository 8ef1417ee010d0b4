// Package receipts is the receipt ingestion pipeline: it runs OCR and
// structured extraction, reconciles shops and categories, and persists
// receipts and their items atomically.
package receipts

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/expense-tracker/constants"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/events"
	processor "github.com/joseph-ayodele/expense-tracker/internal/pipeline"
	"github.com/joseph-ayodele/expense-tracker/internal/repository"
	"github.com/joseph-ayodele/expense-tracker/internal/storage"
)

// ImageProcessor runs OCR and structured extraction over one image.
type ImageProcessor interface {
	Process(ctx context.Context, imagePath string, hints processor.Hints) (*processor.Result, error)
}

// Service handles receipt business logic.
type Service struct {
	db        *repository.DB
	processor ImageProcessor
	files     storage.FileStore
	events    events.Publisher
	logger    *slog.Logger
	tmpDir    string
	now       func() time.Time
}

// NewService creates a new receipt service. A nil publisher disables events.
func NewService(db *repository.DB, proc ImageProcessor, files storage.FileStore, pub events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{
		db:        db,
		processor: proc,
		files:     files,
		events:    pub,
		logger:    logger,
		tmpDir:    os.TempDir(),
		now:       time.Now,
	}
}

// WithTempDir sets where stored images are downloaded for recalculation.
func (s *Service) WithTempDir(dir string) *Service {
	if dir != "" {
		s.tmpDir = dir
	}
	return s
}

// GetReceipt returns the receipt with its shop and items.
func (s *Service) GetReceipt(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	return loadReceipt(ctx, s.db.Repos(), id)
}

func loadReceipt(ctx context.Context, r *repository.Repos, id uuid.UUID) (*entity.Receipt, error) {
	rec, err := r.Receipts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Items, err = r.Items.ListByReceipt(ctx, id); err != nil {
		return nil, err
	}
	if rec.ShopID != nil {
		if rec.Shop, err = r.Shops.Get(ctx, *rec.ShopID); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// ListReceipts returns receipts newest first, with shops and items.
func (s *Service) ListReceipts(ctx context.Context, filter entity.ReceiptFilter) ([]*entity.Receipt, error) {
	repos := s.db.Repos()
	recs, err := repos.Receipts.ListReceipts(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list receipts", "error", err)
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(recs))
	var shopIDs []uuid.UUID
	for _, rec := range recs {
		ids = append(ids, rec.ID)
		if rec.ShopID != nil {
			shopIDs = append(shopIDs, *rec.ShopID)
		}
	}
	items, err := repos.Items.ListByReceipts(ctx, ids)
	if err != nil {
		return nil, err
	}
	shops, err := repos.Shops.ByIDs(ctx, shopIDs)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		rec.Items = items[rec.ID]
		if rec.ShopID != nil {
			rec.Shop = shops[*rec.ShopID]
		}
	}

	s.logger.Debug("receipts listed", "count", len(recs))
	return recs, nil
}

func (s *Service) ListShops(ctx context.Context) ([]*entity.Shop, error) {
	return s.db.Repos().Shops.ListShops(ctx)
}

// hints lists the current taxonomy for the model prompt.
func (s *Service) hints(ctx context.Context) (processor.Hints, error) {
	repos := s.db.Repos()
	cats, err := repos.Categories.ListCategories(ctx)
	if err != nil {
		return processor.Hints{}, err
	}
	shops, err := repos.Shops.ListShops(ctx)
	if err != nil {
		return processor.Hints{}, err
	}
	var h processor.Hints
	for _, c := range cats {
		h.Categories = append(h.Categories, c.Name)
	}
	for _, sh := range shops {
		h.Shops = append(h.Shops, sh.Name)
	}
	return h, nil
}

// publish is best-effort; the transaction has already committed.
func (s *Service) publish(ctx context.Context, typ constants.EventType, id uuid.UUID, rec *entity.Receipt) {
	ev := events.ReceiptEvent{Type: typ, ReceiptID: id, At: s.now().UTC()}
	if rec != nil {
		ev.Total = rec.TotalAmount.StringFixed(2)
		ev.ItemCount = len(rec.Items)
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("receipt.event.publish_failed", "type", typ, "receipt_id", id, "error", err)
	}
}

// removeFiles deletes stored objects, logging failures.
func (s *Service) removeFiles(ctx context.Context, keys ...string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := s.files.Remove(ctx, k); err != nil {
			s.logger.Warn("receipt.file.remove_failed", "key", k, "error", err)
		}
	}
}
