package server

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/entity"
	"github.com/joseph-ayodele/expense-tracker/internal/receipts"
)

type idRequest struct {
	ID string `json:"id"`
}

type ingestImageRequest struct {
	Path string `json:"path"`
}

type updateReceiptRequest struct {
	ID string `json:"id"`
	receipts.ReceiptInput
}

type listReceiptsRequest struct {
	From       string `json:"from"`
	To         string `json:"to"`
	ShopID     string `json:"shopId"`
	CategoryID string `json:"categoryId"`
}

func (r listReceiptsRequest) filter() (entity.ReceiptFilter, error) {
	var (
		f   entity.ReceiptFilter
		err error
	)
	if f.From, err = parseYMD("from", r.From); err != nil {
		return f, err
	}
	if f.To, err = parseYMD("to", r.To); err != nil {
		return f, err
	}
	if f.ShopID, err = parseOptionalID("shopId", r.ShopID); err != nil {
		return f, err
	}
	if f.CategoryID, err = parseOptionalID("categoryId", r.CategoryID); err != nil {
		return f, err
	}
	return f, nil
}

func receiptResponse(rec *entity.Receipt, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, err
	}
	return encode(toReceiptView(rec))
}

// IngestImage runs the full pipeline over a file on the server's file system.
func (s *ExpenseServer) IngestImage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in ingestImageRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	if in.Path == "" {
		return nil, common.NewValidationError("path", "is required")
	}
	return receiptResponse(s.receipts.IngestFromImage(ctx, in.Path))
}

func (s *ExpenseServer) IngestManual(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in receipts.ReceiptInput
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	return receiptResponse(s.receipts.IngestManual(ctx, in))
}

func (s *ExpenseServer) UpdateReceipt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in updateReceiptRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	id, err := parseID("id", in.ID)
	if err != nil {
		return nil, err
	}
	return receiptResponse(s.receipts.UpdateReceipt(ctx, id, in.ReceiptInput))
}

func (s *ExpenseServer) RecalculateReceipt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	id, err := parseID("id", in.ID)
	if err != nil {
		return nil, err
	}
	return receiptResponse(s.receipts.RecalculateReceipt(ctx, id))
}

func (s *ExpenseServer) DeleteReceipt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	id, err := parseID("id", in.ID)
	if err != nil {
		return nil, err
	}
	if err := s.receipts.DeleteReceipt(ctx, id); err != nil {
		return nil, err
	}
	return encode(map[string]any{"id": id.String(), "deleted": true})
}

func (s *ExpenseServer) GetReceipt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	id, err := parseID("id", in.ID)
	if err != nil {
		return nil, err
	}
	return receiptResponse(s.receipts.GetReceipt(ctx, id))
}

func (s *ExpenseServer) ListReceipts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in listReceiptsRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	filter, err := in.filter()
	if err != nil {
		return nil, err
	}
	recs, err := s.receipts.ListReceipts(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]receiptView, 0, len(recs))
	for _, r := range recs {
		out = append(out, toReceiptView(r))
	}
	return encode(map[string]any{"receipts": out})
}

func (s *ExpenseServer) ListShops(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	shops, err := s.receipts.ListShops(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*shopView, 0, len(shops))
	for _, sh := range shops {
		out = append(out, toShopView(sh))
	}
	return encode(map[string]any{"shops": out})
}
