package server

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// ExportReceipts returns the XLSX workbook base64-encoded under "xlsx".
// Only from -> from..today; only to -> beginning..to; none -> everything.
func (s *ExpenseServer) ExportReceipts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in listReceiptsRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	filter, err := in.filter()
	if err != nil {
		return nil, err
	}

	xlsx, err := s.export.ExportXLSX(ctx, filter)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "err", err)
		return nil, err
	}
	return encode(map[string]any{
		"filename": fmt.Sprintf("receipts-%s.xlsx", time.Now().UTC().Format("20060102")),
		"xlsx":     xlsx,
	})
}
