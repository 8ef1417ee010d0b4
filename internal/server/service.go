// Package server exposes the expense pipeline over gRPC.
package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/expense-tracker/internal/categories"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/export"
	"github.com/joseph-ayodele/expense-tracker/internal/receipts"
)

// ExpenseServer implements ExpenseServiceServer on top of the services.
type ExpenseServer struct {
	receipts   *receipts.Service
	categories *categories.Service
	export     *export.Service
	logger     *slog.Logger
}

var _ ExpenseServiceServer = (*ExpenseServer)(nil)

func NewExpenseServer(rs *receipts.Service, cs *categories.Service, es *export.Service, logger *slog.Logger) *ExpenseServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpenseServer{receipts: rs, categories: cs, export: es, logger: logger}
}

const requestIDHeader = "x-request-id"

// UnaryInterceptor tags each call with a request id, logs its outcome and
// maps application errors onto gRPC status codes.
func UnaryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(requestIDHeader); len(ids) > 0 && ids[0] != "" {
				ctx = common.WithRequestID(ctx, ids[0])
			}
		}
		ctx, reqID := common.EnsureRequestID(ctx)
		start := time.Now()

		resp, err := handler(ctx, req)
		log := logger.With("req_id", reqID, "method", info.FullMethod, "elapsed_ms", time.Since(start).Milliseconds())
		if err != nil {
			st := common.ToStatus(err)
			log.Warn("rpc.failed", "code", status.Code(st).String(), "kind", common.KindOf(err), "error", err)
			return nil, st
		}
		log.Info("rpc.ok")
		return resp, nil
	}
}
