package server

import (
	"context"
	"encoding/base64"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/joseph-ayodele/expense-tracker/internal/categories"
	"github.com/joseph-ayodele/expense-tracker/internal/common"
	"github.com/joseph-ayodele/expense-tracker/internal/export"
	processor "github.com/joseph-ayodele/expense-tracker/internal/pipeline"
	"github.com/joseph-ayodele/expense-tracker/internal/receipts"
	"github.com/joseph-ayodele/expense-tracker/internal/repository/repotest"
	"github.com/joseph-ayodele/expense-tracker/internal/storage"
)

type failingProcessor struct{ err error }

func (f failingProcessor) Process(context.Context, string, processor.Hints) (*processor.Result, error) {
	return nil, f.err
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	logger := repotest.DiscardLogger()
	db := repotest.New(t)
	files, err := storage.NewLocalStore(t.TempDir(), "", logger)
	require.NoError(t, err)

	rs := receipts.NewService(db, failingProcessor{err: common.NewParseError("model output is not JSON", nil)}, files, nil, logger)
	cs := categories.NewService(db, logger)
	_, err = cs.SeedDefaults(context.Background())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryInterceptor(logger)))
	RegisterExpenseServiceServer(srv, NewExpenseServer(rs, cs, export.NewService(rs, logger), logger))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestExpenseService_ManualReceiptLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	created, err := c.Call(ctx, "IngestManual", map[string]any{
		"date":     "2024-03-05",
		"shopName": "Shop X",
		"items": []any{
			map[string]any{"name": "Milk", "price": 2.5, "category": "Groceries"},
			map[string]any{"name": "Bread", "price": "3.00", "quantity": 2, "category": "groceries"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "8.50", created["totalAmount"])
	require.Equal(t, "MANUAL", created["source"])
	id := created["id"].(string)
	items := created["items"].([]any)
	require.Len(t, items, 2)
	milk := items[0].(map[string]any)

	got, err := c.Call(ctx, "GetReceipt", map[string]any{"id": id})
	require.NoError(t, err)
	require.Equal(t, "Shop X", got["shop"].(map[string]any)["name"])

	updated, err := c.Call(ctx, "UpdateReceipt", map[string]any{
		"id":       id,
		"date":     "2024-03-06",
		"shopName": "Shop X",
		"items": []any{
			map[string]any{"id": milk["id"], "name": "Milk", "price": 2.5, "categoryId": milk["categoryId"]},
			map[string]any{"id": "temp-1", "name": "Eggs", "price": 4},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "6.50", updated["totalAmount"])
	require.Equal(t, "2024-03-06", updated["date"])

	list, err := c.Call(ctx, "ListReceipts", map[string]any{"from": "2024-03-01"})
	require.NoError(t, err)
	require.Len(t, list["receipts"].([]any), 1)

	shops, err := c.Call(ctx, "ListShops", map[string]any{})
	require.NoError(t, err)
	require.Len(t, shops["shops"].([]any), 1)

	exp, err := c.Call(ctx, "ExportReceipts", map[string]any{})
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(exp["xlsx"].(string))
	require.NoError(t, err)
	require.Equal(t, "PK", string(raw[:2]))

	_, err = c.Call(ctx, "DeleteReceipt", map[string]any{"id": id})
	require.NoError(t, err)
	_, err = c.Call(ctx, "GetReceipt", map[string]any{"id": id})
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestExpenseService_ErrorCodes(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.Call(ctx, "GetReceipt", map[string]any{"id": "not-a-uuid"})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Call(ctx, "IngestManual", map[string]any{"date": "2024-03-05", "items": []any{}})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Call(ctx, "IngestImage", map[string]any{"path": "/tmp/receipt.jpg"})
	require.Equal(t, codes.Aborted, status.Code(err))

	_, err = c.Call(ctx, "CreateCategory", map[string]any{"name": "groceries"})
	require.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestExpenseService_Categories(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	cat, err := c.Call(ctx, "CreateCategory", map[string]any{"name": "Travel"})
	require.NoError(t, err)

	renamed, err := c.Call(ctx, "RenameCategory", map[string]any{"id": cat["id"], "name": "Trips"})
	require.NoError(t, err)
	require.Equal(t, "Trips", renamed["name"])

	list, err := c.Call(ctx, "ListCategories", map[string]any{})
	require.NoError(t, err)
	require.Len(t, list["categories"].([]any), 7)

	_, err = c.Call(ctx, "DeleteCategory", map[string]any{"id": cat["id"]})
	require.NoError(t, err)
}

func TestServiceDescriptorIsRegistered(t *testing.T) {
	require.Equal(t, ServiceName, ServiceDesc.ServiceName)
	require.Len(t, ServiceDesc.Methods, 13)
}
