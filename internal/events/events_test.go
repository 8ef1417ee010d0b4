package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/expense-tracker/constants"
)

func TestReceiptEvent_JSON(t *testing.T) {
	ev := ReceiptEvent{
		Type:      constants.EventReceiptCreated,
		ReceiptID: uuid.New(),
		Total:     "5.50",
		ItemCount: 2,
		At:        time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	b, err := ev.ToJSON()
	require.NoError(t, err)
	require.Contains(t, string(b), `"type":"receipt.created"`)
	require.Contains(t, string(b), `"receiptId":"`+ev.ReceiptID.String()+`"`)

	back, err := ReceiptEventFromJSON(b)
	require.NoError(t, err)
	require.Equal(t, ev, *back)
}

func TestNew_WithoutURLIsNoop(t *testing.T) {
	p, err := New("", "expenses", nil)
	require.NoError(t, err)
	require.IsType(t, Noop{}, p)
	require.NoError(t, p.Publish(context.Background(), ReceiptEvent{}))
	require.NoError(t, p.Close())
}
