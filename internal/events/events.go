// Package events publishes receipt lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/expense-tracker/constants"
)

// ReceiptEvent is the JSON body of every published message.
type ReceiptEvent struct {
	Type      constants.EventType `json:"type"`
	ReceiptID uuid.UUID           `json:"receiptId"`
	Total     string              `json:"total,omitempty"`
	ItemCount int                 `json:"itemCount"`
	At        time.Time           `json:"at"`
}

func (e ReceiptEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ReceiptEventFromJSON(b []byte) (*ReceiptEvent, error) {
	var e ReceiptEvent
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Publisher sends events after a transaction commits. Callers log failures
// and carry on; events are best-effort.
type Publisher interface {
	Publish(ctx context.Context, ev ReceiptEvent) error
	Close() error
}

// Noop drops everything. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, ReceiptEvent) error { return nil }
func (Noop) Close() error { return nil }

// Recorder keeps events in memory; handy for tests and the batch tool.
type Recorder struct {
	Events []ReceiptEvent
}

func (r *Recorder) Publish(_ context.Context, ev ReceiptEvent) error {
	r.Events = append(r.Events, ev)
	return nil
}

func (r *Recorder) Close() error { return nil }

// New dials AMQP when url is set and falls back to Noop otherwise.
func New(url, exchange string, logger *slog.Logger) (Publisher, error) {
	if url == "" {
		if logger != nil {
			logger.Info("events disabled: no AMQP_URL")
		}
		return Noop{}, nil
	}
	return NewAMQPPublisher(url, exchange, logger)
}
