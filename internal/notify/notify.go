// Package notify defines the alert delivery interface and its
// implementations. Delivery failures are always non-fatal to a tracking
// cycle: the price data is already persisted by the time an alert fires.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/price-tracker/internal/database"
	"github.com/maltedev/price-tracker/internal/models"
)

// EventTypePriceDrop is published when a qualifying price drop is detected.
const EventTypePriceDrop = "PRICE_DROP_DETECTED"

// Notifier delivers price drop alerts.
type Notifier interface {
	SendPriceDropAlert(ctx context.Context, event *models.DropEvent) error
}

// LogNotifier writes alerts to the log. Used when no delivery channel is
// configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

func (n *LogNotifier) SendPriceDropAlert(ctx context.Context, event *models.DropEvent) error {
	n.logger.Info("price drop alert",
		"product", event.Product,
		"site", event.Site,
		"previous_price", event.PreviousPrice.StringFixed(2),
		"current_price", event.CurrentPrice.StringFixed(2),
		"amount_drop", event.AmountDrop.StringFixed(2),
		"percent_drop", event.PercentDrop.StringFixed(1))
	return nil
}

// alertPayload is the wire shape alert consumers read from the stream.
type alertPayload struct {
	Product       string    `json:"product"`
	Site          string    `json:"site"`
	PreviousPrice string    `json:"previous_price"`
	CurrentPrice  string    `json:"current_price"`
	AmountDrop    string    `json:"amount_drop"`
	PercentDrop   string    `json:"percent_drop"`
	Timestamp     time.Time `json:"timestamp"`
}

// OutboxNotifier persists alerts to the transactional outbox; the relay
// delivers them to the configured Redis stream for downstream consumers
// (mail bridge, chat bots).
type OutboxNotifier struct {
	outbox *database.OutboxRepository
	stream string
	logger *slog.Logger
}

func NewOutboxNotifier(db *database.DB, stream string, logger *slog.Logger) *OutboxNotifier {
	if stream == "" {
		stream = database.DefaultAlertStream
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxNotifier{
		outbox: database.NewOutboxRepository(db),
		stream: stream,
		logger: logger.With("component", "outbox_notifier"),
	}
}

func (n *OutboxNotifier) SendPriceDropAlert(ctx context.Context, event *models.DropEvent) error {
	payload := alertPayload{
		Product:       event.Product,
		Site:          event.Site,
		PreviousPrice: event.PreviousPrice.StringFixed(2),
		CurrentPrice:  event.CurrentPrice.StringFixed(2),
		AmountDrop:    event.AmountDrop.StringFixed(2),
		PercentDrop:   event.PercentDrop.StringFixed(2),
		Timestamp:     event.RecordedAt,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	outboxEvent := &database.OutboxEvent{
		AggregateType: "product",
		AggregateID:   fmt.Sprintf("%s/%s", event.Product, event.Site),
		EventType:     EventTypePriceDrop,
		Payload:       data,
		TargetStream:  n.stream,
	}

	if err := n.outbox.Insert(ctx, outboxEvent); err != nil {
		return fmt.Errorf("failed to enqueue alert: %w", err)
	}

	n.logger.Info("alert enqueued",
		"event_id", outboxEvent.ID,
		"product", event.Product,
		"site", event.Site)
	return nil
}
