package worker

// event_worker.go
// Publishes order lifecycle events to the broker through the circuit breaker.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kioskpos/internal/infra"

	"github.com/rs/zerolog/log"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderDeleted       = "order.deleted"
)

// OrderEvent is the message body published for every lifecycle change.
type OrderEvent struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	OrderDay       string    `json:"order_day"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Total          string    `json:"total,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// RoutingKey is "<type>.<status>", e.g. "order.status_changed.ready", so
// kitchen displays can bind to the statuses they care about.
func (e OrderEvent) RoutingKey() string {
	return e.Type + "." + e.Status
}

// Publisher is the broker side of the event worker.
type Publisher interface {
	Publish(ctx context.Context, routingKey, messageID string, body []byte) error
}

type EventWorker struct {
	publisher Publisher
	breaker   *infra.CircuitBreaker
	timeout   time.Duration
}

func NewEventWorker(publisher Publisher, breaker *infra.CircuitBreaker) *EventWorker {
	return &EventWorker{publisher: publisher, breaker: breaker, timeout: 5 * time.Second}
}

// Process publishes one event. Failures after retries are returned so the
// pool moves the job to the DLQ, where the replay loop picks it up later.
func (w *EventWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var ev OrderEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return fmt.Errorf("event_worker: invalid payload: %w", err)
	}

	return withRetry(ctx, maxJobAttempts, func(attempt int) error {
		err := w.breaker.Execute(func() error {
			pctx, cancel := context.WithTimeout(ctx, w.timeout)
			defer cancel()
			return w.publisher.Publish(pctx, ev.RoutingKey(), ev.ID, raw)
		})
		if err != nil {
			log.Warn().Err(err).
				Int("attempt", attempt+1).
				Str("event", ev.Type).
				Str("order_id", ev.OrderID).
				Msg("event_worker: publish failed")
		}
		return err
	})
}
