package worker

// ticket_worker.go
// Prints the kitchen ticket of every newly created order to a PDF file.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"kioskpos/internal/dto"
	"kioskpos/internal/infra"
	"kioskpos/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TicketJobPayload is the job envelope sent to QueueTickets.
type TicketJobPayload struct {
	OrderID string `json:"order_id"`
}

// OrderFinder loads an order with its items.
type OrderFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
}

// ItemLookup resolves a line item against the catalog for display.
type ItemLookup interface {
	Resolve(ctx context.Context, kind model.ItemKind, ref string) (*dto.ItemSummary, error)
}

// TicketWorker renders kitchen tickets. items may be nil, in which case the
// raw item reference is printed.
type TicketWorker struct {
	orders      OrderFinder
	items       ItemLookup
	storagePath string
}

func NewTicketWorker(orders OrderFinder, items ItemLookup, storagePath string) *TicketWorker {
	return &TicketWorker{orders: orders, items: items, storagePath: storagePath}
}

// Process handles a single ticket job:
//  1. Parse TicketJobPayload
//  2. Fetch the order with its items
//  3. Resolve item names (falls back to the reference)
//  4. Render the PDF, retrying transient write failures
func (w *TicketWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload TicketJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("ticket_worker: invalid payload: %w", err)
	}
	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		return fmt.Errorf("ticket_worker: invalid order_id %q", payload.OrderID)
	}

	o, err := w.orders.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// deleted before the ticket was printed
		log.Warn().Str("order_id", payload.OrderID).Msg("ticket_worker: order not found, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("ticket_worker: load order %s: %w", payload.OrderID, err)
	}

	ticket := infra.KitchenTicket{
		OrderNumber: o.OrderNumber,
		Day:         o.OrderDay,
		CreatedAt:   o.CreatedAt,
		Total:       o.Total,
		Lines:       make([]infra.KitchenTicketLine, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		name := it.ItemRef
		if w.items != nil {
			if summary, err := w.items.Resolve(ctx, it.ItemKind, it.ItemRef); err == nil {
				name = summary.Name
			}
		}
		ticket.Lines = append(ticket.Lines, infra.KitchenTicketLine{
			Name:     name,
			Kind:     string(it.ItemKind),
			Quantity: it.Quantity,
		})
	}

	var path string
	err = withRetry(ctx, maxJobAttempts, func(attempt int) error {
		p, err := infra.GenerateKitchenTicketPDF(ticket, w.storagePath)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("order_id", payload.OrderID).
				Msg("ticket_worker: PDF generation failed, retrying")
			return err
		}
		path = p
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("pdf", path).Str("order_number", o.OrderNumber).Msg("ticket_worker: kitchen ticket generated")
	return nil
}
