package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kioskpos/internal/config"
	"kioskpos/internal/dto"
	"kioskpos/internal/model"
	"kioskpos/internal/order"
	"kioskpos/internal/repository"
	"kioskpos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderService interface {
	Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Transition(ctx context.Context, id uuid.UUID, status string, actor model.Role) (*dto.OrderResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]dto.OrderResponse, error)
	ListByStatus(ctx context.Context, status string) ([]dto.OrderResponse, error)
	GetByNumber(ctx context.Context, number string) (*dto.OrderResponse, error)
}

// OrderNotifier receives side jobs for committed changes. *worker.Dispatcher implements it.
type OrderNotifier interface {
	EnqueueTicket(ctx context.Context, payload worker.TicketJobPayload) error
	EnqueueOrderEvent(ctx context.Context, ev worker.OrderEvent) error
}

type orderService struct {
	repo        repository.OrderRepository
	numbers     NumberGenerator
	resolver    ItemResolver
	notifier    OrderNotifier
	loc         *time.Location
	maxAttempts int
	now         func() time.Time
}

// NewOrderService wires the order use cases. resolver and notifier may be nil.
func NewOrderService(
	repo repository.OrderRepository,
	numbers NumberGenerator,
	resolver ItemResolver,
	notifier OrderNotifier,
	cfg *config.Config,
) OrderService {
	loc, err := cfg.Location()
	if err != nil {
		loc = time.Local
	}
	attempts := cfg.OrderNumberMaxAttempts
	if attempts < 1 {
		attempts = 5
	}
	return &orderService{
		repo:        repo,
		numbers:     numbers,
		resolver:    resolver,
		notifier:    notifier,
		loc:         loc,
		maxAttempts: attempts,
		now:         time.Now,
	}
}

// ── Create ────────────────────────────────────────────────────────────────────
//   1. Validate items, status and total override
//   2. Compute the total (or round the override)
//   3. Take the day window of now in the store timezone
//   4. Insert with a candidate number; on collision ask for another, bounded
//   5. (async) kitchen ticket + order.created event

func (s *orderService) Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if len(req.Items) == 0 {
		return nil, fieldError("items", "La commande doit contenir au moins un article")
	}
	// an empty status means the default, like an absent one
	if req.Status != nil && *req.Status != "" && *req.Status != string(model.StatusPending) {
		return nil, fieldError("status", "Une commande est toujours créée avec le statut pending")
	}

	items := make([]model.LineItem, len(req.Items))
	for i, it := range req.Items {
		kind := model.ItemKind(it.ItemKind)
		if kind != model.ItemKindProduct && kind != model.ItemKindMenu {
			return nil, fieldError(fmt.Sprintf("items[%d].itemKind", i), "Le type doit être product ou menu")
		}
		if it.Quantity < 1 {
			return nil, fieldError(fmt.Sprintf("items[%d].quantity", i), "La quantité doit être un entier positif")
		}
		price := decimal.Zero
		if it.Price != nil {
			price = *it.Price
		}
		if price.IsNegative() {
			return nil, fieldError(fmt.Sprintf("items[%d].price", i), "Le prix doit être un nombre positif")
		}
		// the snapshot column keeps 4 places; anything finer would be rounded
		// on write and no longer add up to the stored total
		if !price.Equal(price.Round(model.LineItemPricePlaces)) {
			return nil, fieldError(fmt.Sprintf("items[%d].price", i), "Le prix accepte au plus 4 décimales")
		}
		items[i] = model.LineItem{
			Position: i,
			ItemRef:  it.ItemRef,
			ItemKind: kind,
			Quantity: it.Quantity,
			Price:    price,
		}
	}

	computed := order.CalculateTotal(items)
	total := computed
	if req.Total != nil {
		if req.Total.IsNegative() {
			return nil, fieldError("total", "Le total doit être un nombre positif")
		}
		total = order.RoundCents(*req.Total)
		if !total.Equal(computed) {
			log.Warn().
				Str("override", total.StringFixed(2)).
				Str("computed", computed.StringFixed(2)).
				Msg("order total overridden by caller")
		}
	}

	now := s.now()
	day := order.DayOf(now, s.loc)

	var created *model.Order
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		number, err := s.numbers.Next(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("order number: %w", err)
		}
		o := &model.Order{
			ID:          uuid.New(),
			OrderNumber: number,
			OrderDay:    day.Key,
			Status:      model.StatusPending,
			Total:       total,
			CreatedAt:   now,
			UpdatedAt:   now,
			Items:       append([]model.LineItem(nil), items...),
		}
		err = s.repo.Create(ctx, o)
		if errors.Is(err, repository.ErrDuplicateOrderNumber) {
			log.Warn().
				Str("day", day.Key).
				Str("number", number).
				Int("attempt", attempt).
				Msg("order number taken by a concurrent creation, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		created = o
		break
	}
	if created == nil {
		log.Error().Str("day", day.Key).Int("attempts", s.maxAttempts).Msg("order numbering exhausted")
		return nil, ErrNumberingConflict
	}

	log.Info().
		Str("order_id", created.ID.String()).
		Str("number", created.OrderNumber).
		Str("total", created.Total.StringFixed(2)).
		Msg("order created")

	if s.notifier != nil {
		if err := s.notifier.EnqueueTicket(ctx, worker.TicketJobPayload{OrderID: created.ID.String()}); err != nil {
			log.Warn().Err(err).Str("order_id", created.ID.String()).Msg("failed to enqueue kitchen ticket")
		}
	}
	s.emit(ctx, worker.EventOrderCreated, created, "")

	resp := s.toResponse(ctx, created)
	return &resp, nil
}

// ── Transition ────────────────────────────────────────────────────────────────

func (s *orderService) Transition(ctx context.Context, id uuid.UUID, status string, actor model.Role) (*dto.OrderResponse, error) {
	to, err := order.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	o, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if err := order.Transition(from, to, actor); err != nil {
		return nil, err
	}

	ok, err := s.repo.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		// lost the race: either deleted or moved by someone else
		if _, err := s.find(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s → %s (modifiée entre-temps)", order.ErrInvalidTransition, from, to)
	}

	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("order_id", id.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("actor_role", string(actor)).
		Msg("order status changed")
	s.emit(ctx, worker.EventOrderStatusChanged, updated, from)

	resp := s.toResponse(ctx, updated)
	return &resp, nil
}

// ── Delete ────────────────────────────────────────────────────────────────────

func (s *orderService) Delete(ctx context.Context, id uuid.UUID) error {
	o, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.emit(ctx, worker.EventOrderDeleted, o, "")
	return nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *orderService) List(ctx context.Context) ([]dto.OrderResponse, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, orders), nil
}

func (s *orderService) ListByStatus(ctx context.Context, status string) ([]dto.OrderResponse, error) {
	st, err := order.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.ListByStatus(ctx, st)
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, orders), nil
}

func (s *orderService) GetByNumber(ctx context.Context, number string) (*dto.OrderResponse, error) {
	o, err := s.repo.FindLatestByNumber(ctx, number)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, o)
	return &resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *orderService) find(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return o, err
}

func (s *orderService) emit(ctx context.Context, eventType string, o *model.Order, previous model.OrderStatus) {
	if s.notifier == nil {
		return
	}
	ev := worker.OrderEvent{
		ID:             uuid.NewString(),
		Type:           eventType,
		OrderID:        o.ID.String(),
		OrderNumber:    o.OrderNumber,
		OrderDay:       o.OrderDay,
		Status:         string(o.Status),
		PreviousStatus: string(previous),
		Total:          o.Total.StringFixed(2),
		OccurredAt:     s.now().UTC(),
	}
	if err := s.notifier.EnqueueOrderEvent(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", eventType).Str("order_id", ev.OrderID).Msg("failed to enqueue order event")
	}
}

func (s *orderService) toResponses(ctx context.Context, orders []model.Order) []dto.OrderResponse {
	out := make([]dto.OrderResponse, len(orders))
	for i := range orders {
		out[i] = s.toResponse(ctx, &orders[i])
	}
	return out
}

func (s *orderService) toResponse(ctx context.Context, o *model.Order) dto.OrderResponse {
	items := make([]dto.LineItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = dto.LineItemResponse{
			ItemRef:  it.ItemRef,
			ItemKind: string(it.ItemKind),
			Quantity: it.Quantity,
			Price:    dto.Money(it.Price),
		}
		if s.resolver != nil {
			summary, err := s.resolver.Resolve(ctx, it.ItemKind, it.ItemRef)
			if err == nil {
				items[i].Item = summary
			} else if !errors.Is(err, ErrNotFound) {
				log.Debug().Err(err).Str("item_ref", it.ItemRef).Msg("item resolution failed")
			}
		}
	}
	return dto.OrderResponse{
		ID:          o.ID.String(),
		OrderNumber: o.OrderNumber,
		Status:      string(o.Status),
		Total:       o.Total.StringFixed(2),
		Items:       items,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}
