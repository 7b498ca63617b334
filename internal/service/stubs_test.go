package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"kioskpos/internal/config"
	"kioskpos/internal/dto"
	"kioskpos/internal/model"
	"kioskpos/internal/order"
	"kioskpos/internal/repository"
	"kioskpos/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── In-memory order repository ────────────────────────────────────────────────
// Enforces the same (order_day, order_number) uniqueness as the Postgres index.

type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.Order
	// beforeUpdate runs before the compare-and-set, outside the lock.
	beforeUpdate func(id uuid.UUID)
	creates      int
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.Items = append([]model.LineItem(nil), o.Items...)
	return &c
}

func (r *stubOrderRepo) Create(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	for _, existing := range r.orders {
		if existing.OrderDay == o.OrderDay && existing.OrderNumber == o.OrderNumber {
			return repository.ErrDuplicateOrderNumber
		}
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneOrder(o), nil
}

func (r *stubOrderRepo) FindLatestByNumber(_ context.Context, number string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.Order
	for _, o := range r.orders {
		if o.OrderNumber == number && (latest == nil || o.CreatedAt.After(latest.CreatedAt)) {
			latest = o
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneOrder(latest), nil
}

func (r *stubOrderRepo) sorted(keep func(*model.Order) bool) []model.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *stubOrderRepo) List(_ context.Context) ([]model.Order, error) {
	return r.sorted(func(*model.Order) bool { return true }), nil
}

func (r *stubOrderRepo) ListByStatus(_ context.Context, status model.OrderStatus) ([]model.Order, error) {
	return r.sorted(func(o *model.Order) bool { return o.Status == status }), nil
}

func (r *stubOrderRepo) MaxNumberForDay(_ context.Context, dayKey string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, o := range r.orders {
		if o.OrderDay != dayKey {
			continue
		}
		if n, err := strconv.Atoi(o.OrderNumber); err == nil && n > max {
			max = n
		}
	}
	return max, nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	if r.beforeUpdate != nil {
		r.beforeUpdate(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return true, nil
}

func (r *stubOrderRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return false, nil
	}
	delete(r.orders, id)
	return true, nil
}

// ── In-memory account repository ──────────────────────────────────────────────

type stubAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*model.Account
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[uuid.UUID]*model.Account)}
}

func (r *stubAccountRepo) Create(_ context.Context, a *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.Email = model.NormalizeEmail(a.Email)
	for _, existing := range r.accounts {
		if existing.Email == a.Email {
			return repository.ErrDuplicateEmail
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	c := *a
	r.accounts[a.ID] = &c
	return nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == model.NormalizeEmail(email) {
			c := *a
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *a
	return &c, nil
}

func (r *stubAccountRepo) List(_ context.Context) ([]model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (r *stubAccountRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return false, nil
	}
	delete(r.accounts, id)
	return true, nil
}

// ── Notifier / resolver / catalog ─────────────────────────────────────────────

type stubNotifier struct {
	mu      sync.Mutex
	tickets []worker.TicketJobPayload
	events  []worker.OrderEvent
}

func (n *stubNotifier) EnqueueTicket(_ context.Context, p worker.TicketJobPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tickets = append(n.tickets, p)
	return nil
}

func (n *stubNotifier) EnqueueOrderEvent(_ context.Context, ev worker.OrderEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

type stubCatalog struct {
	products map[uuid.UUID]*model.Product
	menus    map[uuid.UUID]*model.Menu
	calls    int
}

func (c *stubCatalog) FindProduct(_ context.Context, id uuid.UUID) (*model.Product, error) {
	c.calls++
	if p, ok := c.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (c *stubCatalog) FindMenu(_ context.Context, id uuid.UUID) (*model.Menu, error) {
	c.calls++
	if m, ok := c.menus[id]; ok {
		return m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// fixedNumbers always proposes the same number.
type fixedNumbers struct {
	number string
	calls  int
}

func (f *fixedNumbers) Next(context.Context, order.Day) (string, error) {
	f.calls++
	return f.number, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:              "test_jwt_secret_32_chars_minimum!",
		JWTExpirationHours:     1,
		StoreTimezone:          "UTC",
		OrderNumberStrategy:    "store",
		OrderNumberMaxAttempts: 5,
	}
}

func newTestOrderService(repo *stubOrderRepo, notifier OrderNotifier, now time.Time) *orderService {
	svc := NewOrderService(repo, NewStoreNumberGenerator(repo), nil, notifier, testConfig()).(*orderService)
	svc.now = func() time.Time { return now }
	return svc
}

func lineItem(ref, kind string, qty int, price string) dto.LineItemRequest {
	p := decimalPtr(price)
	return dto.LineItemRequest{ItemRef: ref, ItemKind: kind, Quantity: qty, Price: p}
}
