package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"kioskpos/internal/auth"
	"kioskpos/internal/config"
	"kioskpos/internal/dto"
	"kioskpos/internal/middleware"
	"kioskpos/internal/model"
	"kioskpos/internal/repository"
	"kioskpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── In-memory repositories ────────────────────────────────────────────────────

type memAccounts struct {
	mu   sync.Mutex
	byID map[uuid.UUID]model.Account
}

func (m *memAccounts) Create(_ context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == a.Email {
			return repository.ErrDuplicateEmail
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.byID[a.ID] = *a
	return nil
}

func (m *memAccounts) FindByEmail(_ context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == model.NormalizeEmail(email) {
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memAccounts) FindByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		return &a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memAccounts) List(context.Context) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Account, 0, len(m.byID))
	for _, a := range m.byID {
		out = append(out, a)
	}
	return out, nil
}

func (m *memAccounts) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	delete(m.byID, id)
	return ok, nil
}

type memOrders struct {
	mu   sync.Mutex
	byID map[uuid.UUID]model.Order
}

func (m *memOrders) Create(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.OrderDay == o.OrderDay && existing.OrderNumber == o.OrderNumber {
			return repository.ErrDuplicateOrderNumber
		}
	}
	o.ID = uuid.New()
	m.byID[o.ID] = *o
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.byID[id]; ok {
		return &o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memOrders) FindLatestByNumber(_ context.Context, number string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Order
	for _, o := range m.byID {
		if o.OrderNumber == number && (latest == nil || o.CreatedAt.After(latest.CreatedAt)) {
			o := o
			latest = &o
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (m *memOrders) List(ctx context.Context) ([]model.Order, error) {
	return m.filter(func(model.Order) bool { return true }), nil
}

func (m *memOrders) ListByStatus(_ context.Context, s model.OrderStatus) ([]model.Order, error) {
	return m.filter(func(o model.Order) bool { return o.Status == s }), nil
}

func (m *memOrders) filter(keep func(model.Order) bool) []model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Order{}
	for _, o := range m.byID {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

func (m *memOrders) MaxNumberForDay(_ context.Context, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, o := range m.byID {
		if n, err := strconv.Atoi(o.OrderNumber); err == nil && o.OrderDay == day && n > max {
			max = n
		}
	}
	return max, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	m.byID[id] = o
	return true, nil
}

func (m *memOrders) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	delete(m.byID, id)
	return ok, nil
}

// ── Harness ───────────────────────────────────────────────────────────────────

const testSecret = "test_jwt_secret_32_chars_minimum!"

type harness struct {
	t        *testing.T
	engine   *gin.Engine
	accounts service.AccountService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret:              testSecret,
		JWTExpirationHours:     1,
		StoreTimezone:          "UTC",
		StoreTimeoutSeconds:    5,
		OrderNumberStrategy:    config.NumberStrategyStore,
		OrderNumberMaxAttempts: 5,
	}
	tokens := auth.NewTokenService(testSecret)
	accountRepo := &memAccounts{byID: map[uuid.UUID]model.Account{}}
	orderRepo := &memOrders{byID: map[uuid.UUID]model.Order{}}

	accounts := service.NewAccountService(accountRepo, auth.NewPasswordHasher(bcrypt.MinCost), tokens, cfg.TokenTTL())
	orders := service.NewOrderService(orderRepo, service.NewStoreNumberGenerator(orderRepo), nil, nil, cfg)

	r := newEngine(cfg)
	Register(r, Deps{Tokens: tokens, Accounts: accounts, Orders: orders})
	return &harness{t: t, engine: r, accounts: accounts}
}

func (h *harness) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func (h *harness) login(email, password string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/accounts/login", "", dto.LoginRequest{Email: email, Password: password})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.LoginResponse
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func (h *harness) seedAdmin() string {
	h.t.Helper()
	_, err := h.accounts.Register(context.Background(), dto.RegisterRequest{Email: "admin@kiosk.test", Password: "admin123", Role: "admin"})
	require.NoError(h.t, err)
	return h.login("admin@kiosk.test", "admin123")
}

func (h *harness) registerAndLogin(adminToken, email, role string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/accounts/register", adminToken, dto.RegisterRequest{Email: email, Password: "secret123", Role: role})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return h.login(email, "secret123")
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestOrderFlow_EndToEnd(t *testing.T) {
	h := newHarness(t)
	admin := h.seedAdmin()
	front := h.registerAndLogin(admin, "front@kiosk.test", "frontdesk")

	create := map[string]interface{}{
		"items": []map[string]interface{}{
			{"itemRef": uuid.NewString(), "itemKind": "product", "quantity": 2, "price": 8.5},
			{"itemRef": uuid.NewString(), "itemKind": "menu", "quantity": 1, "price": "2"},
		},
	}
	w := h.do(http.MethodPost, "/orders", front, create)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created dto.OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "19.00", created.Total)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "001", created.OrderNumber)

	w = h.do(http.MethodPatch, "/orders/"+created.ID+"/status", front, dto.UpdateStatusRequest{Status: "preparing"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"preparing"`)

	// preparing → delivered skips ready
	w = h.do(http.MethodPatch, "/orders/"+created.ID+"/status", front, dto.UpdateStatusRequest{Status: "delivered"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"message"`)

	w = h.do(http.MethodGet, "/orders/001", front, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created.ID)

	w = h.do(http.MethodGet, "/orders/status/preparing", front, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []dto.OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

func TestFrontdeskOnAdminRoute_Forbidden(t *testing.T) {
	h := newHarness(t)
	admin := h.seedAdmin()
	front := h.registerAndLogin(admin, "front@kiosk.test", "frontdesk")

	w := h.do(http.MethodGet, "/orders", front, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Accès refusé. Permissions insuffisantes.","requiredRoles":["admin"],"userRole":"frontdesk"}`, w.Body.String())
}

func TestAuthErrors(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"`+middleware.ErrMissingToken.Error()+`"}`, w.Body.String())

	w = h.do(http.MethodGet, "/orders", "not.a.token", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"`+middleware.ErrInvalidToken.Error()+`"}`, w.Body.String())
}

func TestLogin_BadCredentialsIs400(t *testing.T) {
	h := newHarness(t)
	h.seedAdmin()

	w := h.do(http.MethodPost, "/accounts/login", "", dto.LoginRequest{Email: "admin@kiosk.test", Password: "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"`+service.ErrInvalidCredentials.Error()+`"}`, w.Body.String())
}

func TestValidationEnvelope(t *testing.T) {
	h := newHarness(t)
	admin := h.seedAdmin()
	front := h.registerAndLogin(admin, "front@kiosk.test", "frontdesk")

	w := h.do(http.MethodPost, "/orders", front, map[string]interface{}{"items": []interface{}{}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":[{"field":"items","message":"Doit contenir au moins 1 élément(s)"}]}`, w.Body.String())

	w = h.do(http.MethodPost, "/accounts/register", admin, map[string]string{"email": "nope", "password": "123"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var verr struct {
		Errors []struct{ Field, Message string }
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verr))
	fields := []string{}
	for _, e := range verr.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"email", "password"}, fields)
}

func TestAccountsAdmin(t *testing.T) {
	h := newHarness(t)
	admin := h.seedAdmin()

	w := h.do(http.MethodPost, "/accounts/register", admin, dto.RegisterRequest{Email: "prep@kiosk.test", Password: "secret123"})
	require.Equal(t, http.StatusCreated, w.Code)
	var acc dto.AccountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &acc))
	assert.Equal(t, "frontdesk", acc.Role)
	assert.NotContains(t, w.Body.String(), "password")

	w = h.do(http.MethodPost, "/accounts/register", admin, dto.RegisterRequest{Email: "prep@kiosk.test", Password: "secret123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/accounts", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodDelete, "/accounts/"+acc.ID, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodDelete, "/accounts/"+acc.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = h.do(http.MethodDelete, "/accounts/not-a-uuid", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownStatusFilter(t *testing.T) {
	h := newHarness(t)
	admin := h.seedAdmin()
	prep := h.registerAndLogin(admin, "prep@kiosk.test", "preparer")

	w := h.do(http.MethodGet, "/orders/status/cooking", prep, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/orders/999", prep, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
