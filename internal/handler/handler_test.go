package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/cursos-bot/internal/chat"
	"github.com/mmeshcher/cursos-bot/internal/middleware"
	"github.com/mmeshcher/cursos-bot/internal/model"
	"github.com/mmeshcher/cursos-bot/internal/rates"
	"github.com/mmeshcher/cursos-bot/internal/repository"
	"github.com/mmeshcher/cursos-bot/internal/service"
)

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]model.Order
	seq    int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[string]model.Order)}
}

func (m *memOrderRepo) CreateOrder(ctx context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; ok {
		return repository.ErrOrderExists
	}
	m.seq++
	o.CreatedAt = time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = *o
	return nil
}

func (m *memOrderRepo) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return &o, nil
}

func (m *memOrderRepo) ListOrders(ctx context.Context) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]model.Order, 0, len(m.orders))
	for _, o := range m.orders {
		res = append(res, o)
	}
	return res, nil
}

func (m *memOrderRepo) UpdateOrderStatus(ctx context.Context, id string, from, to model.OrderStatus) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if o.Status != from {
		return nil, repository.ErrOrderStatusChanged
	}
	o.Status = to
	m.orders[id] = o
	return &o, nil
}

func (m *memOrderRepo) ConfirmOrder(ctx context.Context, id string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	o.Confirmed = true
	m.orders[id] = o
	return &o, nil
}

type stubVerifier struct {
	calls []string
	err   error
}

func (s *stubVerifier) Verify(ctx context.Context, orderID string) (*service.VerificationResult, error) {
	s.calls = append(s.calls, orderID)
	if s.err != nil {
		return nil, s.err
	}
	return &service.VerificationResult{OrderID: orderID, Phone: "51999888777", Email: "ana@example.com"}, nil
}

type stubLeads struct {
	leads []model.Lead
}

func (s *stubLeads) ListByPaymentStatus(ctx context.Context, status model.PaymentStatus) ([]model.Lead, error) {
	var res []model.Lead
	for _, l := range s.leads {
		if l.PaymentStatus == status {
			res = append(res, l)
		}
	}
	if res == nil {
		res = []model.Lead{}
	}
	return res, nil
}

type stubRates struct {
	rate model.ExchangeRate
	err  error
}

func (s *stubRates) Rate(ctx context.Context, currency string) (model.ExchangeRate, error) {
	return s.rate, s.err
}

type stubBot struct {
	messages []chat.Message
}

func (s *stubBot) HandleMessage(ctx context.Context, msg chat.Message) (service.Outcome, error) {
	s.messages = append(s.messages, msg)
	return service.OutcomeClarify, nil
}

type testEnv struct {
	orders   *memOrderRepo
	verifier *stubVerifier
	bot      *stubBot
	handler  *Handler
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	env := &testEnv{
		orders:   newMemOrderRepo(),
		verifier: &stubVerifier{},
		bot:      &stubBot{},
	}

	env.handler = NewHandler(Services{
		Orders:   service.NewOrders(env.orders, nil, true),
		Leads:    &stubLeads{leads: []model.Lead{{Phone: "1", PaymentStatus: model.PaymentStatusPending}}},
		Verifier: env.verifier,
		Catalog:  service.NewCatalog(newMemCatalogRepo()),
		Bot:      env.bot,
	}, Options{
		AdminUser:     "admin",
		AdminPassword: "secret",
		WebhookToken:  "hook",
	}, logger, middleware.NewAuthMiddleware("test-secret"))
	env.router = env.handler.SetupRouter()

	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec.Result()
}

func (e *testEnv) adminCookie(t *testing.T) *http.Cookie {
	t.Helper()

	res := e.do(t, http.MethodPost, "/api/login", map[string]string{"usuario": "admin", "password": "secret"})
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, res.Cookies())
	return res.Cookies()[0]
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	defer res.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func orderPayload() map[string]any {
	return map[string]any{
		"titulo":     "Curso de Repostería",
		"precio":     "49.90",
		"nombre":     "Ana",
		"apellido":   "Lopez",
		"correo":     "Ana@Example.com",
		"telefono":   "51999888777",
		"metodoPago": "Yape",
	}
}

func TestCreateOrder_RoundTrip(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodPost, "/api/pedidos", orderPayload())
	require.Equal(t, http.StatusCreated, res.StatusCode)
	created := decode[model.Order](t, res)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "ana@example.com", created.Email)
	assert.Equal(t, model.OrderStatusPending, created.Status)

	res = env.do(t, http.MethodGet, "/api/admin/pedidos/"+created.ID, nil, env.adminCookie(t))
	require.Equal(t, http.StatusOK, res.StatusCode)
	fetched := decode[model.Order](t, res)

	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Title, fetched.Title)
	assert.True(t, created.Price.Equal(fetched.Price))
	assert.Equal(t, created.Email, fetched.Email)
	assert.Equal(t, created.Status, fetched.Status)
}

func TestCreateOrder_Errors(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodPost, "/api/pedidos", "{not json")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res.Body.Close()

	payload := orderPayload()
	delete(payload, "correo")
	res = env.do(t, http.MethodPost, "/api/pedidos", payload)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	body := decode[errorResponse](t, res)
	assert.Contains(t, body.Error, "correo")

	for _, p := range []string{"10.005", "1e20"} {
		payload = orderPayload()
		payload["precio"] = p
		res = env.do(t, http.MethodPost, "/api/pedidos", payload)
		require.Equal(t, http.StatusBadRequest, res.StatusCode, p)
		assert.Contains(t, decode[errorResponse](t, res).Error, "precio")
	}
	assert.Empty(t, env.orders.orders)

	payload = orderPayload()
	payload["id"] = "WEB-1"
	res = env.do(t, http.MethodPost, "/api/pedidos", payload)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	res.Body.Close()
	res = env.do(t, http.MethodPost, "/api/pedidos", payload)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	res.Body.Close()
}

func TestListPublicOrders_HidesPersonalData(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodPost, "/api/pedidos", orderPayload())
	require.Equal(t, http.StatusCreated, res.StatusCode)
	res.Body.Close()

	res = env.do(t, http.MethodGet, "/api/pedidos", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	defer res.Body.Close()

	var buf bytes.Buffer
	_, err := buf.ReadFrom(res.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Curso de Repostería")
	assert.NotContains(t, buf.String(), "ana@example.com")
	assert.NotContains(t, buf.String(), "51999888777")
}

func TestConfirmOrder(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodPost, "/api/pedidos", orderPayload())
	created := decode[model.Order](t, res)

	res = env.do(t, http.MethodPatch, "/api/pedidos/"+created.ID+"/confirmar", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, decode[model.Order](t, res).Confirmed)

	res = env.do(t, http.MethodPatch, "/api/pedidos/missing/confirmar", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res.Body.Close()
}

func TestAdminRoutes_RequireSession(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/admin/pedidos", "/api/admin/pendientes", "/api/admin/verificados"} {
		res := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, path)
		res.Body.Close()
	}

	res := env.do(t, http.MethodGet, "/api/admin/pendientes", nil, env.adminCookie(t))
	require.Equal(t, http.StatusOK, res.StatusCode)
	leads := decode[[]model.Lead](t, res)
	assert.Len(t, leads, 1)
}

func TestUpdateOrderStatus(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.adminCookie(t)

	res := env.do(t, http.MethodPost, "/api/pedidos", orderPayload())
	created := decode[model.Order](t, res)
	path := "/api/admin/pedidos/" + created.ID

	res = env.do(t, http.MethodPut, path, map[string]string{}, cookie)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res.Body.Close()

	res = env.do(t, http.MethodPut, path, map[string]string{"estado": "lost"}, cookie)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res.Body.Close()

	res = env.do(t, http.MethodPut, path, map[string]string{"estado": "shipped"}, cookie)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, "strict mode rejects skipping steps")
	res.Body.Close()

	res = env.do(t, http.MethodPut, "/api/admin/pedidos/missing", map[string]string{"estado": "cancelled"}, cookie)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res.Body.Close()

	res = env.do(t, http.MethodPut, path, map[string]string{"estado": "cancelled"}, cookie)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, model.OrderStatusCancelled, decode[model.Order](t, res).Status)
}

func TestUpdateOrderStatus_PaymentVerifiedRunsVerifier(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.adminCookie(t)

	res := env.do(t, http.MethodPost, "/api/pedidos", orderPayload())
	created := decode[model.Order](t, res)

	res = env.do(t, http.MethodPut, "/api/admin/pedidos/"+created.ID,
		map[string]string{"estado": "payment_verified"}, cookie)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	assert.Equal(t, []string{created.ID}, env.verifier.calls)
}

func TestUpdateOrderStatus_PaymentVerifiedWithoutLead(t *testing.T) {
	env := newTestEnv(t)
	env.verifier.err = repository.ErrLeadNotFound
	cookie := env.adminCookie(t)

	res := env.do(t, http.MethodPost, "/api/pedidos", orderPayload())
	created := decode[model.Order](t, res)

	res = env.do(t, http.MethodPut, "/api/admin/pedidos/"+created.ID,
		map[string]string{"estado": "payment_verified"}, cookie)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, model.OrderStatusPaymentVerified, decode[model.Order](t, res).Status)
}

type oneLead struct {
	mu   sync.Mutex
	lead model.Lead
}

func (l *oneLead) find(phone string) (*model.Lead, error) {
	if phone != l.lead.Phone {
		return nil, repository.ErrLeadNotFound
	}
	cp := l.lead
	return &cp, nil
}

func (l *oneLead) FindLead(ctx context.Context, phone string) (*model.Lead, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.find(phone)
}

func (l *oneLead) FindLeadByOrderID(ctx context.Context, orderID string) (*model.Lead, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if orderID != l.lead.OrderID {
		return nil, repository.ErrLeadNotFound
	}
	cp := l.lead
	return &cp, nil
}

func (l *oneLead) UpsertLead(ctx context.Context, phone string, p model.LeadPatch) (*model.Lead, bool, error) {
	ld, err := l.FindLead(ctx, phone)
	return ld, false, err
}

func (l *oneLead) UpdateLeadFields(ctx context.Context, phone string, p model.LeadPatch) (*model.Lead, error) {
	return l.FindLead(ctx, phone)
}

func (l *oneLead) MarkVerified(ctx context.Context, phone string, v model.Verification) (*model.Lead, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.find(phone); err != nil {
		return nil, err
	}
	if l.lead.PaymentStatus != model.PaymentStatusPending && l.lead.AccessNotifiedAt != nil {
		return nil, repository.ErrAlreadyVerified
	}
	l.lead.PaymentStatus = model.PaymentStatusVerified
	l.lead.AccessPassword = v.Password
	l.lead.AccessNotifiedAt = nil
	cp := l.lead
	return &cp, nil
}

func (l *oneLead) MarkAccessNotified(ctx context.Context, phone string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.lead.AccessNotifiedAt = &now
	return nil
}

func (l *oneLead) AppendInteraction(ctx context.Context, phone string, in model.Interaction) error {
	return nil
}

func (l *oneLead) ListLeadsByPaymentStatus(ctx context.Context, status model.PaymentStatus) ([]model.Lead, error) {
	return nil, nil
}

type flakySender struct {
	mu   sync.Mutex
	fail bool
	sent []string
}

func (s *flakySender) Send(ctx context.Context, to, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("%w: gateway down", chat.ErrSendFailed)
	}
	s.sent = append(s.sent, to)
	return nil
}

type fixedPassword string

func (p fixedPassword) Generate(seed string) string { return string(p) }

func TestUpdateOrderStatus_PaymentVerifiedRetriesFailedDelivery(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.adminCookie(t)

	payload := orderPayload()
	payload["id"] = "WEB-2001"
	res := env.do(t, http.MethodPost, "/api/pedidos", payload)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	res.Body.Close()

	leads := &oneLead{lead: model.Lead{
		Phone:         "51999888777",
		Name:          "Ana",
		Surname:       "Lopez",
		OrderID:       "WEB-2001",
		PaymentStatus: model.PaymentStatusPending,
	}}
	sender := &flakySender{fail: true}
	orders := service.NewOrders(env.orders, nil, true)
	env.handler.services.Verifier = service.NewVerifier(leads, orders, sender, fixedPassword("lopez123"), zap.NewNop(), "https://cursos.local/login")

	path := "/api/admin/pedidos/WEB-2001"
	body := map[string]string{"estado": "payment_verified"}

	res = env.do(t, http.MethodPut, path, body, cookie)
	require.Equal(t, http.StatusBadGateway, res.StatusCode)
	res.Body.Close()
	assert.Empty(t, sender.sent)

	sender.fail = false
	res = env.do(t, http.MethodPut, path, body, cookie)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, model.OrderStatusPaymentVerified, decode[model.Order](t, res).Status)
	assert.Equal(t, []string{chat.Address("51999888777")}, sender.sent)

	res = env.do(t, http.MethodPut, path, body, cookie)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()
	assert.Len(t, sender.sent, 1)
}

func TestVerifyOrder_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{repository.ErrLeadNotFound, http.StatusNotFound},
		{repository.ErrAlreadyVerified, http.StatusConflict},
		{chat.ErrSendFailed, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		env := newTestEnv(t)
		env.verifier.err = tc.err

		res := env.do(t, http.MethodPost, "/api/admin/pedidos/WEB-1/verificar", nil, env.adminCookie(t))
		assert.Equal(t, tc.want, res.StatusCode, "err=%v", tc.err)
		res.Body.Close()
	}
}

func TestChatWebhook(t *testing.T) {
	env := newTestEnv(t)

	payload := `{"type":"Message","event":{"Info":{"ID":"1","Chat":"51999888777@s.whatsapp.net","PushName":"Ana"},` +
		`"Message":{"conversation":"hola"}}}`

	res := env.do(t, http.MethodPost, "/api/chat/webhook?token=wrong", payload)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	res.Body.Close()

	res = env.do(t, http.MethodPost, "/api/chat/webhook?token=hook", "{broken")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res.Body.Close()

	res = env.do(t, http.MethodPost, "/api/chat/webhook?token=hook", `{"type":"ReadReceipt","event":{}}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()
	assert.Empty(t, env.bot.messages)

	res = env.do(t, http.MethodPost, "/api/chat/webhook?token=hook", payload)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()
	require.Len(t, env.bot.messages, 1)
	assert.Equal(t, "hola", env.bot.messages[0].Text())
}

func TestLoginLogoutCheckAuth(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodPost, "/api/login", map[string]string{"usuario": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	res.Body.Close()

	res = env.do(t, http.MethodGet, "/api/check-auth", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	res.Body.Close()

	res = env.do(t, http.MethodGet, "/api/check-auth", nil, env.adminCookie(t))
	require.Equal(t, http.StatusOK, res.StatusCode)
	session := decode[sessionResponse](t, res)
	assert.True(t, session.Authenticated)
	assert.Equal(t, "admin", session.User)

	res = env.do(t, http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()
	require.NotEmpty(t, res.Cookies())
	assert.Negative(t, res.Cookies()[0].MaxAge)
}

func TestGetRate(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/api/tasa?moneda=ARS", nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	res.Body.Close()

	env.handler.services.Rates = &stubRates{rate: model.ExchangeRate{Currency: "ARS", Rate: 1000.5}}

	res = env.do(t, http.MethodGet, "/api/tasa", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res.Body.Close()

	res = env.do(t, http.MethodGet, "/api/tasa?moneda=ars", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1000.5, decode[model.ExchangeRate](t, res).Rate)

	env.handler.services.Rates = &stubRates{err: rates.ErrUnavailable}
	res = env.do(t, http.MethodGet, "/api/tasa?moneda=ARS", nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	res.Body.Close()
}

func TestCatalogAndVisits(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.adminCookie(t)

	res := env.do(t, http.MethodPost, "/api/admin/colecciones", map[string]string{"nombre": "Repostería"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	res.Body.Close()

	res = env.do(t, http.MethodPost, "/api/admin/colecciones", map[string]string{"nombre": "Repostería"}, cookie)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	c := decode[model.Collection](t, res)

	res = env.do(t, http.MethodPost, "/api/admin/colecciones/"+c.ID+"/items",
		map[string]any{"nombre": "Tortas", "precio": "25.50"}, cookie)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	it := decode[model.Item](t, res)

	res = env.do(t, http.MethodPost, "/api/admin/colecciones/missing/items",
		map[string]any{"nombre": "Pan", "precio": "1"}, cookie)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res.Body.Close()

	res = env.do(t, http.MethodGet, "/api/colecciones", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	list := decode[[]model.Collection](t, res)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Items, 1)

	res = env.do(t, http.MethodDelete, "/api/admin/items/"+it.ID, nil, cookie)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	res.Body.Close()

	for i := 0; i < 2; i++ {
		res = env.do(t, http.MethodPost, "/api/visitas", nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		res.Body.Close()
	}
	res = env.do(t, http.MethodGet, "/api/visitas", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 2, decode[visitsResponse](t, res).Count)
}

func TestNotFoundIsJSON(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/api/nothing", nil)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.True(t, strings.HasPrefix(res.Header.Get("Content-Type"), "application/json"))
}

type memCatalogRepo struct {
	mu          sync.Mutex
	collections []model.Collection
	visits      map[string]int64
}

func newMemCatalogRepo() *memCatalogRepo {
	return &memCatalogRepo{visits: make(map[string]int64)}
}

func (m *memCatalogRepo) CreateCollection(ctx context.Context, c *model.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = append(m.collections, *c)
	return nil
}

func (m *memCatalogRepo) ListCollections(ctx context.Context) ([]model.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Collection(nil), m.collections...), nil
}

func (m *memCatalogRepo) AddItem(ctx context.Context, it *model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.collections {
		if m.collections[i].ID == it.CollectionID {
			m.collections[i].Items = append(m.collections[i].Items, *it)
			return nil
		}
	}
	return repository.ErrCollectionNotFound
}

func (m *memCatalogRepo) DeleteItem(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.collections {
		items := m.collections[i].Items
		for j := range items {
			if items[j].ID == id {
				m.collections[i].Items = append(items[:j], items[j+1:]...)
				return nil
			}
		}
	}
	return repository.ErrItemNotFound
}

func (m *memCatalogRepo) IncrementVisits(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits[name]++
	return m.visits[name], nil
}

func (m *memCatalogRepo) GetVisits(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visits[name], nil
}
