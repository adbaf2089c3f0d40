package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mmeshcher/cursos-bot/internal/model"
	"github.com/mmeshcher/cursos-bot/internal/repository"
)

type memLeads struct {
	mu     sync.Mutex
	leads  map[string]*model.Lead
	writes int

	failUpsert error
	failFind   error
}

func newMemLeads(leads ...model.Lead) *memLeads {
	m := &memLeads{leads: make(map[string]*model.Lead)}
	for i := range leads {
		l := leads[i]
		m.leads[l.Phone] = &l
	}
	return m
}

func (m *memLeads) get(phone string) (model.Lead, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[phone]
	if !ok {
		return model.Lead{}, false
	}
	return *l, true
}

func (m *memLeads) FindLead(ctx context.Context, phone string) (*model.Lead, error) {
	if m.failFind != nil {
		return nil, m.failFind
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[phone]
	if !ok {
		return nil, repository.ErrLeadNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memLeads) FindLeadByOrderID(ctx context.Context, orderID string) (*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if l.OrderID == orderID || l.ProductPurchased == orderID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, repository.ErrLeadNotFound
}

func (m *memLeads) UpsertLead(ctx context.Context, phone string, p model.LeadPatch) (*model.Lead, bool, error) {
	if m.failUpsert != nil {
		return nil, false, m.failUpsert
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.leads[phone]; ok {
		cp := *l
		return &cp, false, nil
	}
	l := &model.Lead{Phone: phone, Name: model.DefaultLeadName, PaymentStatus: model.PaymentStatusPending}
	applyPatch(l, p)
	m.leads[phone] = l
	m.writes++
	cp := *l
	return &cp, true, nil
}

func (m *memLeads) UpdateLeadFields(ctx context.Context, phone string, p model.LeadPatch) (*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[phone]
	if !ok {
		l = &model.Lead{Phone: phone, Name: model.DefaultLeadName, PaymentStatus: model.PaymentStatusPending}
		m.leads[phone] = l
	}
	applyPatch(l, p)
	m.writes++
	cp := *l
	return &cp, nil
}

func (m *memLeads) MarkVerified(ctx context.Context, phone string, v model.Verification) (*model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[phone]
	if !ok {
		return nil, repository.ErrLeadNotFound
	}
	if l.PaymentStatus != model.PaymentStatusPending && l.AccessNotifiedAt != nil {
		return nil, repository.ErrAlreadyVerified
	}
	l.PaymentStatus = model.PaymentStatusVerified
	if v.ProductLabel != "" {
		l.ProductPurchased = v.ProductLabel
	}
	l.AccessPassword = v.Password
	l.AccessNotifiedAt = nil
	m.writes++
	cp := *l
	return &cp, nil
}

func (m *memLeads) MarkAccessNotified(ctx context.Context, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[phone]
	if !ok {
		return repository.ErrLeadNotFound
	}
	now := time.Now()
	l.AccessNotifiedAt = &now
	m.writes++
	return nil
}

func (m *memLeads) AppendInteraction(ctx context.Context, phone string, in model.Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[phone]
	if !ok {
		return repository.ErrLeadNotFound
	}
	l.History = append(l.History, in)
	if len(l.History) > model.MaxInteractions {
		l.History = l.History[len(l.History)-model.MaxInteractions:]
	}
	l.Emotion, l.LastIntent = in.Emotion, in.Intent
	m.writes++
	return nil
}

func (m *memLeads) ListLeadsByPaymentStatus(ctx context.Context, status model.PaymentStatus) ([]model.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []model.Lead
	for _, l := range m.leads {
		if l.PaymentStatus == status {
			res = append(res, *l)
		}
	}
	return res, nil
}

func applyPatch(l *model.Lead, p model.LeadPatch) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&l.Name, p.Name)
	set(&l.LastMessage, p.LastMessage)
	set(&l.Emotion, p.Emotion)
	set(&l.LastIntent, p.LastIntent)
	set(&l.ProductOfInterest, p.ProductOfInterest)
	set(&l.ProductPurchased, p.ProductPurchased)
	set(&l.OrderID, p.OrderID)
	set(&l.PaymentProof, p.PaymentProof)
	set(&l.PaymentMethod, p.PaymentMethod)
	set(&l.Email, p.Email)
	set(&l.Surname, p.Surname)
	set(&l.Language, p.Language)
	if p.LastSeen != nil {
		l.LastSeen = *p.LastSeen
	}
	if p.PaymentStatus != nil {
		l.PaymentStatus = *p.PaymentStatus
	}
	if p.AwaitingProof != nil {
		l.AwaitingProof = *p.AwaitingProof
	}
	if p.AwaitingPaymentMethod != nil {
		l.AwaitingPaymentMethod = *p.AwaitingPaymentMethod
	}
}

type memOrders struct {
	mu     sync.Mutex
	orders map[string]*model.Order
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[string]*model.Order)}
}

func (m *memOrders) CreateOrder(ctx context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; ok {
		return repository.ErrOrderExists
	}
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrders) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) ListOrders(ctx context.Context) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []model.Order
	for _, o := range m.orders {
		res = append(res, *o)
	}
	return res, nil
}

func (m *memOrders) UpdateOrderStatus(ctx context.Context, id string, from, to model.OrderStatus) (*model.Order, error) {
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
	o.UpdatedAt = time.Now()
	cp := *o
	return &cp, nil
}

func (m *memOrders) ConfirmOrder(ctx context.Context, id string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	o.Confirmed = true
	cp := *o
	return &cp, nil
}

type sentMessage struct {
	To   string
	Text string
}

type stubSender struct {
	mu    sync.Mutex
	sent  []sentMessage
	err   error
	delay time.Duration
}

func (s *stubSender) Send(ctx context.Context, to, text string) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{To: to, Text: text})
	return nil
}

func (s *stubSender) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

type fixedPassword string

func (p fixedPassword) Generate(seed string) string {
	return string(p)
}

var errStorage = errors.New("storage down")
