package service

import (
	"context"
	"fmt"

	"github.com/mmeshcher/cursos-bot/internal/model"
)

// LeadRepository описывает хранилище контактов чата.
type LeadRepository interface {
	FindLead(ctx context.Context, phone string) (*model.Lead, error)
	FindLeadByOrderID(ctx context.Context, orderID string) (*model.Lead, error)
	UpsertLead(ctx context.Context, phone string, p model.LeadPatch) (*model.Lead, bool, error)
	UpdateLeadFields(ctx context.Context, phone string, p model.LeadPatch) (*model.Lead, error)
	MarkVerified(ctx context.Context, phone string, v model.Verification) (*model.Lead, error)
	MarkAccessNotified(ctx context.Context, phone string) error
	AppendInteraction(ctx context.Context, phone string, in model.Interaction) error
	ListLeadsByPaymentStatus(ctx context.Context, status model.PaymentStatus) ([]model.Lead, error)
}

// Leads предоставляет административное чтение контактов.
type Leads struct {
	repo LeadRepository
}

// NewLeads создаёт сервис контактов.
func NewLeads(repo LeadRepository) *Leads {
	return &Leads{repo: repo}
}

// ListByPaymentStatus возвращает контакты с указанным статусом оплаты.
func (s *Leads) ListByPaymentStatus(ctx context.Context, status model.PaymentStatus) ([]model.Lead, error) {
	switch status {
	case model.PaymentStatusPending, model.PaymentStatusVerified:
	default:
		return nil, invalid("estadoPago", fmt.Sprintf("unknown payment status %q", status))
	}

	leads, err := s.repo.ListLeadsByPaymentStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	return leads, nil
}
