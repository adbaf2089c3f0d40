package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/cursos-bot/internal/model"
	"github.com/mmeshcher/cursos-bot/internal/repository"
	"github.com/mmeshcher/cursos-bot/internal/validation"
)

// OrderRepository описывает хранилище заказов.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, from, to model.OrderStatus) (*model.Order, error)
	ConfirmOrder(ctx context.Context, id string) (*model.Order, error)
}

// ItemLookup находит товар каталога, из которого берутся название и цена заказа.
type ItemLookup interface {
	GetItem(ctx context.Context, id string) (*model.Item, error)
}

// OrderInput содержит данные для создания заказа.
type OrderInput struct {
	ID            string
	ItemID        string
	Title         string
	Price         *decimal.Decimal
	PriceLabel    string
	Name          string
	Surname       string
	Email         string
	Phone         string
	Channel       model.Channel
	PaymentMethod string
	Proof         model.PaymentProof
}

// Orders реализует правила хранения заказов и переходов между статусами.
type Orders struct {
	repo   OrderRepository
	items  ItemLookup
	strict bool
	newID  func() string
}

// NewOrders создаёт сервис заказов. При strict == true переходы статусов проверяются
// по таблице transitions.
func NewOrders(repo OrderRepository, items ItemLookup, strict bool) *Orders {
	return &Orders{
		repo:   repo,
		items:  items,
		strict: strict,
		newID:  uuid.NewString,
	}
}

// Create проверяет и сохраняет новый заказ в статусе pending.
func (s *Orders) Create(ctx context.Context, in OrderInput) (*model.Order, error) {
	if in.ItemID != "" && s.items != nil {
		item, err := s.items.GetItem(ctx, in.ItemID)
		if err != nil {
			if errors.Is(err, repository.ErrItemNotFound) {
				return nil, invalid("itemId", "unknown item")
			}
			return nil, fmt.Errorf("lookup item: %w", err)
		}
		if strings.TrimSpace(in.Title) == "" {
			in.Title = item.Name
		}
		if in.Price == nil {
			in.Price = &item.Price
		}
	}

	o, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Orders) normalize(in OrderInput) (*model.Order, error) {
	o := &model.Order{
		ID:            strings.TrimSpace(in.ID),
		Title:         strings.TrimSpace(in.Title),
		PriceLabel:    strings.TrimSpace(in.PriceLabel),
		Name:          strings.TrimSpace(in.Name),
		Surname:       strings.TrimSpace(in.Surname),
		Email:         validation.NormalizeEmail(in.Email),
		Phone:         validation.NormalizePhone(in.Phone),
		Channel:       in.Channel,
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		Proof: model.PaymentProof{
			Reference: strings.TrimSpace(in.Proof.Reference),
			Date:      strings.TrimSpace(in.Proof.Date),
		},
		Status: model.OrderStatusPending,
	}

	if o.Title == "" {
		return nil, invalid("titulo", "required")
	}
	if verr := checkPrice(in.Price); verr != nil {
		return nil, verr
	}

	switch {
	case o.Name == "":
		return nil, invalid("nombre", "required")
	case o.Surname == "":
		return nil, invalid("apellido", "required")
	case o.Email == "":
		return nil, invalid("correo", "required")
	case !validation.IsValidEmail(o.Email):
		return nil, invalid("correo", "invalid email")
	}

	if o.ID == "" {
		o.ID = s.newID()
	} else if !validation.IsValidOrderID(o.ID) {
		return nil, invalid("id", "invalid order id")
	}

	switch o.Channel {
	case "":
		o.Channel = model.ChannelWeb
	case model.ChannelWeb, model.ChannelChat, model.ChannelOther:
	default:
		return nil, invalid("canal", "unknown channel")
	}

	o.Price = *in.Price
	if o.PriceLabel == "" {
		o.PriceLabel = o.Price.StringFixed(2) + " USD"
	}

	return o, nil
}

// Get возвращает заказ по идентификатору.
func (s *Orders) Get(ctx context.Context, id string) (*model.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// List возвращает все заказы, начиная с новых.
func (s *Orders) List(ctx context.Context) ([]model.Order, error) {
	return s.repo.ListOrders(ctx)
}

// Confirm отмечает заказ подтверждённым.
func (s *Orders) Confirm(ctx context.Context, id string) (*model.Order, error) {
	return s.repo.ConfirmOrder(ctx, id)
}

// UpdateStatus переводит заказ в новый статус с проверкой допустимости перехода.
func (s *Orders) UpdateStatus(ctx context.Context, id string, to model.OrderStatus) (*model.Order, error) {
	if !to.Valid() {
		return nil, invalid("estado", fmt.Sprintf("unknown status %q", to))
	}

	current, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.Advance(ctx, id, current.Status, to)
}

// Advance переводит заказ из статуса from в to, если переход допустим и статус
// не изменился параллельно.
func (s *Orders) Advance(ctx context.Context, id string, from, to model.OrderStatus) (*model.Order, error) {
	if !CanTransition(from, to, s.strict) {
		return nil, invalid("estado", fmt.Sprintf("transition from %s to %s is not allowed", from, to))
	}
	return s.repo.UpdateOrderStatus(ctx, id, from, to)
}
