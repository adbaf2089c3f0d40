// Package handler содержит HTTP-обработчики API сервиса продажи курсов.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/cursos-bot/internal/chat"
	"github.com/mmeshcher/cursos-bot/internal/middleware"
	"github.com/mmeshcher/cursos-bot/internal/model"
	"github.com/mmeshcher/cursos-bot/internal/rates"
	"github.com/mmeshcher/cursos-bot/internal/repository"
	"github.com/mmeshcher/cursos-bot/internal/service"
)

// OrderService определяет операции с заказами, доступные через HTTP.
type OrderService interface {
	Create(ctx context.Context, in service.OrderInput) (*model.Order, error)
	Get(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	Confirm(ctx context.Context, id string) (*model.Order, error)
	UpdateStatus(ctx context.Context, id string, to model.OrderStatus) (*model.Order, error)
}

// LeadService возвращает контакты по статусу оплаты.
type LeadService interface {
	ListByPaymentStatus(ctx context.Context, status model.PaymentStatus) ([]model.Lead, error)
}

// Verifier запускает подтверждение оплаты.
type Verifier interface {
	Verify(ctx context.Context, orderID string) (*service.VerificationResult, error)
}

// CatalogService управляет каталогом и счётчиком посещений.
type CatalogService interface {
	CreateCollection(ctx context.Context, name string) (*model.Collection, error)
	Collections(ctx context.Context) ([]model.Collection, error)
	AddItem(ctx context.Context, collectionID string, in service.ItemInput) (*model.Item, error)
	DeleteItem(ctx context.Context, id string) error
	RecordVisit(ctx context.Context, name string) (int64, error)
	Visits(ctx context.Context, name string) (int64, error)
}

// RateService возвращает курс валюты.
type RateService interface {
	Rate(ctx context.Context, currency string) (model.ExchangeRate, error)
}

// MessageHandler обрабатывает входящее сообщение чата.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg chat.Message) (service.Outcome, error)
}

// Services объединяет зависимости обработчиков. Rates и Bot могут быть nil,
// тогда соответствующие маршруты отвечают 503.
type Services struct {
	Orders   OrderService
	Leads    LeadService
	Verifier Verifier
	Catalog  CatalogService
	Rates    RateService
	Bot      MessageHandler
}

// Options задаёт учётные данные администратора и токен вебхука.
type Options struct {
	AdminUser     string
	AdminPassword string
	WebhookToken  string
}

// Handler реализует HTTP-обработчики API.
type Handler struct {
	services       Services
	options        Options
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Services, opts Options, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		services:       s,
		options:        opts,
		logger:         logger,
		authMiddleware: auth,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError переводит ошибку сервисного слоя в HTTP-ответ.
// Внутренние ошибки журналируются, клиент получает только текст статуса.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fields ...zap.Field) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, repository.ErrInvalidPrice):
		h.writeError(w, http.StatusBadRequest, "precio: cannot be stored")
	case errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrLeadNotFound),
		errors.Is(err, repository.ErrItemNotFound),
		errors.Is(err, repository.ErrCollectionNotFound):
		h.writeError(w, http.StatusNotFound, notFoundMessage(err))
	case errors.Is(err, repository.ErrOrderExists),
		errors.Is(err, repository.ErrAlreadyVerified),
		errors.Is(err, repository.ErrOrderStatusChanged):
		h.writeError(w, http.StatusConflict, conflictMessage(err))
	case errors.Is(err, chat.ErrSendFailed), errors.Is(err, chat.ErrNoActiveSession):
		h.logger.Error("chat delivery failed", append(fields, zap.Error(err))...)
		h.writeError(w, http.StatusBadGateway, "chat message not delivered")
	case errors.Is(err, rates.ErrUnknownCurrency):
		h.writeError(w, http.StatusNotFound, "unknown currency")
	case errors.Is(err, rates.ErrUnavailable):
		h.logger.Warn("exchange rates unavailable", append(fields, zap.Error(err))...)
		h.writeError(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable))
	default:
		h.logger.Error("request failed", append(fields, zap.Error(err))...)
		h.writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		return "order not found"
	case errors.Is(err, repository.ErrLeadNotFound):
		return "no lead linked to this order"
	case errors.Is(err, repository.ErrCollectionNotFound):
		return "collection not found"
	default:
		return "item not found"
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, repository.ErrOrderExists):
		return "order already exists"
	case errors.Is(err, repository.ErrAlreadyVerified):
		return "payment already verified"
	default:
		return "order status changed concurrently"
	}
}
