package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/cursos-bot/internal/model"
	"github.com/mmeshcher/cursos-bot/internal/repository"
	"github.com/mmeshcher/cursos-bot/internal/service"
)

type createOrderRequest struct {
	ID            string           `json:"id"`
	ItemID        string           `json:"itemId"`
	Title         string           `json:"titulo"`
	Price         *decimal.Decimal `json:"precio"`
	PriceLabel    string           `json:"precioTexto"`
	Name          string           `json:"nombre"`
	Surname       string           `json:"apellido"`
	Email         string           `json:"correo"`
	Phone         string           `json:"telefono"`
	Channel       model.Channel    `json:"canal"`
	PaymentMethod string           `json:"metodoPago"`
	Proof         struct {
		Reference string `json:"referencia"`
		Date      string `json:"fecha"`
	} `json:"comprobante"`
}

// CreateOrder сохраняет заказ, отправленный формой сайта.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	o, err := h.services.Orders.Create(r.Context(), service.OrderInput{
		ID:            req.ID,
		ItemID:        req.ItemID,
		Title:         req.Title,
		Price:         req.Price,
		PriceLabel:    req.PriceLabel,
		Name:          req.Name,
		Surname:       req.Surname,
		Email:         req.Email,
		Phone:         req.Phone,
		Channel:       req.Channel,
		PaymentMethod: req.PaymentMethod,
		Proof:         model.PaymentProof{Reference: req.Proof.Reference, Date: req.Proof.Date},
	})
	if err != nil {
		h.writeServiceError(w, err, zap.String("order", req.ID))
		return
	}

	h.logger.Info("order created", zap.String("order", o.ID), zap.String("channel", string(o.Channel)))
	h.writeJSON(w, http.StatusCreated, o)
}

type publicOrder struct {
	ID         string            `json:"id"`
	Title      string            `json:"titulo"`
	PriceLabel string            `json:"precioTexto"`
	Status     model.OrderStatus `json:"estado"`
	Confirmed  bool              `json:"confirmado"`
	CreatedAt  string            `json:"createdAt"`
}

// ListPublicOrders возвращает заказы без персональных данных покупателей.
func (h *Handler) ListPublicOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.services.Orders.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := make([]publicOrder, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, publicOrder{
			ID:         o.ID,
			Title:      o.Title,
			PriceLabel: o.PriceLabel,
			Status:     o.Status,
			Confirmed:  o.Confirmed,
			CreatedAt:  o.CreatedAt.Format(time.RFC3339),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// ConfirmOrder отмечает заказ подтверждённым покупателем.
func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := h.services.Orders.Confirm(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, zap.String("order", id))
		return
	}

	h.writeJSON(w, http.StatusOK, o)
}

// ListOrders возвращает все заказы, начиная с новых.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.services.Orders.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	h.writeJSON(w, http.StatusOK, orders)
}

// GetOrder возвращает заказ по идентификатору.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := h.services.Orders.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, zap.String("order", id))
		return
	}

	h.writeJSON(w, http.StatusOK, o)
}

type updateStatusRequest struct {
	Status model.OrderStatus `json:"estado"`
}

// UpdateOrderStatus меняет статус заказа. Переход в payment_verified запускает
// подтверждение оплаты; если с заказом не связан контакт, статус меняется напрямую.
// Повторный запрос payment_verified для уже подтверждённого заказа снова запускает
// подтверждение, чтобы доставить доступ после неудачной отправки.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Status = model.OrderStatus(strings.TrimSpace(string(req.Status)))
	if req.Status == "" {
		h.writeError(w, http.StatusBadRequest, "estado: required")
		return
	}

	if req.Status == model.OrderStatusPaymentVerified && h.services.Verifier != nil {
		current, err := h.services.Orders.Get(r.Context(), id)
		if err != nil {
			h.writeServiceError(w, err, zap.String("order", id))
			return
		}

		switch current.Status {
		case model.OrderStatusPending, model.OrderStatusPaymentVerified:
			_, err := h.services.Verifier.Verify(r.Context(), id)
			switch {
			case err == nil:
				h.respondOrder(w, r, id)
				return
			case !errors.Is(err, repository.ErrLeadNotFound) && !errors.Is(err, repository.ErrAlreadyVerified):
				h.writeServiceError(w, err, zap.String("order", id))
				return
			case current.Status == model.OrderStatusPaymentVerified:
				h.logger.Info("order already verified", zap.String("order", id), zap.Error(err))
				h.writeJSON(w, http.StatusOK, current)
				return
			}
			h.logger.Info("verification skipped, updating status only", zap.String("order", id), zap.Error(err))
		}
	}

	o, err := h.services.Orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeServiceError(w, err, zap.String("order", id), zap.String("status", string(req.Status)))
		return
	}

	h.logger.Info("order status updated", zap.String("order", id), zap.String("status", string(o.Status)))
	h.writeJSON(w, http.StatusOK, o)
}

func (h *Handler) respondOrder(w http.ResponseWriter, r *http.Request, id string) {
	o, err := h.services.Orders.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, zap.String("order", id))
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

// VerifyOrder запускает подтверждение оплаты покупки. Вызов можно повторять,
// пока сообщение с доступом не доставлено.
func (h *Handler) VerifyOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := h.services.Verifier.Verify(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, zap.String("order", id))
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}

// ListPendingLeads возвращает контакты, ожидающие подтверждения оплаты.
func (h *Handler) ListPendingLeads(w http.ResponseWriter, r *http.Request) {
	h.listLeads(w, r, model.PaymentStatusPending)
}

// ListVerifiedLeads возвращает контакты с подтверждённой оплатой.
func (h *Handler) ListVerifiedLeads(w http.ResponseWriter, r *http.Request) {
	h.listLeads(w, r, model.PaymentStatusVerified)
}

func (h *Handler) listLeads(w http.ResponseWriter, r *http.Request, status model.PaymentStatus) {
	leads, err := h.services.Leads.ListByPaymentStatus(r.Context(), status)
	if err != nil {
		h.writeServiceError(w, err, zap.String("paymentStatus", string(status)))
		return
	}

	h.writeJSON(w, http.StatusOK, leads)
}
