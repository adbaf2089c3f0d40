package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/cursos-bot/internal/service"
)

// ListCollections возвращает каталог.
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	res, err := h.services.Catalog.Collections(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}

type collectionRequest struct {
	Name string `json:"nombre"`
}

// CreateCollection создаёт коллекцию каталога.
func (h *Handler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c, err := h.services.Catalog.CreateCollection(r.Context(), req.Name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, c)
}

type itemRequest struct {
	Name        string           `json:"nombre"`
	Description string           `json:"descripcion"`
	Price       *decimal.Decimal `json:"precio"`
	Image       string           `json:"imagen"`
}

// AddItem добавляет товар в коллекцию.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "id")

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	it, err := h.services.Catalog.AddItem(r.Context(), collectionID, service.ItemInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
	})
	if err != nil {
		h.writeServiceError(w, err, zap.String("collection", collectionID))
		return
	}

	h.writeJSON(w, http.StatusCreated, it)
}

// DeleteItem удаляет товар.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.services.Catalog.DeleteItem(r.Context(), id); err != nil {
		h.writeServiceError(w, err, zap.String("item", id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type visitsResponse struct {
	Name  string `json:"nombre"`
	Count int64  `json:"visitas"`
}

// RecordVisit увеличивает счётчик посещений.
func (h *Handler) RecordVisit(w http.ResponseWriter, r *http.Request) {
	name := counterName(r)

	n, err := h.services.Catalog.RecordVisit(r.Context(), name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, visitsResponse{Name: name, Count: n})
}

// GetVisits возвращает значение счётчика посещений.
func (h *Handler) GetVisits(w http.ResponseWriter, r *http.Request) {
	name := counterName(r)

	n, err := h.services.Catalog.Visits(r.Context(), name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, visitsResponse{Name: name, Count: n})
}

func counterName(r *http.Request) string {
	if name := strings.TrimSpace(r.URL.Query().Get("nombre")); name != "" {
		return name
	}
	return service.DefaultVisitCounter
}

// GetRate возвращает курс валюты к доллару.
func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	if h.services.Rates == nil {
		h.writeError(w, http.StatusServiceUnavailable, "exchange rates disabled")
		return
	}

	currency := strings.TrimSpace(r.URL.Query().Get("moneda"))
	if currency == "" {
		h.writeError(w, http.StatusBadRequest, "moneda: required")
		return
	}

	rate, err := h.services.Rates.Rate(r.Context(), currency)
	if err != nil {
		h.writeServiceError(w, err, zap.String("currency", currency))
		return
	}

	h.writeJSON(w, http.StatusOK, rate)
}
