package handler

import (
	"context"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	created, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /api/orders/{ref} requests.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetByRef(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PUT /api/orders/{ref} and
// PUT /api/admin/orders/{ref}/status requests.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req model.StatusUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "ref"), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateTracking handles PUT /api/admin/orders/{ref}/tracking requests.
func (h *OrderHandler) UpdateTracking(w http.ResponseWriter, r *http.Request) {
	var req model.TrackingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.UpdateTracking(r.Context(), chi.URLParam(r, "ref"), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Delete handles DELETE /api/orders/{ref} requests.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.service.DeleteOrder)
}

// SoftDelete handles DELETE /api/admin/orders/{ref} requests.
func (h *OrderHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.service.SoftDeleteOrder)
}

// Purge handles DELETE /api/admin/orders/{ref}/purge requests.
func (h *OrderHandler) Purge(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.service.PurgeOrder)
}

func (h *OrderHandler) remove(
	w http.ResponseWriter,
	r *http.Request,
	del func(context.Context, string) (*model.DeleteResponse, error),
) {
	resp, err := del(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
