package handler

import (
	"context"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// InventoryHandler handles batch stock adjustments.
type InventoryHandler struct {
	service service.InventoryService
	logger  zerolog.Logger
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(service service.InventoryService, logger zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		logger:  logger.With().Str("handler", "inventory").Logger(),
	}
}

// ReduceStock handles POST /api/inventory/reduce-stock requests.
func (h *InventoryHandler) ReduceStock(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.service.ReduceStock)
}

// RestoreStock handles POST /api/inventory/restore-stock requests.
func (h *InventoryHandler) RestoreStock(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.service.RestoreStock)
}

func (h *InventoryHandler) adjust(
	w http.ResponseWriter,
	r *http.Request,
	apply func(context.Context, []model.StockAdjustment) (*model.StockBatchResult, error),
) {
	var req model.StockBatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	result, err := apply(r.Context(), req.Items)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	h.logger.Info().
		Str("direction", string(result.Direction)).
		Int("applied", len(result.Results)).
		Int("failed", len(result.Errors)).
		Int("skipped", len(result.Skipped)).
		Msg("stock batch processed")

	writeJSON(w, http.StatusOK, result)
}
