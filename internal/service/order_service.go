package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// maxOrderTokenAttempts bounds the retries on an order token collision.
const maxOrderTokenAttempts = 3

// orderService implements OrderService.
type orderService struct {
	txr       repository.Transactor
	orderRepo repository.OrderRepository
	engine    StockEngine
	recorder  metrics.Recorder
	now       func() time.Time
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	txr repository.Transactor,
	orderRepo repository.OrderRepository,
	engine StockEngine,
	recorder metrics.Recorder,
	logger zerolog.Logger,
) OrderService {
	if recorder == nil {
		recorder = metrics.Nop()
	}
	return &orderService{
		txr:       txr,
		orderRepo: orderRepo,
		engine:    engine,
		recorder:  recorder,
		now:       time.Now,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder stores a new order in pending status unless the caller asked
// for another one.
func (s *orderService) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderCreatedResponse, error) {
	// Validate request
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	status := req.Status
	if status == "" {
		status = model.StatusPending
	}

	items := req.Items
	if items == nil {
		items = []model.OrderItem{}
	}

	order := &model.Order{
		UserID:     *req.UserID,
		Name:       strings.TrimSpace(req.Name),
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Notes:      req.Notes,
		TotalItems: req.TotalItems,
		TotalPrice: *req.TotalPrice,
		Status:     status,
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if status.MarksPayment() {
		order.PaidAt = &now
	}

	var err error
	for attempt := 1; attempt <= maxOrderTokenAttempts; attempt++ {
		order.OrderID = model.NewOrderToken(now)
		err = s.orderRepo.Create(ctx, order)
		if !errors.Is(err, model.ErrDuplicateOrderID) {
			break
		}
		s.logger.Warn().
			Str("order_id", order.OrderID).
			Int("attempt", attempt).
			Msg("order token collision, regenerating")
	}
	if err != nil {
		if errors.Is(err, model.ErrDuplicateOrderID) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("user_id", order.UserID).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.recorder.RecordOrderEvent("created")
	s.logger.Info().
		Int64("id", order.ID).
		Str("order_id", order.OrderID).
		Int("item_count", len(order.Items)).
		Msg("order created successfully")

	return &model.OrderCreatedResponse{
		ID:      order.ID,
		OrderID: order.OrderID,
		Status:  order.Status,
	}, nil
}

// GetByRef retrieves an order by numeric ID or public order ID.
func (s *orderService) GetByRef(ctx context.Context, ref string) (*model.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, model.ErrOrderNotFound
	}

	order, err := s.orderRepo.GetByRef(ctx, ref)
	if err != nil {
		s.logger.Error().Err(err).Str("ref", ref).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Str("ref", ref).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// UpdateStatus moves an order to a new status. Entering paid or completed
// stamps paid_at unless it is already set. Deleted orders cannot move.
func (s *orderService) UpdateStatus(ctx context.Context, ref string, req *model.StatusUpdateRequest) (*model.Order, error) {
	if req == nil || !req.Status.Valid() {
		return nil, model.ErrInvalidStatus
	}

	return s.transition(ctx, ref, func(current *model.Order, now time.Time) (model.OrderChanges, error) {
		if current.Status == model.StatusDeleted {
			return model.OrderChanges{}, model.ErrOrderDeleted
		}
		changes := model.OrderChanges{
			Status:         req.Status,
			PaymentMethod:  req.PaymentMethod,
			ShippingMethod: req.ShippingMethod,
			UpdatedAt:      now,
		}
		if req.Status.MarksPayment() {
			changes.PaidAt = &now
		}
		return changes, nil
	})
}

// UpdateTracking records a tracking number and moves the order to the given
// status, shipping by default.
func (s *orderService) UpdateTracking(ctx context.Context, ref string, req *model.TrackingRequest) (*model.Order, error) {
	if req == nil || strings.TrimSpace(req.TrackingNumber) == "" {
		return nil, model.InvalidArgument(model.ErrCodeMissingField, "trackingNumber is required")
	}

	status := req.Status
	if status == "" {
		status = model.StatusShipping
	}
	if !status.Valid() {
		return nil, model.ErrInvalidStatus
	}

	tracking := strings.TrimSpace(req.TrackingNumber)
	return s.transition(ctx, ref, func(current *model.Order, now time.Time) (model.OrderChanges, error) {
		if current.Status == model.StatusDeleted {
			return model.OrderChanges{}, model.ErrOrderDeleted
		}
		changes := model.OrderChanges{
			Status:         status,
			TrackingNumber: &tracking,
			UpdatedAt:      now,
		}
		if status.MarksPayment() {
			changes.PaidAt = &now
		}
		return changes, nil
	})
}

// SoftDeleteOrder marks an order as deleted. The row and its stock are left
// in place.
func (s *orderService) SoftDeleteOrder(ctx context.Context, ref string) (*model.DeleteResponse, error) {
	order, err := s.transition(ctx, ref, func(current *model.Order, now time.Time) (model.OrderChanges, error) {
		if current.Status == model.StatusDeleted {
			return model.OrderChanges{}, model.ErrOrderDeleted
		}
		return model.OrderChanges{Status: model.StatusDeleted, UpdatedAt: now}, nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.RecordOrderEvent("soft_deleted")

	return &model.DeleteResponse{
		DeletedID: order.ID,
		OrderID:   order.OrderID,
		Soft:      true,
	}, nil
}

// DeleteOrder hard-deletes a pending, cancelled or failed order.
func (s *orderService) DeleteOrder(ctx context.Context, ref string) (*model.DeleteResponse, error) {
	return s.delete(ctx, ref, false)
}

// PurgeOrder hard-deletes an order regardless of its status.
func (s *orderService) PurgeOrder(ctx context.Context, ref string) (*model.DeleteResponse, error) {
	return s.delete(ctx, ref, true)
}

func (s *orderService) delete(ctx context.Context, ref string, force bool) (resp *model.DeleteResponse, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, model.ErrOrderNotFound
	}

	tx, err := s.txr.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to delete order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err := s.orderRepo.LockByRef(ctx, tx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to delete order: %w", err)
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}

	if !force && !order.Status.Deletable() {
		s.logger.Warn().
			Str("order_id", order.OrderID).
			Str("status", string(order.Status)).
			Msg("order is not deletable")
		err = model.ErrOrderNotDeletable.WithDetail(map[string]string{"status": string(order.Status)})
		return nil, err
	}

	resp = &model.DeleteResponse{DeletedID: order.ID, OrderID: order.OrderID}

	if order.Status == model.StatusPaid && len(order.Items) > 0 {
		adjustments := make([]model.StockAdjustment, len(order.Items))
		for i, item := range order.Items {
			adjustments[i] = item.Adjustment()
		}

		restored, batchErr := applyStockBatch(ctx, tx, s.engine, adjustments, model.DirectionRestore)
		if batchErr != nil {
			err = batchErr
			s.logger.Error().Err(err).Str("order_id", order.OrderID).Msg("failed to restore stock of deleted order")
			return nil, fmt.Errorf("failed to restore stock: %w", err)
		}
		resp.StockRestored = restored.Results

		for _, failure := range restored.Errors {
			s.logger.Warn().
				Str("order_id", order.OrderID).
				Int64("product_id", failure.ProductID).
				Str("code", failure.Code).
				Msg("line item stock not restored")
		}
	}

	if err = s.orderRepo.Delete(ctx, tx, order.ID); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.OrderID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to delete order: %w", err)
	}

	event := "deleted"
	if force {
		event = "purged"
	}
	s.recorder.RecordOrderEvent(event)
	s.logger.Info().
		Str("order_id", order.OrderID).
		Str("status", string(order.Status)).
		Bool("force", force).
		Int("restored_items", len(resp.StockRestored)).
		Msg("order deleted")

	return resp, nil
}

// transition locks the order, asks build for the changes to write and
// persists them in one transaction.
func (s *orderService) transition(
	ctx context.Context,
	ref string,
	build func(current *model.Order, now time.Time) (model.OrderChanges, error),
) (updated *model.Order, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, model.ErrOrderNotFound
	}

	tx, err := s.txr.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	current, err := s.orderRepo.LockByRef(ctx, tx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if current == nil {
		err = model.ErrOrderNotFound
		return nil, err
	}

	changes, err := build(current, s.now())
	if err != nil {
		return nil, err
	}

	updated, err = s.orderRepo.ApplyChanges(ctx, tx, current.ID, changes)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", current.OrderID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.recorder.RecordOrderEvent("status_" + string(changes.Status))
	s.logger.Info().
		Str("order_id", current.OrderID).
		Str("from", string(current.Status)).
		Str("to", string(updated.Status)).
		Msg("order status updated")

	return updated, nil
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.InvalidArgument(model.ErrCodeMissingField, "order request is required")
	}

	var missing []string
	if req.UserID == nil || *req.UserID <= 0 {
		missing = append(missing, "userId")
	}
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if req.TotalPrice == nil || *req.TotalPrice <= 0 {
		missing = append(missing, "totalPrice")
	}
	if len(missing) > 0 {
		s.logger.Warn().Strs("fields", missing).Msg("order request is missing required fields")
		return model.InvalidArgument(model.ErrCodeMissingField, "Missing required fields: %s", strings.Join(missing, ", ")).
			WithDetail(map[string][]string{"fields": missing})
	}

	if req.Status != "" && !req.Status.Valid() {
		return model.ErrInvalidStatus
	}

	if req.TotalItems < 0 {
		return model.InvalidArgument(model.ErrCodeInvalidQuantity, "totalItems must not be negative")
	}

	// Validate each item
	for i, item := range req.Items {
		if item.ProductID <= 0 {
			return model.InvalidArgument(model.ErrCodeMissingField, "item %d: productId is required", i)
		}

		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Int64("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}

	return nil
}
