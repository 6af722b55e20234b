package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// inventoryService implements InventoryService.
type inventoryService struct {
	txr    repository.Transactor
	engine StockEngine
	logger zerolog.Logger
}

// NewInventoryService creates a new inventory service.
func NewInventoryService(txr repository.Transactor, engine StockEngine, logger zerolog.Logger) InventoryService {
	return &inventoryService{
		txr:    txr,
		engine: engine,
		logger: logger.With().Str("service", "inventory").Logger(),
	}
}

// ReduceStock decrements stock for every item in one transaction.
func (s *inventoryService) ReduceStock(ctx context.Context, items []model.StockAdjustment) (*model.StockBatchResult, error) {
	return s.run(ctx, items, model.DirectionReduce)
}

// RestoreStock increments stock for every item in one transaction.
func (s *inventoryService) RestoreStock(ctx context.Context, items []model.StockAdjustment) (*model.StockBatchResult, error) {
	return s.run(ctx, items, model.DirectionRestore)
}

func (s *inventoryService) run(ctx context.Context, items []model.StockAdjustment, dir model.Direction) (result *model.StockBatchResult, err error) {
	if err := validateStockBatch(items); err != nil {
		s.logger.Warn().Err(err).Str("direction", string(dir)).Msg("invalid stock batch")
		return nil, err
	}

	tx, err := s.txr.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to %s stock: %w", dir, err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	result, err = applyStockBatch(ctx, tx, s.engine, items, dir)
	if err != nil {
		s.logger.Error().Err(err).Str("direction", string(dir)).Msg("stock batch aborted")
		return nil, err
	}

	if dir == model.DirectionReduce && len(result.Results) == 0 {
		s.logger.Warn().
			Int("item_count", len(items)).
			Msg("every item of the reduce batch failed")
		err = model.ErrStockBatchFailed.WithDetail(result.Errors)
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("direction", string(dir)).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to %s stock: %w", dir, err)
	}

	s.logger.Info().
		Str("direction", string(dir)).
		Int("applied", len(result.Results)).
		Int("failed", len(result.Errors)).
		Int("skipped", len(result.Skipped)).
		Msg("stock batch committed")

	return result, nil
}

// applyStockBatch runs every adjustment inside its own savepoint of tx so a
// failed item leaves neither its product row nor the outer transaction
// touched. Business failures are collected per item; on restore, unknown
// products are skipped. Any other error aborts the batch.
//
// Rows are locked in ascending product id so concurrent batches always take
// their locks in the same order. Results are reported in request order.
func applyStockBatch(ctx context.Context, tx pgx.Tx, engine StockEngine, items []model.StockAdjustment, dir model.Direction) (*model.StockBatchResult, error) {
	applied := make([]*model.AdjustmentResult, len(items))
	failures := make([]*model.AdjustmentFailure, len(items))
	skipped := make([]bool, len(items))

	for _, i := range lockOrder(items) {
		item := items[i]
		res, err := applyInSavepoint(ctx, tx, engine, item, dir)
		if err == nil {
			applied[i] = res
			continue
		}

		if dir == model.DirectionRestore && errors.Is(err, model.ErrProductNotFound) {
			skipped[i] = true
			continue
		}

		var de *model.DomainError
		if !errors.As(err, &de) {
			return nil, err
		}
		f := adjustmentFailure(i, item, de)
		failures[i] = &f
	}

	result := &model.StockBatchResult{
		Direction: dir,
		Results:   []model.AdjustmentResult{},
	}
	for i, item := range items {
		switch {
		case applied[i] != nil:
			result.Results = append(result.Results, *applied[i])
		case failures[i] != nil:
			result.Errors = append(result.Errors, *failures[i])
		case skipped[i]:
			result.Skipped = append(result.Skipped, item.ProductID)
		}
	}

	return result, nil
}

// lockOrder returns the item indexes sorted by product id. Items for the same
// product keep their request order.
func lockOrder(items []model.StockAdjustment) []int {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return items[order[a]].ProductID < items[order[b]].ProductID
	})
	return order
}

func applyInSavepoint(ctx context.Context, tx pgx.Tx, engine StockEngine, item model.StockAdjustment, dir model.Direction) (*model.AdjustmentResult, error) {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open savepoint: %w", err)
	}

	applied, err := engine.Apply(ctx, sp, item, dir)
	if err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return nil, fmt.Errorf("failed to rollback savepoint: %w", rbErr)
		}
		return nil, err
	}

	if err := sp.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to release savepoint: %w", err)
	}

	return applied, nil
}

func adjustmentFailure(index int, item model.StockAdjustment, de *model.DomainError) model.AdjustmentFailure {
	f := model.AdjustmentFailure{
		Index:     index,
		ProductID: item.ProductID,
		Size:      item.Size,
		Code:      de.Code,
		Message:   de.Message,
	}
	if shortage, ok := de.Detail.(model.StockShortage); ok {
		f.Available = &shortage.Available
		f.Requested = &shortage.Requested
	}
	return f
}

// validateStockBatch rejects empty or malformed batches before any
// transaction is opened.
func validateStockBatch(items []model.StockAdjustment) error {
	if len(items) == 0 {
		return model.ErrEmptyItems
	}

	for i, item := range items {
		if item.ProductID <= 0 {
			return model.InvalidArgument(model.ErrCodeMissingField, "item %d: productId is required", i)
		}
		if item.Quantity <= 0 {
			return model.InvalidArgument(model.ErrCodeInvalidQuantity, "item %d: quantity must be greater than zero", i)
		}
		if item.Quantity > math.MaxInt32 {
			return model.InvalidArgument(model.ErrCodeInvalidQuantity, "item %d: quantity must not exceed %d", i, math.MaxInt32)
		}
	}

	return nil
}
