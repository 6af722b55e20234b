package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// stockEngine implements StockEngine.
type stockEngine struct {
	productRepo repository.ProductRepository
	recorder    metrics.Recorder
	logger      zerolog.Logger
}

// NewStockEngine creates the stock adjustment engine.
func NewStockEngine(productRepo repository.ProductRepository, recorder metrics.Recorder, logger zerolog.Logger) StockEngine {
	if recorder == nil {
		recorder = metrics.Nop()
	}
	return &stockEngine{
		productRepo: productRepo,
		recorder:    recorder,
		logger:      logger.With().Str("service", "stock").Logger(),
	}
}

// Apply locks the product row, computes the adjusted stock and writes it back.
// The row lock is held until tx ends, which serialises concurrent adjustments
// of the same product.
func (e *stockEngine) Apply(ctx context.Context, tx pgx.Tx, adj model.StockAdjustment, dir model.Direction) (*model.AdjustmentResult, error) {
	if adj.Quantity <= 0 {
		e.recorder.RecordStockAdjustment(string(dir), metrics.OutcomeRejected)
		return nil, model.ErrInvalidQuantity
	}

	product, err := e.productRepo.LockForUpdate(ctx, tx, adj.ProductID)
	if err != nil {
		e.recorder.RecordStockAdjustment(string(dir), metrics.OutcomeError)
		return nil, fmt.Errorf("failed to read product %d: %w", adj.ProductID, err)
	}
	if product == nil {
		e.recorder.RecordStockAdjustment(string(dir), metrics.OutcomeNotFound)
		return nil, model.ErrProductNotFound
	}

	outcome, err := product.Apply(adj.Size, adj.Quantity, dir)
	if err != nil {
		var de *model.DomainError
		if errors.As(err, &de) && de.Kind == model.KindInsufficientStock {
			if shortage, ok := de.Detail.(model.StockShortage); ok {
				shortage.ProductID = product.ID
				err = model.InsufficientStock(shortage)
			}
			e.recorder.RecordStockAdjustment(string(dir), metrics.OutcomeInsufficient)
			e.logger.Debug().
				Int64("product_id", product.ID).
				Str("size", adj.Size).
				Int("requested", adj.Quantity).
				Msg("insufficient stock")
			return nil, err
		}
		e.recorder.RecordStockAdjustment(string(dir), metrics.OutcomeRejected)
		return nil, err
	}

	if err := e.productRepo.UpdateStock(ctx, tx, product.ID, outcome.Level); err != nil {
		e.recorder.RecordStockAdjustment(string(dir), metrics.OutcomeError)
		return nil, fmt.Errorf("failed to write stock of product %d: %w", product.ID, err)
	}

	e.recorder.RecordStockAdjustment(string(dir), metrics.OutcomeApplied)
	e.logger.Debug().
		Int64("product_id", product.ID).
		Str("direction", string(dir)).
		Str("size", outcome.Size).
		Int("quantity", adj.Quantity).
		Int("total_stock", outcome.Level.Aggregate).
		Msg("stock adjusted")

	return &model.AdjustmentResult{
		ProductID:     product.ID,
		ProductName:   product.Name,
		Size:          outcome.Size,
		Direction:     dir,
		Quantity:      adj.Quantity,
		SizeRemaining: outcome.SizeRemaining,
		TotalStock:    outcome.Level.Aggregate,
	}, nil
}
