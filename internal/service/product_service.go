package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	txr         repository.Transactor
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(txr repository.Transactor, productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		txr:         txr,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// Create validates and stores a new product. When sizes are given the
// aggregate stock is their sum and the submitted stock figure is ignored.
func (s *productService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" {
		return nil, model.InvalidArgument(model.ErrCodeMissingField, "name is required")
	}
	if req.Price < 0 {
		return nil, model.InvalidArgument(model.ErrCodeMissingField, "price must not be negative")
	}
	if err := validateStock(req.Stock); err != nil {
		return nil, err
	}

	level := model.StockLevel{Aggregate: req.Stock}
	if len(req.SizeStock) > 0 {
		sizes, err := normalizeSizes(req.SizeStock)
		if err != nil {
			return nil, err
		}
		level = model.StockLevel{Aggregate: sizes.Total(), Sizes: sizes}
	}

	now := time.Now()
	product := &model.Product{
		Name:       strings.TrimSpace(req.Name),
		Price:      req.Price,
		Category:   strings.TrimSpace(req.Category),
		StockLevel: level,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("name", product.Name).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().
		Int64("product_id", product.ID).
		Int("stock", product.Aggregate).
		Bool("size_tracked", product.SizeTracked()).
		Msg("product created")

	return product, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	if id <= 0 {
		s.logger.Warn().Int64("product_id", id).Msg("invalid product ID")
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Int64("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// Update changes a product under its row lock so concurrent stock
// adjustments cannot interleave with the rewrite. Sizes in the request
// replace the stored breakdown and the aggregate becomes their sum. A bare
// stock figure is only accepted for products without sizes.
func (s *productService) Update(ctx context.Context, id int64, req *model.ProductUpdateRequest) (product *model.Product, err error) {
	if id <= 0 {
		return nil, model.ErrProductNotFound
	}
	if req == nil || req.Empty() {
		return nil, model.ErrNoChanges
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, model.InvalidArgument(model.ErrCodeMissingField, "name must not be empty")
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, model.InvalidArgument(model.ErrCodeMissingField, "price must not be negative")
	}
	if req.Stock != nil {
		if err := validateStock(*req.Stock); err != nil {
			return nil, err
		}
	}
	var sizes model.SizeStock
	if len(req.SizeStock) > 0 {
		if sizes, err = normalizeSizes(req.SizeStock); err != nil {
			return nil, err
		}
	}

	tx, err := s.txr.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	product, err = s.productRepo.LockForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if product == nil {
		err = model.ErrProductNotFound
		return nil, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}

	switch {
	case sizes != nil:
		product.StockLevel = model.StockLevel{Aggregate: sizes.Total(), Sizes: sizes}
	case req.Stock != nil && product.SizeTracked():
		err = model.InvalidArgument(model.ErrCodeSizeRequired, "stock of a size-tracked product is set through sizeStock")
		return nil, err
	case req.Stock != nil:
		product.StockLevel = model.StockLevel{Aggregate: *req.Stock}
	}
	product.UpdatedAt = time.Now()

	if err = s.productRepo.Update(ctx, tx, product); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info().
		Int64("product_id", id).
		Int("stock", product.Aggregate).
		Bool("size_tracked", product.SizeTracked()).
		Msg("product updated")

	return product, nil
}

// Delete removes a product and its cart lines.
func (s *productService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return model.ErrProductNotFound
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if model.KindOf(err) == model.KindNotFound {
			return err
		}
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info().Int64("product_id", id).Msg("product deleted")

	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return model.InvalidArgument(model.ErrCodeInvalidQuantity, "stock must not be negative")
	}
	if stock > math.MaxInt32 {
		return model.InvalidArgument(model.ErrCodeInvalidQuantity, "stock must not exceed %d", math.MaxInt32)
	}
	return nil
}

// normalizeSizes trims size labels and checks every count. The total must
// fit the stock column.
func normalizeSizes(in model.SizeStock) (model.SizeStock, error) {
	sizes := make(model.SizeStock, len(in))
	total := int64(0)
	for label, qty := range in {
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, model.InvalidArgument(model.ErrCodeSizeRequired, "size labels must not be empty")
		}
		if qty < 0 {
			return nil, model.InvalidArgument(model.ErrCodeInvalidQuantity, "stock of size %q must not be negative", label)
		}
		if _, dup := sizes[label]; dup {
			return nil, model.InvalidArgument(model.ErrCodeSizeRequired, "size %q is listed twice", label)
		}
		sizes[label] = qty
		total += int64(qty)
	}
	if total > math.MaxInt32 {
		return nil, model.InvalidArgument(model.ErrCodeInvalidQuantity, "total stock must not exceed %d", math.MaxInt32)
	}
	return sizes, nil
}
