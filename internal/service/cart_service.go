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

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, logger zerolog.Logger) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "cart").Logger(),
		now:         time.Now,
	}
}

// Add puts a product into the cart after checking that the requested
// quantity is currently available. The line records the product's name and
// price at this moment.
func (s *cartService) Add(ctx context.Context, userID int64, req *model.CartItemRequest) (*model.CartItem, error) {
	if userID <= 0 {
		return nil, model.ErrUnauthenticated
	}
	if req == nil || req.ProductID <= 0 {
		return nil, model.InvalidArgument(model.ErrCodeMissingField, "productId is required")
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if err := validateCartQuantity(quantity); err != nil {
		return nil, err
	}

	size := strings.TrimSpace(req.Size)
	product, err := s.available(ctx, req.ProductID, size, quantity)
	if err != nil {
		return nil, err
	}

	now := s.now()
	item := &model.CartItem{
		UserID:    userID,
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Image:     strings.TrimSpace(req.Image),
		Size:      size,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.cartRepo.Create(ctx, item); err != nil {
		if model.KindOf(err) == model.KindNotFound {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to add cart item")
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	s.logger.Info().
		Int64("user_id", userID).
		Int64("cart_item_id", item.ID).
		Int64("product_id", item.ProductID).
		Int("quantity", quantity).
		Msg("cart item added")

	return item, nil
}

// List returns the user's cart lines, newest first.
func (s *cartService) List(ctx context.Context, userID int64) ([]model.CartItem, error) {
	if userID <= 0 {
		return nil, model.ErrUnauthenticated
	}

	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list cart")
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}

	return items, nil
}

// Update changes the quantity or size of a line and re-checks availability
// for the resulting combination.
func (s *cartService) Update(ctx context.Context, userID, id int64, req *model.CartUpdateRequest) (*model.CartItem, error) {
	if req == nil || (req.Quantity == nil && req.Size == nil) {
		return nil, model.ErrNoChanges
	}
	if req.Quantity != nil {
		if err := validateCartQuantity(*req.Quantity); err != nil {
			return nil, err
		}
	}

	item, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Size != nil {
		item.Size = strings.TrimSpace(*req.Size)
	}

	if _, err := s.available(ctx, item.ProductID, item.Size, item.Quantity); err != nil {
		return nil, err
	}

	item.UpdatedAt = s.now()
	if err := s.cartRepo.Update(ctx, item); err != nil {
		if model.KindOf(err) == model.KindNotFound {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("cart_item_id", id).Msg("failed to update cart item")
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	s.logger.Info().
		Int64("user_id", userID).
		Int64("cart_item_id", id).
		Int("quantity", item.Quantity).
		Str("size", item.Size).
		Msg("cart item updated")

	return item, nil
}

// Remove deletes one of the user's lines.
func (s *cartService) Remove(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	if err := s.cartRepo.Delete(ctx, id); err != nil {
		if model.KindOf(err) == model.KindNotFound {
			return err
		}
		s.logger.Error().Err(err).Int64("cart_item_id", id).Msg("failed to remove cart item")
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	s.logger.Info().Int64("user_id", userID).Int64("cart_item_id", id).Msg("cart item removed")

	return nil
}

// owned loads a cart line and checks that it belongs to userID.
func (s *cartService) owned(ctx context.Context, userID, id int64) (*model.CartItem, error) {
	if userID <= 0 {
		return nil, model.ErrUnauthenticated
	}
	if id <= 0 {
		return nil, model.ErrCartItemNotFound
	}

	item, err := s.cartRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("cart_item_id", id).Msg("failed to get cart item")
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	if item == nil {
		return nil, model.ErrCartItemNotFound
	}

	if item.UserID != userID {
		s.logger.Warn().
			Int64("user_id", userID).
			Int64("owner_id", item.UserID).
			Int64("cart_item_id", id).
			Msg("cart item belongs to another user")
		return nil, model.ErrNotCartOwner
	}

	return item, nil
}

// available loads a product and checks that quantity units can be taken in
// size. Nothing is reserved.
func (s *cartService) available(ctx context.Context, productID int64, size string, quantity int) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	available, err := product.Available(size)
	if err != nil {
		return nil, err
	}
	if available < quantity {
		return nil, model.InsufficientStock(model.StockShortage{
			ProductID: productID,
			Size:      size,
			Available: available,
			Requested: quantity,
		})
	}

	return product, nil
}

func validateCartQuantity(quantity int) error {
	if quantity <= 0 {
		return model.ErrInvalidQuantity
	}
	if quantity > math.MaxInt32 {
		return model.InvalidArgument(model.ErrCodeInvalidQuantity, "quantity must not exceed %d", math.MaxInt32)
	}
	return nil
}
