package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const cartColumns = `id, user_id, product_id, name, price, image, size, quantity, created_at, updated_at`

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// Create inserts a cart line and fills in its ID. A product removed in the
// meantime yields model.ErrProductNotFound.
func (r *cartRepository) Create(ctx context.Context, item *model.CartItem) error {
	query := `
		INSERT INTO carts (user_id, product_id, name, price, image, size, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		item.UserID,
		item.ProductID,
		item.Name,
		item.Price,
		nullable(item.Image),
		nullable(item.Size),
		item.Quantity,
		item.CreatedAt,
		item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrProductNotFound
		}
		r.logger.Error().
			Err(err).
			Int64("user_id", item.UserID).
			Int64("product_id", item.ProductID).
			Msg("failed to create cart item")
		return fmt.Errorf("failed to create cart item: %w", err)
	}

	r.logger.Debug().Int64("cart_item_id", item.ID).Msg("cart item created")

	return nil
}

// GetByID retrieves a cart line.
func (r *cartRepository) GetByID(ctx context.Context, id int64) (*model.CartItem, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE id = $1`

	item, err := scanCartItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("cart_item_id", id).Msg("cart item not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("cart_item_id", id).Msg("failed to query cart item")
		return nil, fmt.Errorf("failed to query cart item: %w", err)
	}

	return item, nil
}

// ListByUser returns a user's cart lines, newest first.
func (r *cartRepository) ListByUser(ctx context.Context, userID int64) ([]model.CartItem, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to scan cart item")
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("error iterating cart rows")
		return nil, fmt.Errorf("error iterating cart rows: %w", err)
	}

	return items, nil
}

// Update writes the quantity and size of a cart line.
func (r *cartRepository) Update(ctx context.Context, item *model.CartItem) error {
	query := `
		UPDATE carts
		SET quantity = $2, size = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, item.ID, item.Quantity, nullable(item.Size), item.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Int64("cart_item_id", item.ID).Msg("failed to update cart item")
		return fmt.Errorf("failed to update cart item: %w", err)
	}

	if tag.RowsAffected() != 1 {
		return model.ErrCartItemNotFound
	}

	return nil
}

// Delete removes a cart line.
func (r *cartRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("cart_item_id", id).Msg("failed to delete cart item")
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrCartItemNotFound
	}

	return nil
}

func scanCartItem(row pgx.Row) (*model.CartItem, error) {
	var (
		item  model.CartItem
		image *string
		size  *string
	)
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Name,
		&item.Price,
		&image,
		&size,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if image != nil {
		item.Image = *image
	}
	if size != nil {
		item.Size = *size
	}

	return &item, nil
}

// nullable stores empty strings as NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
