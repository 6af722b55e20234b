package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id, name, price, category, stock, size_stock, created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// Create inserts a new product and fills in its generated fields.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	sizeStock, err := encodeSizeStock(product.Sizes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (name, price, category, stock, size_stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err = r.pool.QueryRow(ctx, query,
		product.Name,
		product.Price,
		product.Category,
		product.Aggregate,
		sizeStock,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		r.logger.Error().Err(err).Str("name", product.Name).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Int64("product_id", product.ID).Msg("product created successfully")

	return nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// LockForUpdate reads a product inside tx and holds a row lock on it until tx
// ends. Concurrent adjustments of the same product queue on this lock, so the
// read-modify-write in the stock engine cannot lose updates.
func (r *productRepository) LockForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	p, err := scanProduct(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found for update")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to lock product")
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	return p, nil
}

// UpdateStock writes the aggregate and per-size stock of a product in a
// single statement.
func (r *productRepository) UpdateStock(ctx context.Context, tx pgx.Tx, id int64, level model.StockLevel) error {
	sizeStock, err := encodeSizeStock(level.Sizes)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET stock = $2, size_stock = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, level.Aggregate, sizeStock, time.Now())
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to update product stock")
		return fmt.Errorf("failed to update product stock: %w", err)
	}

	if tag.RowsAffected() != 1 {
		return model.ErrProductNotFound
	}

	r.logger.Debug().
		Int64("product_id", id).
		Int("stock", level.Aggregate).
		Msg("product stock updated")

	return nil
}

// Update writes every editable column of a product locked in tx. The caller
// keeps Aggregate consistent with Sizes.
func (r *productRepository) Update(ctx context.Context, tx pgx.Tx, product *model.Product) error {
	sizeStock, err := encodeSizeStock(product.Sizes)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = $2, price = $3, category = $4, stock = $5, size_stock = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		product.ID,
		product.Name,
		product.Price,
		product.Category,
		product.Aggregate,
		sizeStock,
		product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", product.ID).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}

	if tag.RowsAffected() != 1 {
		return model.ErrProductNotFound
	}

	r.logger.Debug().Int64("product_id", product.ID).Msg("product updated")

	return nil
}

// Delete removes a product.
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	r.logger.Debug().Int64("product_id", id).Msg("product deleted")

	return nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p         model.Product
		sizeStock []byte
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.Category,
		&p.Aggregate,
		&sizeStock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(sizeStock) > 0 {
		if err := json.Unmarshal(sizeStock, &p.Sizes); err != nil {
			return nil, fmt.Errorf("failed to decode size stock of product %d: %w", p.ID, err)
		}
	}

	return &p, nil
}

// encodeSizeStock serialises a size breakdown for the JSONB column. Products
// without sizes store NULL.
func encodeSizeStock(sizes model.SizeStock) (any, error) {
	if len(sizes) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(sizes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode size stock: %w", err)
	}
	return string(b), nil
}
