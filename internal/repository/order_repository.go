package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `id, order_id, user_id, name, email, phone, address, city, postal_code, notes,
	total_items, total_price, status, items, payment_method, shipping_method, tracking_number,
	created_at, paid_at, updated_at`

// orderRefFilter matches an order either by its public order ID or by the
// decimal form of its numeric ID.
const orderRefFilter = `order_id = $1 OR id::text = $1`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// Create inserts a new order and fills in its numeric ID.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	query := `
		INSERT INTO orders (order_id, user_id, name, email, phone, address, city, postal_code, notes,
			total_items, total_price, status, items, created_at, paid_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`

	err = r.pool.QueryRow(ctx, query,
		order.OrderID,
		order.UserID,
		order.Name,
		order.Email,
		order.Phone,
		order.Address,
		order.City,
		order.PostalCode,
		order.Notes,
		order.TotalItems,
		order.TotalPrice,
		order.Status,
		string(items),
		order.CreatedAt,
		order.PaidAt,
		order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Warn().Str("order_id", order.OrderID).Msg("duplicate order id")
			return model.ErrDuplicateOrderID
		}
		r.logger.Error().
			Err(err).
			Str("order_id", order.OrderID).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Int64("id", order.ID).
		Str("order_id", order.OrderID).
		Msg("order created successfully")

	return nil
}

// GetByRef retrieves an order by numeric ID or public order ID.
func (r *orderRepository) GetByRef(ctx context.Context, ref string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + orderRefFilter + ` LIMIT 1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("ref", ref).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("ref", ref).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return order, nil
}

// LockByRef reads an order inside tx and holds a row lock on it until tx ends.
func (r *orderRepository) LockByRef(ctx context.Context, tx pgx.Tx, ref string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + orderRefFilter + ` LIMIT 1 FOR UPDATE`

	order, err := scanOrder(tx.QueryRow(ctx, query, ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("ref", ref).Msg("order not found for update")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("ref", ref).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	return order, nil
}

// ApplyChanges writes a status transition and returns the updated order.
func (r *orderRepository) ApplyChanges(ctx context.Context, tx pgx.Tx, id int64, changes model.OrderChanges) (*model.Order, error) {
	query := `
		UPDATE orders
		SET status = $2,
			payment_method = COALESCE($3, payment_method),
			shipping_method = COALESCE($4, shipping_method),
			tracking_number = COALESCE($5, tracking_number),
			paid_at = COALESCE(paid_at, $6),
			updated_at = $7
		WHERE id = $1
		RETURNING ` + orderColumns

	order, err := scanOrder(tx.QueryRow(ctx, query,
		id,
		changes.Status,
		changes.PaymentMethod,
		changes.ShippingMethod,
		changes.TrackingNumber,
		changes.PaidAt,
		changes.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		r.logger.Error().
			Err(err).
			Int64("id", id).
			Str("status", string(changes.Status)).
			Msg("failed to update order")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	r.logger.Debug().
		Int64("id", id).
		Str("status", string(order.Status)).
		Msg("order updated")

	return order, nil
}

// Delete removes an order row.
func (r *orderRepository) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	tag, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("id", id).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	r.logger.Debug().Int64("id", id).Msg("order deleted")

	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o      model.Order
		status string
		items  []byte
	)
	err := row.Scan(
		&o.ID,
		&o.OrderID,
		&o.UserID,
		&o.Name,
		&o.Email,
		&o.Phone,
		&o.Address,
		&o.City,
		&o.PostalCode,
		&o.Notes,
		&o.TotalItems,
		&o.TotalPrice,
		&status,
		&items,
		&o.PaymentMethod,
		&o.ShippingMethod,
		&o.TrackingNumber,
		&o.CreatedAt,
		&o.PaidAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Status = model.OrderStatus(status)
	o.Items = []model.OrderItem{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items of order %d: %w", o.ID, err)
		}
	}

	return &o, nil
}
