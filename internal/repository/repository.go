package repository

import (
	"context"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
)

// Transactor opens database transactions.
type Transactor interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// Create inserts a new product and fills in its generated fields.
	Create(ctx context.Context, product *model.Product) error

	// GetByID retrieves a single product by its ID. It returns nil when the
	// product does not exist.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// LockForUpdate reads a product inside tx and holds a row lock on it
	// until tx ends. It returns nil when the product does not exist.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error)

	// UpdateStock writes the aggregate and per-size stock of a product in a
	// single statement.
	UpdateStock(ctx context.Context, tx pgx.Tx, id int64, level model.StockLevel) error

	// Update writes every editable column of a product locked in tx.
	Update(ctx context.Context, tx pgx.Tx, product *model.Product) error

	// Delete removes a product. Its cart lines go with it. A missing product
	// yields model.ErrProductNotFound.
	Delete(ctx context.Context, id int64) error
}

// CartRepository defines the interface for cart data access operations.
type CartRepository interface {
	// Create inserts a cart line and fills in its generated fields.
	Create(ctx context.Context, item *model.CartItem) error

	// GetByID retrieves a cart line. It returns nil when the line does not
	// exist.
	GetByID(ctx context.Context, id int64) (*model.CartItem, error)

	// ListByUser returns a user's cart lines, newest first.
	ListByUser(ctx context.Context, userID int64) ([]model.CartItem, error)

	// Update writes the quantity and size of a cart line.
	Update(ctx context.Context, item *model.CartItem) error

	// Delete removes a cart line. A missing line yields
	// model.ErrCartItemNotFound.
	Delete(ctx context.Context, id int64) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// Create inserts a new order and fills in its generated fields. A
	// duplicate public order ID yields model.ErrDuplicateOrderID.
	Create(ctx context.Context, order *model.Order) error

	// GetByRef retrieves an order by numeric ID or public order ID. It
	// returns nil when the order does not exist.
	GetByRef(ctx context.Context, ref string) (*model.Order, error)

	// LockByRef reads an order inside tx and holds a row lock on it until tx
	// ends. It returns nil when the order does not exist.
	LockByRef(ctx context.Context, tx pgx.Tx, ref string) (*model.Order, error)

	// ApplyChanges writes a status transition and returns the updated order.
	ApplyChanges(ctx context.Context, tx pgx.Tx, id int64, changes model.OrderChanges) (*model.Order, error)

	// Delete removes an order row.
	Delete(ctx context.Context, tx pgx.Tx, id int64) error
}
