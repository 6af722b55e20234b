package service

import (
	"context"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
)

// StockEngine applies a single stock adjustment to one product row.
type StockEngine interface {
	// Apply locks the product inside tx, computes the new stock and writes
	// aggregate and per-size counts back in one statement.
	Apply(ctx context.Context, tx pgx.Tx, adj model.StockAdjustment, dir model.Direction) (*model.AdjustmentResult, error)
}

// InventoryService defines batch stock operations.
type InventoryService interface {
	// ReduceStock decrements stock for every item in one transaction. Items
	// fail independently; the batch is rolled back only when every item
	// failed.
	ReduceStock(ctx context.Context, items []model.StockAdjustment) (*model.StockBatchResult, error)

	// RestoreStock increments stock for every item in one transaction.
	// Unknown products are skipped and the batch always commits.
	RestoreStock(ctx context.Context, items []model.StockAdjustment) (*model.StockBatchResult, error)
}

// ProductService defines operations for product management.
type ProductService interface {
	// Create validates and stores a new product.
	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// Update changes a product under its row lock. New sizes replace the
	// old breakdown and set the aggregate to their sum.
	Update(ctx context.Context, id int64, req *model.ProductUpdateRequest) (*model.Product, error)

	// Delete removes a product and its cart lines.
	Delete(ctx context.Context, id int64) error
}

// CartService manages per-user shopping carts. Lines are checked against
// current stock but hold no reservation.
type CartService interface {
	// Add puts a product into userID's cart.
	Add(ctx context.Context, userID int64, req *model.CartItemRequest) (*model.CartItem, error)

	// List returns userID's cart lines, newest first.
	List(ctx context.Context, userID int64) ([]model.CartItem, error)

	// Update changes the quantity or size of one of userID's lines.
	Update(ctx context.Context, userID, id int64, req *model.CartUpdateRequest) (*model.CartItem, error)

	// Remove deletes one of userID's lines.
	Remove(ctx context.Context, userID, id int64) error
}

// OrderService defines the order lifecycle.
type OrderService interface {
	// CreateOrder stores a new order. Stock is not touched.
	CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderCreatedResponse, error)

	// GetByRef retrieves an order by numeric ID or public order ID.
	GetByRef(ctx context.Context, ref string) (*model.Order, error)

	// UpdateStatus moves an order to a new status.
	UpdateStatus(ctx context.Context, ref string, req *model.StatusUpdateRequest) (*model.Order, error)

	// UpdateTracking records a tracking number and moves the order to the
	// given status, shipping by default.
	UpdateTracking(ctx context.Context, ref string, req *model.TrackingRequest) (*model.Order, error)

	// DeleteOrder hard-deletes a pending, cancelled or failed order.
	DeleteOrder(ctx context.Context, ref string) (*model.DeleteResponse, error)

	// PurgeOrder hard-deletes an order regardless of its status. Paid orders
	// get their stock restored first.
	PurgeOrder(ctx context.Context, ref string) (*model.DeleteResponse, error)

	// SoftDeleteOrder marks an order as deleted without removing it.
	SoftDeleteOrder(ctx context.Context, ref string) (*model.DeleteResponse, error)
}
