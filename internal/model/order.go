package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusPaid       OrderStatus = "paid"
	StatusProcessing OrderStatus = "processing"
	StatusShipping   OrderStatus = "shipping"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
	StatusFailed     OrderStatus = "failed"
	// StatusDeleted marks a soft-deleted order. It is never set through a
	// regular status update.
	StatusDeleted OrderStatus = "deleted"
)

// UpdatableStatuses lists the statuses accepted by a status update.
var UpdatableStatuses = []OrderStatus{
	StatusPending,
	StatusPaid,
	StatusProcessing,
	StatusShipping,
	StatusCompleted,
	StatusCancelled,
	StatusFailed,
}

// Valid reports whether s may be set through a status update.
func (s OrderStatus) Valid() bool {
	for _, v := range UpdatableStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Deletable reports whether an order in status s may be hard-deleted.
func (s OrderStatus) Deletable() bool {
	return s == StatusPending || s == StatusCancelled || s == StatusFailed
}

// MarksPayment reports whether entering s stamps paid_at.
func (s OrderStatus) MarksPayment() bool {
	return s == StatusPaid || s == StatusCompleted
}

// Order represents a customer order.
type Order struct {
	ID             int64       `json:"id" db:"id"`
	OrderID        string      `json:"orderId" db:"order_id"`
	UserID         int64       `json:"userId" db:"user_id"`
	Name           string      `json:"name" db:"name"`
	Email          *string     `json:"email,omitempty" db:"email"`
	Phone          *string     `json:"phone,omitempty" db:"phone"`
	Address        *string     `json:"address,omitempty" db:"address"`
	City           *string     `json:"city,omitempty" db:"city"`
	PostalCode     *string     `json:"postalCode,omitempty" db:"postal_code"`
	Notes          *string     `json:"notes,omitempty" db:"notes"`
	TotalItems     int         `json:"totalItems" db:"total_items"`
	TotalPrice     float64     `json:"totalPrice" db:"total_price"`
	Status         OrderStatus `json:"status" db:"status"`
	Items          []OrderItem `json:"items" db:"items"`
	PaymentMethod  *string     `json:"paymentMethod,omitempty" db:"payment_method"`
	ShippingMethod *string     `json:"shippingMethod,omitempty" db:"shipping_method"`
	TrackingNumber *string     `json:"trackingNumber,omitempty" db:"tracking_number"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	PaidAt         *time.Time  `json:"paidAt,omitempty" db:"paid_at"`
	UpdatedAt      time.Time   `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name,omitempty"`
	Size      string  `json:"size,omitempty"`
	Price     float64 `json:"price,omitempty"`
	Quantity  int     `json:"quantity"`
}

// Adjustment converts the line item into a stock adjustment intent.
func (i OrderItem) Adjustment() StockAdjustment {
	return StockAdjustment{ProductID: i.ProductID, Size: i.Size, Quantity: i.Quantity}
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	UserID     *int64      `json:"userId"`
	Name       string      `json:"name"`
	Email      *string     `json:"email,omitempty"`
	Phone      *string     `json:"phone,omitempty"`
	Address    *string     `json:"address,omitempty"`
	City       *string     `json:"city,omitempty"`
	PostalCode *string     `json:"postalCode,omitempty"`
	Notes      *string     `json:"notes,omitempty"`
	TotalItems int         `json:"totalItems"`
	TotalPrice *float64    `json:"totalPrice"`
	Status     OrderStatus `json:"status,omitempty"`
	Items      []OrderItem `json:"items"`
}

// OrderCreatedResponse is returned after an order was created.
type OrderCreatedResponse struct {
	ID      int64       `json:"id"`
	OrderID string      `json:"orderId"`
	Status  OrderStatus `json:"status"`
}

// StatusUpdateRequest represents the payload of a status update.
type StatusUpdateRequest struct {
	Status         OrderStatus `json:"status"`
	PaymentMethod  *string     `json:"paymentMethod,omitempty"`
	ShippingMethod *string     `json:"shippingMethod,omitempty"`
}

// TrackingRequest represents the payload of a tracking number update.
type TrackingRequest struct {
	TrackingNumber string      `json:"trackingNumber"`
	Status         OrderStatus `json:"status,omitempty"`
}

// OrderChanges is the set of columns written by a status transition. Nil
// pointers leave the stored value untouched; PaidAt only fills an empty
// paid_at.
type OrderChanges struct {
	Status         OrderStatus
	PaymentMethod  *string
	ShippingMethod *string
	TrackingNumber *string
	PaidAt         *time.Time
	UpdatedAt      time.Time
}

// DeleteResponse confirms an order deletion.
type DeleteResponse struct {
	DeletedID     int64              `json:"deletedId"`
	OrderID       string             `json:"orderId"`
	Soft          bool               `json:"soft"`
	StockRestored []AdjustmentResult `json:"stockRestored,omitempty"`
}

const orderTokenSuffixLen = 9

// NewOrderToken generates a public order identifier of the form
// ORDER-<unix millis>-<9 uppercase alphanumerics>.
func NewOrderToken(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:orderTokenSuffixLen]
	return fmt.Sprintf("ORDER-%d-%s", now.UnixMilli(), suffix)
}
