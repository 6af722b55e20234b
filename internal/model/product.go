package model

import "time"

// Product represents an item in the storefront catalogue together with its
// stock counts.
type Product struct {
	ID       int64   `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Price    float64 `json:"price" db:"price"`
	Category string  `json:"category" db:"category"`
	StockLevel
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ProductRequest represents the request payload for creating a product.
type ProductRequest struct {
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Category  string    `json:"category"`
	Stock     int       `json:"stock"`
	SizeStock SizeStock `json:"sizeStock,omitempty"`
}

// ProductUpdateRequest is the payload of the admin product update. Omitted
// fields keep their stored value. A non-empty SizeStock replaces the size
// breakdown and the aggregate becomes its sum; Stock only applies to
// products without sizes.
type ProductUpdateRequest struct {
	Name      *string   `json:"name,omitempty"`
	Price     *float64  `json:"price,omitempty"`
	Category  *string   `json:"category,omitempty"`
	Stock     *int      `json:"stock,omitempty"`
	SizeStock SizeStock `json:"sizeStock,omitempty"`
}

// Empty reports whether the request changes nothing.
func (r ProductUpdateRequest) Empty() bool {
	return r.Name == nil && r.Price == nil && r.Category == nil && r.Stock == nil && len(r.SizeStock) == 0
}

// RemovedResponse is returned after a product or cart line was removed.
type RemovedResponse struct {
	DeletedID int64 `json:"deletedId"`
}
