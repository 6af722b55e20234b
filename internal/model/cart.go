package model

import "time"

// CartItem is one line of a user's shopping cart. Name and Price are the
// product's values when the line was added.
type CartItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	ProductID int64     `json:"productId"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Image     string    `json:"image,omitempty"`
	Size      string    `json:"size,omitempty"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CartItemRequest is the payload for adding a product to the cart. Quantity
// defaults to one.
type CartItemRequest struct {
	ProductID int64  `json:"productId"`
	Size      string `json:"size,omitempty"`
	Quantity  *int   `json:"quantity,omitempty"`
	Image     string `json:"image,omitempty"`
}

// CartUpdateRequest changes the quantity or size of a cart line. Omitted
// fields keep their stored value.
type CartUpdateRequest struct {
	Quantity *int    `json:"quantity,omitempty"`
	Size     *string `json:"size,omitempty"`
}
