package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartItem(userID, productID int64, size string, qty int) *model.CartItem {
	now := time.Now()
	return &model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Name:      "Shirt",
		Price:     19.99,
		Size:      size,
		Quantity:  qty,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCartRepository_CRUD(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	products := newProductRepo(pool)
	carts := NewCartRepository(pool, zerolog.Nop())

	p := seedProduct(t, products, "Shirt", 8, model.SizeStock{"M": 5, "L": 3})

	first := newCartItem(7, p.ID, "M", 2)
	require.NoError(t, carts.Create(ctx, first))
	require.NotZero(t, first.ID)

	second := newCartItem(7, p.ID, "", 1)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, carts.Create(ctx, second))
	require.NoError(t, carts.Create(ctx, newCartItem(8, p.ID, "L", 1)))

	t.Run("GetByID", func(t *testing.T) {
		got, err := carts.GetByID(ctx, first.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(7), got.UserID)
		assert.Equal(t, "M", got.Size)
		assert.Equal(t, 2, got.Quantity)
		assert.InDelta(t, 19.99, got.Price, 0.001)
		assert.Empty(t, got.Image)

		missing, err := carts.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("ListByUser newest first", func(t *testing.T) {
		items, err := carts.ListByUser(ctx, 7)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, second.ID, items[0].ID)
		assert.Empty(t, items[0].Size)
		assert.Equal(t, first.ID, items[1].ID)

		none, err := carts.ListByUser(ctx, 99)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("Update", func(t *testing.T) {
		first.Quantity = 3
		first.Size = "L"
		first.UpdatedAt = time.Now()
		require.NoError(t, carts.Update(ctx, first))

		got, err := carts.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Quantity)
		assert.Equal(t, "L", got.Size)

		assert.ErrorIs(t, carts.Update(ctx, &model.CartItem{ID: 999999, Quantity: 1}), model.ErrCartItemNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, carts.Delete(ctx, first.ID))

		got, err := carts.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		assert.ErrorIs(t, carts.Delete(ctx, first.ID), model.ErrCartItemNotFound)
	})
}

func TestCartRepository_Create_UnknownProduct(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	carts := NewCartRepository(pool, zerolog.Nop())

	err := carts.Create(context.Background(), newCartItem(7, 424242, "", 1))
	assert.ErrorIs(t, err, model.ErrProductNotFound)
}

func TestCartRepository_QuantityCheckConstraint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	p := seedProduct(t, newProductRepo(pool), "Mug", 4, nil)

	err := NewCartRepository(pool, zerolog.Nop()).Create(ctx, newCartItem(7, p.ID, "", 0))
	assert.Error(t, err)
}
