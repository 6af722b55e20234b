package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		req           *model.ProductRequest
		expectedLevel model.StockLevel
	}{
		{
			name:          "Aggregate-only product",
			req:           &model.ProductRequest{Name: " Mug ", Price: 9.5, Category: "kitchen", Stock: 12},
			expectedLevel: model.StockLevel{Aggregate: 12},
		},
		{
			name: "Size-tracked product ignores submitted aggregate",
			req: &model.ProductRequest{
				Name:      "Shirt",
				Price:     19.99,
				Category:  "apparel",
				Stock:     100,
				SizeStock: model.SizeStock{"M": 5, " L ": 3},
			},
			expectedLevel: model.StockLevel{Aggregate: 8, Sizes: model.SizeStock{"M": 5, "L": 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(new(MockTransactor), mockRepo, zerolog.Nop())

			mockRepo.On("Create", ctx, mock.MatchedBy(func(p *model.Product) bool {
				return assert.ObjectsAreEqual(tt.expectedLevel, p.StockLevel) && !p.CreatedAt.IsZero()
			})).Run(func(args mock.Arguments) {
				args.Get(1).(*model.Product).ID = 11
			}).Return(nil)

			product, err := service.Create(ctx, tt.req)

			require.NoError(t, err)
			require.NotNil(t, product)
			assert.Equal(t, int64(11), product.ID)
			assert.NotContains(t, product.Name, " ")
			assert.Equal(t, tt.expectedLevel, product.StockLevel)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProductService_Create_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := NewProductService(new(MockTransactor), mockRepo, zerolog.Nop())

	tests := []struct {
		name string
		req  *model.ProductRequest
	}{
		{name: "Nil request", req: nil},
		{name: "Blank name", req: &model.ProductRequest{Name: " "}},
		{name: "Negative price", req: &model.ProductRequest{Name: "A", Price: -1}},
		{name: "Negative stock", req: &model.ProductRequest{Name: "A", Stock: -1}},
		{name: "Negative size stock", req: &model.ProductRequest{Name: "A", SizeStock: model.SizeStock{"M": -2}}},
		{name: "Blank size label", req: &model.ProductRequest{Name: "A", SizeStock: model.SizeStock{" ": 2}}},
		{name: "Stock above column range", req: &model.ProductRequest{Name: "A", Stock: math.MaxInt32 + 1}},
		{name: "Size total above column range", req: &model.ProductRequest{Name: "A", SizeStock: model.SizeStock{"M": math.MaxInt32, "L": 1}}},
		{name: "Size label repeated after trimming", req: &model.ProductRequest{Name: "A", SizeStock: model.SizeStock{"M": 1, " M": 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := service.Create(ctx, tt.req)

			require.Error(t, err)
			assert.Nil(t, product)
			assert.Equal(t, model.KindInvalidArgument, model.KindOf(err))
		})
	}

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductService_Create_RepositoryError(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := NewProductService(new(MockTransactor), mockRepo, zerolog.Nop())

	mockRepo.On("Create", ctx, mock.AnythingOfType("*model.Product")).Return(errors.New("database error"))

	product, err := service.Create(ctx, &model.ProductRequest{Name: "A", Stock: 1})

	require.Error(t, err)
	assert.Nil(t, product)
	assert.Contains(t, err.Error(), "failed to create product")
}

func TestProductService_GetByID(t *testing.T) {
	ctx := context.Background()

	testProduct := &model.Product{
		ID:         1,
		Name:       "Test Product",
		Price:      99.99,
		Category:   "TestCat",
		StockLevel: model.StockLevel{Aggregate: 3},
		CreatedAt:  time.Now(),
	}

	tests := []struct {
		name        string
		id          int64
		mockReturn  *model.Product
		mockError   error
		expectedErr error
		expectError bool
		expectCall  bool
	}{
		{
			name:       "Product found",
			id:         1,
			mockReturn: testProduct,
			expectCall: true,
		},
		{
			name:        "Product not found",
			id:          999,
			expectedErr: model.ErrProductNotFound,
			expectError: true,
			expectCall:  true,
		},
		{
			name:        "Invalid ID",
			id:          0,
			expectedErr: model.ErrProductNotFound,
			expectError: true,
		},
		{
			name:        "Repository error",
			id:          1,
			mockError:   errors.New("database error"),
			expectError: true,
			expectCall:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(new(MockTransactor), mockRepo, zerolog.Nop())

			if tt.expectCall {
				if tt.mockReturn != nil {
					mockRepo.On("GetByID", ctx, tt.id).Return(tt.mockReturn, nil)
				} else {
					mockRepo.On("GetByID", ctx, tt.id).Return(nil, tt.mockError)
				}
			}

			product, err := service.GetByID(ctx, tt.id)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, product)
				if tt.expectedErr != nil {
					assert.ErrorIs(t, err, tt.expectedErr)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, testProduct, product)
			}

			if !tt.expectCall {
				mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		stored   model.StockLevel
		req      *model.ProductUpdateRequest
		expected model.StockLevel
		check    func(t *testing.T, p *model.Product)
	}{
		{
			name:     "New sizes replace the breakdown and set the aggregate",
			stored:   model.StockLevel{Aggregate: 8, Sizes: model.SizeStock{"M": 5, "L": 3}},
			req:      &model.ProductUpdateRequest{SizeStock: model.SizeStock{"S": 2, " XL ": 4}},
			expected: model.StockLevel{Aggregate: 6, Sizes: model.SizeStock{"S": 2, "XL": 4}},
		},
		{
			name:     "Sizes win over a submitted stock figure",
			stored:   model.StockLevel{Aggregate: 3},
			req:      &model.ProductUpdateRequest{Stock: ptr(50), SizeStock: model.SizeStock{"M": 1, "L": 1}},
			expected: model.StockLevel{Aggregate: 2, Sizes: model.SizeStock{"M": 1, "L": 1}},
		},
		{
			name:     "Stock of a product without sizes",
			stored:   model.StockLevel{Aggregate: 3},
			req:      &model.ProductUpdateRequest{Stock: ptr(10)},
			expected: model.StockLevel{Aggregate: 10},
		},
		{
			name:     "Descriptive fields keep stock",
			stored:   model.StockLevel{Aggregate: 8, Sizes: model.SizeStock{"M": 5, "L": 3}},
			req:      &model.ProductUpdateRequest{Name: ptr(" Linen Shirt "), Price: ptr(29.0), Category: ptr("tops")},
			expected: model.StockLevel{Aggregate: 8, Sizes: model.SizeStock{"M": 5, "L": 3}},
			check: func(t *testing.T, p *model.Product) {
				assert.Equal(t, "Linen Shirt", p.Name)
				assert.InDelta(t, 29.0, p.Price, 0.001)
				assert.Equal(t, "tops", p.Category)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTxr := new(MockTransactor)
			mockRepo := new(MockProductRepository)
			tx := new(MockTx)
			service := NewProductService(mockTxr, mockRepo, zerolog.Nop())

			stored := &model.Product{ID: 4, Name: "Shirt", Price: 19.99, StockLevel: tt.stored}

			mockTxr.On("BeginTx", ctx).Return(tx, nil)
			mockRepo.On("LockForUpdate", ctx, tx, int64(4)).Return(stored, nil)
			mockRepo.On("Update", ctx, tx, mock.MatchedBy(func(p *model.Product) bool {
				return p.ID == 4 && (!p.SizeTracked() || p.Aggregate == p.Sizes.Total())
			})).Return(nil)
			tx.On("Commit", ctx).Return(nil)

			product, err := service.Update(ctx, 4, tt.req)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, product.StockLevel)
			assert.False(t, product.UpdatedAt.IsZero())
			if tt.check != nil {
				tt.check(t, product)
			}
			mockRepo.AssertExpectations(t)
			tx.AssertExpectations(t)
			tx.AssertNotCalled(t, "Rollback", mock.Anything)
		})
	}
}

func TestProductService_Update_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	mockTxr := new(MockTransactor)
	service := NewProductService(mockTxr, new(MockProductRepository), zerolog.Nop())

	tests := []struct {
		name         string
		id           int64
		req          *model.ProductUpdateRequest
		expectedCode string
	}{
		{name: "Invalid ID", id: 0, req: &model.ProductUpdateRequest{Stock: ptr(1)}, expectedCode: model.ErrCodeProductNotFound},
		{name: "Nil request", id: 1, req: nil, expectedCode: model.ErrCodeNoFields},
		{name: "Nothing to change", id: 1, req: &model.ProductUpdateRequest{SizeStock: model.SizeStock{}}, expectedCode: model.ErrCodeNoFields},
		{name: "Blank name", id: 1, req: &model.ProductUpdateRequest{Name: ptr("  ")}, expectedCode: model.ErrCodeMissingField},
		{name: "Negative price", id: 1, req: &model.ProductUpdateRequest{Price: ptr(-0.5)}, expectedCode: model.ErrCodeMissingField},
		{name: "Negative stock", id: 1, req: &model.ProductUpdateRequest{Stock: ptr(-1)}, expectedCode: model.ErrCodeInvalidQuantity},
		{name: "Negative size", id: 1, req: &model.ProductUpdateRequest{SizeStock: model.SizeStock{"M": -1}}, expectedCode: model.ErrCodeInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := service.Update(ctx, tt.id, tt.req)

			assert.Nil(t, product)
			var de *model.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.expectedCode, de.Code)
		})
	}

	mockTxr.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestProductService_Update_RollsBack(t *testing.T) {
	ctx := context.Background()

	t.Run("Unknown product", func(t *testing.T) {
		mockTxr := new(MockTransactor)
		mockRepo := new(MockProductRepository)
		tx := new(MockTx)
		service := NewProductService(mockTxr, mockRepo, zerolog.Nop())

		mockTxr.On("BeginTx", ctx).Return(tx, nil)
		mockRepo.On("LockForUpdate", ctx, tx, int64(9)).Return(nil, nil)
		tx.On("Rollback", ctx).Return(nil)

		_, err := service.Update(ctx, 9, &model.ProductUpdateRequest{Stock: ptr(1)})

		assert.ErrorIs(t, err, model.ErrProductNotFound)
		tx.AssertExpectations(t)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Bare stock on a size-tracked product", func(t *testing.T) {
		mockTxr := new(MockTransactor)
		mockRepo := new(MockProductRepository)
		tx := new(MockTx)
		service := NewProductService(mockTxr, mockRepo, zerolog.Nop())

		stored := &model.Product{ID: 4, StockLevel: model.StockLevel{Aggregate: 8, Sizes: model.SizeStock{"M": 5, "L": 3}}}
		mockTxr.On("BeginTx", ctx).Return(tx, nil)
		mockRepo.On("LockForUpdate", ctx, tx, int64(4)).Return(stored, nil)
		tx.On("Rollback", ctx).Return(nil)

		_, err := service.Update(ctx, 4, &model.ProductUpdateRequest{Stock: ptr(100)})

		var de *model.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, model.ErrCodeSizeRequired, de.Code)
		tx.AssertExpectations(t)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Repository failure", func(t *testing.T) {
		mockTxr := new(MockTransactor)
		mockRepo := new(MockProductRepository)
		tx := new(MockTx)
		service := NewProductService(mockTxr, mockRepo, zerolog.Nop())

		mockTxr.On("BeginTx", ctx).Return(tx, nil)
		mockRepo.On("LockForUpdate", ctx, tx, int64(4)).Return(&model.Product{ID: 4}, nil)
		mockRepo.On("Update", ctx, tx, mock.AnythingOfType("*model.Product")).Return(errors.New("database error"))
		tx.On("Rollback", ctx).Return(nil)

		_, err := service.Update(ctx, 4, &model.ProductUpdateRequest{Name: ptr("Cap")})

		require.Error(t, err)
		tx.AssertExpectations(t)
		tx.AssertNotCalled(t, "Commit", mock.Anything)
	})
}

func TestProductService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		id          int64
		repoErr     error
		expectCall  bool
		expectedErr error
		expectError bool
	}{
		{name: "Deleted", id: 3, expectCall: true},
		{name: "Unknown product", id: 3, repoErr: model.ErrProductNotFound, expectCall: true, expectedErr: model.ErrProductNotFound, expectError: true},
		{name: "Invalid ID", id: -1, expectedErr: model.ErrProductNotFound, expectError: true},
		{name: "Repository error", id: 3, repoErr: errors.New("database error"), expectCall: true, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := NewProductService(new(MockTransactor), mockRepo, zerolog.Nop())

			if tt.expectCall {
				mockRepo.On("Delete", ctx, tt.id).Return(tt.repoErr)
			}

			err := service.Delete(ctx, tt.id)

			if !tt.expectError {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.Equal(t, model.KindInternal, model.KindOf(err))
			}
			if !tt.expectCall {
				mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			}
		})
	}
}
