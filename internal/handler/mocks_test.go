package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id int64, req *model.ProductUpdateRequest) (*model.Product, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Add(ctx context.Context, userID int64, req *model.CartItemRequest) (*model.CartItem, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *MockCartService) List(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartItem), args.Error(1)
}

func (m *MockCartService) Update(ctx context.Context, userID, id int64, req *model.CartUpdateRequest) (*model.CartItem, error) {
	args := m.Called(ctx, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *MockCartService) Remove(ctx context.Context, userID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// MockInventoryService is a mock implementation of InventoryService.
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) ReduceStock(ctx context.Context, items []model.StockAdjustment) (*model.StockBatchResult, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StockBatchResult), args.Error(1)
}

func (m *MockInventoryService) RestoreStock(ctx context.Context, items []model.StockAdjustment) (*model.StockBatchResult, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StockBatchResult), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderCreatedResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderCreatedResponse), args.Error(1)
}

func (m *MockOrderService) GetByRef(ctx context.Context, ref string) (*model.Order, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, ref string, req *model.StatusUpdateRequest) (*model.Order, error) {
	args := m.Called(ctx, ref, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) UpdateTracking(ctx context.Context, ref string, req *model.TrackingRequest) (*model.Order, error) {
	args := m.Called(ctx, ref, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) DeleteOrder(ctx context.Context, ref string) (*model.DeleteResponse, error) {
	return m.deleteCall("DeleteOrder", ctx, ref)
}

func (m *MockOrderService) PurgeOrder(ctx context.Context, ref string) (*model.DeleteResponse, error) {
	return m.deleteCall("PurgeOrder", ctx, ref)
}

func (m *MockOrderService) SoftDeleteOrder(ctx context.Context, ref string) (*model.DeleteResponse, error) {
	return m.deleteCall("SoftDeleteOrder", ctx, ref)
}

func (m *MockOrderService) deleteCall(method string, ctx context.Context, ref string) (*model.DeleteResponse, error) {
	args := m.MethodCalled(method, ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DeleteResponse), args.Error(1)
}

// serve routes a single request through a chi router so URL parameters are
// populated the same way as in production.
func serve(method, pattern, target, body string, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// serveAs is serve with p attached to the request context, as the
// authentication middleware does.
func serveAs(p *auth.Principal, method, pattern, target, body string, h http.HandlerFunc) *httptest.ResponseRecorder {
	return serve(method, pattern, target, body, func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			r = r.WithContext(auth.WithPrincipal(r.Context(), p))
		}
		h(w, r)
	})
}
