package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductHandler_GetByID(t *testing.T) {
	logger := zerolog.Nop()

	testProduct := &model.Product{
		ID:         7,
		Name:       "Tee",
		Price:      19.99,
		StockLevel: model.StockLevel{Aggregate: 8, Sizes: model.SizeStock{"M": 5, "L": 3}},
	}

	tests := []struct {
		name           string
		path           string
		mockReturn     *model.Product
		mockError      error
		expectedStatus int
		expectService  bool
		expectedCode   string
	}{
		{
			name:           "Success",
			path:           "/api/products/7",
			mockReturn:     testProduct,
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Not found",
			path:           "/api/products/7",
			mockError:      model.ErrProductNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
			expectedCode:   model.ErrCodeProductNotFound,
		},
		{
			name:           "Non-numeric id",
			path:           "/api/products/abc",
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeProductNotFound,
		},
		{
			name:           "Service error",
			path:           "/api/products/7",
			mockError:      errors.New("database error"),
			expectedStatus: http.StatusInternalServerError,
			expectService:  true,
			expectedCode:   model.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			if tt.expectService {
				mockService.On("GetByID", mock.Anything, int64(7)).Return(tt.mockReturn, tt.mockError)
			}

			handler := NewProductHandler(mockService, logger)
			w := serve(http.MethodGet, "/api/products/{id}", tt.path, "", handler.GetByID)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				var body model.ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, tt.expectedCode, body.Error)
			} else {
				var body map[string]any
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, float64(8), body["stock"])
				assert.Equal(t, map[string]any{"M": float64(5), "L": float64(3)}, body["sizeStock"])
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestProductHandler_Create(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		body           string
		mockReturn     *model.Product
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			body:           `{"name":"Tee","price":19.99,"category":"shirts","stock":0,"sizeStock":{"M":5,"L":3}}`,
			mockReturn:     &model.Product{ID: 1, Name: "Tee"},
			expectedStatus: http.StatusCreated,
			expectService:  true,
		},
		{
			name:           "Validation error",
			body:           `{"name":"","price":1}`,
			mockError:      model.InvalidArgument(model.ErrCodeMissingField, "name is required"),
			expectedStatus: http.StatusBadRequest,
			expectService:  true,
		},
		{
			name:           "Unknown field",
			body:           `{"name":"Tee","colour":"red"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Size count with wrong type",
			body:           `{"name":"Tee","sizeStock":{"M":"five"}}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			if tt.expectService {
				mockService.On("Create", mock.Anything, mock.AnythingOfType("*model.ProductRequest")).Return(tt.mockReturn, tt.mockError)
			}

			handler := NewProductHandler(mockService, logger)
			w := serve(http.MethodPost, "/api/admin/products", "/api/admin/products", tt.body, handler.Create)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestProductHandler_Update(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		path           string
		body           string
		mockReturn     *model.Product
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name: "Success",
			path: "/api/admin/products/4",
			body: `{"price":24.5,"sizeStock":{"S":1,"M":4}}`,
			mockReturn: &model.Product{
				ID:         4,
				StockLevel: model.StockLevel{Aggregate: 5, Sizes: model.SizeStock{"S": 1, "M": 4}},
			},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Nothing to change",
			path:           "/api/admin/products/4",
			body:           `{}`,
			mockError:      model.ErrNoChanges,
			expectedStatus: http.StatusBadRequest,
			expectService:  true,
		},
		{
			name:           "Unknown product",
			path:           "/api/admin/products/4",
			body:           `{"stock":3}`,
			mockError:      model.ErrProductNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
		{
			name:           "Non-numeric id",
			path:           "/api/admin/products/x",
			body:           `{"stock":3}`,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Unknown field",
			path:           "/api/admin/products/4",
			body:           `{"stok":3}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			if tt.expectService {
				mockService.On("Update", mock.Anything, int64(4), mock.AnythingOfType("*model.ProductUpdateRequest")).
					Return(tt.mockReturn, tt.mockError)
			}

			handler := NewProductHandler(mockService, logger)
			w := serve(http.MethodPut, "/api/admin/products/{id}", tt.path, tt.body, handler.Update)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, float64(5), body["stock"])
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestProductHandler_Update_PassesOptionalFields(t *testing.T) {
	mockService := new(MockProductService)
	mockService.On("Update", mock.Anything, int64(4), mock.MatchedBy(func(req *model.ProductUpdateRequest) bool {
		return req.Name == nil && req.Price == nil && req.Stock != nil && *req.Stock == 0
	})).Return(&model.Product{ID: 4}, nil)

	handler := NewProductHandler(mockService, zerolog.Nop())
	w := serve(http.MethodPut, "/api/admin/products/{id}", "/api/admin/products/4", `{"stock":0}`, handler.Update)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestProductHandler_Delete(t *testing.T) {
	tests := []struct {
		name           string
		mockError      error
		expectedStatus int
	}{
		{name: "Success", expectedStatus: http.StatusOK},
		{name: "Unknown product", mockError: model.ErrProductNotFound, expectedStatus: http.StatusNotFound},
		{name: "Service error", mockError: errors.New("database error"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			mockService.On("Delete", mock.Anything, int64(4)).Return(tt.mockError)

			handler := NewProductHandler(mockService, zerolog.Nop())
			w := serve(http.MethodDelete, "/api/admin/products/{id}", "/api/admin/products/4", "", handler.Delete)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var body model.RemovedResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, int64(4), body.DeletedID)
			}
			mockService.AssertExpectations(t)
		})
	}
}
