// Package integration runs the storefront API end to end against a real
// PostgreSQL instance.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/media"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testSecret = "integration-secret"

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, a connection pool and the
// storefront schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	// Enough connections for the concurrent reduce test
	dbConfig := config.DatabaseConfig{
		MaxConnections:  30,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	pool, err := database.NewPoolFromURL(ctx, connStr, dbConfig, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB removes all rows from the storefront tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "TRUNCATE carts, orders, products RESTART IDENTITY"); err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}

// TestServer is the full HTTP stack wired to a test database.
type TestServer struct {
	*httptest.Server
	t          *testing.T
	Pool       *pgxpool.Pool
	UserToken  string
	OtherToken string
	AdminToken string
	UploadDir  string
}

// SetupTestServer wires repositories, services, handlers and the router the
// same way cmd/api does and serves them over a real listener.
func SetupTestServer(t *testing.T, testDB *TestDB) *TestServer {
	t.Helper()

	logger := zerolog.Nop()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Initialize repositories
	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	cartRepo := repository.NewCartRepository(testDB.Pool, logger)
	txr := repository.NewTransactor(testDB.Pool, logger)

	// Initialize services
	engine := service.NewStockEngine(productRepo, m, logger)
	productService := service.NewProductService(txr, productRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, logger)
	inventoryService := service.NewInventoryService(txr, engine, logger)
	orderService := service.NewOrderService(txr, orderRepo, engine, m, logger)

	uploadDir := t.TempDir()
	store, err := media.NewFileStore(uploadDir, "http://localhost:8080/uploads", logger)
	require.NoError(t, err)

	handlers := router.Handlers{
		Product:   handler.NewProductHandler(productService, logger),
		Cart:      handler.NewCartHandler(cartService, logger),
		Order:     handler.NewOrderHandler(orderService, logger),
		Inventory: handler.NewInventoryHandler(inventoryService, logger),
		Upload:    handler.NewUploadHandler(store, 10<<20, logger),
	}

	srv := httptest.NewServer(router.New(handlers, router.Deps{
		Verifier: auth.NewJWTVerifier(testSecret, ""),
		DB:       testDB.Pool,
		Metrics:  m,
		Gatherer: registry,
		Logger:   logger,
	}))
	t.Cleanup(srv.Close)

	userToken, err := auth.Sign(testSecret, auth.Principal{ID: 2, Email: "user@example.com", Role: "user"}, time.Hour)
	require.NoError(t, err)
	otherToken, err := auth.Sign(testSecret, auth.Principal{ID: 3, Email: "other@example.com", Role: "user"}, time.Hour)
	require.NoError(t, err)
	adminToken, err := auth.Sign(testSecret, auth.Principal{ID: 1, Email: "admin@example.com", Role: auth.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	return &TestServer{
		Server:     srv,
		t:          t,
		Pool:       testDB.Pool,
		UserToken:  userToken,
		OtherToken: otherToken,
		AdminToken: adminToken,
		UploadDir:  uploadDir,
	}
}

// Do sends a JSON request and decodes the response into out when out is not
// nil. It returns the status code.
func (s *TestServer) Do(method, path, token string, body, out any) int {
	s.t.Helper()

	status, err := s.Send(method, path, token, body, out)
	require.NoError(s.t, err)
	return status
}

// Send is Do without assertions, for use from goroutines.
func (s *TestServer) Send(method, path, token string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

// CreateProduct creates a product through the admin API.
func (s *TestServer) CreateProduct(req model.ProductRequest) *model.Product {
	s.t.Helper()

	var product model.Product
	status := s.Do(http.MethodPost, "/api/admin/products", s.AdminToken, req, &product)
	require.Equal(s.t, http.StatusCreated, status)
	return &product
}

// CreateOrder creates an order through the user API.
func (s *TestServer) CreateOrder(req map[string]any) *model.OrderCreatedResponse {
	s.t.Helper()

	var created model.OrderCreatedResponse
	status := s.Do(http.MethodPost, "/api/orders", s.UserToken, req, &created)
	require.Equal(s.t, http.StatusCreated, status)
	return &created
}

// StockOf reads the stored stock row of a product directly from the database.
func (s *TestServer) StockOf(id int64) model.StockLevel {
	s.t.Helper()

	var (
		level model.StockLevel
		raw   []byte
	)
	err := s.Pool.QueryRow(context.Background(),
		"SELECT stock, size_stock FROM products WHERE id = $1", id).Scan(&level.Aggregate, &raw)
	require.NoError(s.t, err)
	if raw != nil {
		require.NoError(s.t, json.Unmarshal(raw, &level.Sizes))
	}
	return level
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
