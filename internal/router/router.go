// Package router assembles the HTTP routes and middleware chain.
package router

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/auth"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const healthTimeout = 2 * time.Second

// Pinger reports database reachability for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the resource handlers mounted by New.
type Handlers struct {
	Product   *handler.ProductHandler
	Cart      *handler.CartHandler
	Order     *handler.OrderHandler
	Inventory *handler.InventoryHandler
	Upload    *handler.UploadHandler
}

// Deps groups the infrastructure the router needs besides handlers.
type Deps struct {
	Verifier auth.Verifier
	DB       Pinger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, d Deps) http.Handler {
	r := chi.NewRouter()

	// Order: RequestID -> Recovery -> Logging -> CORS -> Metrics
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.CORS)
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}

	// Health check endpoint (no authentication required)
	r.Get("/health", health(d.DB, d.Logger))

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Verifier, d.Logger))

		r.Get("/products/{id}", h.Product.GetByID)

		r.Post("/cart", h.Cart.Add)
		r.Get("/cart", h.Cart.List)
		r.Put("/cart/{id}", h.Cart.Update)
		r.Delete("/cart/{id}", h.Cart.Remove)

		r.Post("/orders", h.Order.Create)
		r.Get("/orders/{ref}", h.Order.Get)
		r.Put("/orders/{ref}", h.Order.UpdateStatus)
		r.Delete("/orders/{ref}", h.Order.Delete)

		r.Post("/inventory/reduce-stock", h.Inventory.ReduceStock)
		r.Post("/inventory/restore-stock", h.Inventory.RestoreStock)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.Logger))

			r.Post("/products", h.Product.Create)
			r.Put("/products/{id}", h.Product.Update)
			r.Delete("/products/{id}", h.Product.Delete)

			r.Put("/orders/{ref}/status", h.Order.UpdateStatus)
			r.Put("/orders/{ref}/tracking", h.Order.UpdateTracking)
			r.Delete("/orders/{ref}", h.Order.SoftDelete)
			r.Delete("/orders/{ref}/purge", h.Order.Purge)

			if h.Upload != nil {
				r.Post("/uploads/image", h.Upload.UploadImage)
			}
		})
	})

	return r
}

func health(db Pinger, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				logger.Error().Err(err).Msg("health check: database unreachable")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status": "unhealthy", "database": "unreachable"}`))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "healthy", "database": "ok"}`))
	}
}
