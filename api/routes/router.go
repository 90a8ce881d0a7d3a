package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storepos-backend/api/controllers"
	"github.com/angelmondragon/storepos-backend/api/middleware"
	"github.com/angelmondragon/storepos-backend/internal/auth"
	"github.com/angelmondragon/storepos-backend/internal/categories"
	"github.com/angelmondragon/storepos-backend/internal/checkout"
	"github.com/angelmondragon/storepos-backend/internal/invoices"
	product "github.com/angelmondragon/storepos-backend/internal/products"
	"github.com/angelmondragon/storepos-backend/internal/reports"
	"github.com/angelmondragon/storepos-backend/internal/stores"
	"github.com/angelmondragon/storepos-backend/internal/users"
	"github.com/angelmondragon/storepos-backend/pkg/auth/session"
	"github.com/angelmondragon/storepos-backend/pkg/config"
	"github.com/angelmondragon/storepos-backend/pkg/enums"
	"github.com/angelmondragon/storepos-backend/pkg/logger"
	"github.com/angelmondragon/storepos-backend/pkg/metrics"
	"github.com/angelmondragon/storepos-backend/pkg/redis"
)

// redisStore is the slice of the redis client the middleware stack needs.
type redisStore interface {
	redis.IdempotencyStore
	controllers.Pinger
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries everything the router hands to controllers.
type Deps struct {
	DB       controllers.Pinger
	Redis    redisStore
	Sessions session.AccessSessionChecker
	Gatherer prometheus.Gatherer
	HTTP     *metrics.HTTPMetrics

	Auth       auth.Service
	Stores     stores.Service
	Users      users.Service
	Categories categories.Service
	Products   product.Service
	Checkout   checkout.Service
	Invoices   invoices.Service
	Reports    reports.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTP),
	)

	if cfg.Metrics.Enabled && deps.Gatherer != nil {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})

	loginPolicy := middleware.LoginRateLimitPolicy(cfg.AuthRateLimit)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
			r.Get("/me", controllers.AuthMe(deps.Auth, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.StoreContext(logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Post("/", controllers.ProductCreate(deps.Products, logg))
			r.Get("/low-stock", controllers.ProductLowStock(deps.Products, logg))
			r.Get("/{productId}", controllers.ProductGet(deps.Products, logg))
			r.Put("/{productId}", controllers.ProductUpdate(deps.Products, logg))
			r.Delete("/{productId}", controllers.ProductDelete(deps.Products, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryList(deps.Categories, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
				r.Post("/", controllers.CategoryCreate(deps.Categories, logg))
				r.Put("/{categoryId}", controllers.CategoryUpdate(deps.Categories, logg))
				r.Delete("/{categoryId}", controllers.CategoryDelete(deps.Categories, logg))
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Checkout, logg))
			r.Delete("/", controllers.CartClear(deps.Checkout, logg))
			r.Post("/items", controllers.CartAddItem(deps.Checkout, logg))
			r.Put("/items/{productId}", controllers.CartUpdateItem(deps.Checkout, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Checkout, logg))
		})
		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceList(deps.Invoices, logg))
			r.Get("/{invoiceId}", controllers.InvoiceDetail(deps.Invoices, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", controllers.ReportSummary(deps.Reports, logg))
			r.Get("/export.csv", controllers.ReportExportCSV(deps.Reports, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
			r.Route("/stores", func(r chi.Router) {
				r.Get("/", controllers.StoreList(deps.Stores, logg))
				r.Post("/", controllers.StoreCreate(deps.Stores, logg))
				r.Get("/{storeId}", controllers.StoreGet(deps.Stores, logg))
				r.Put("/{storeId}", controllers.StoreUpdate(deps.Stores, logg))
				r.Delete("/{storeId}", controllers.StoreDelete(deps.Stores, logg))
			})
			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.UserList(deps.Users, logg))
				r.Post("/", controllers.UserCreate(deps.Users, logg))
				r.Get("/{userId}", controllers.UserGet(deps.Users, logg))
				r.Put("/{userId}", controllers.UserUpdate(deps.Users, logg))
				r.Delete("/{userId}", controllers.UserDelete(deps.Users, logg))
			})
		})
	})

	return r
}
