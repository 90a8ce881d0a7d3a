package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/storepos-backend/api/routes"
	"github.com/angelmondragon/storepos-backend/internal/auth"
	"github.com/angelmondragon/storepos-backend/internal/categories"
	"github.com/angelmondragon/storepos-backend/internal/checkout"
	"github.com/angelmondragon/storepos-backend/internal/invoices"
	"github.com/angelmondragon/storepos-backend/internal/order"
	product "github.com/angelmondragon/storepos-backend/internal/products"
	"github.com/angelmondragon/storepos-backend/internal/reports"
	"github.com/angelmondragon/storepos-backend/internal/stores"
	"github.com/angelmondragon/storepos-backend/internal/users"
	"github.com/angelmondragon/storepos-backend/pkg/auth/session"
	"github.com/angelmondragon/storepos-backend/pkg/config"
	"github.com/angelmondragon/storepos-backend/pkg/db"
	"github.com/angelmondragon/storepos-backend/pkg/logger"
	"github.com/angelmondragon/storepos-backend/pkg/metrics"
	"github.com/angelmondragon/storepos-backend/pkg/migrate"
	"github.com/angelmondragon/storepos-backend/pkg/redis"
	"github.com/angelmondragon/storepos-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	posMetrics := metrics.NewPOSMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	services, err := buildServices(cfg, logg, dbClient, redisClient, sessionManager, posMetrics)
	if err != nil {
		logg.Error(ctx, "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	services.DB = dbClient
	services.Redis = redisClient
	services.Sessions = sessionManager
	services.Gatherer = registry
	services.HTTP = httpMetrics

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	logg.Info(ctx, "starting api server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "api server stopped")
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessionManager *session.Manager,
	posMetrics *metrics.POSMetrics,
) (routes.Deps, error) {
	conn := dbClient.DB()
	hasher := security.NewHasher(cfg.Password)

	storeRepo := stores.NewRepository(conn)
	userRepo := users.NewRepository(conn)
	categoryRepo := categories.NewRepository(conn)
	productRepo := product.NewRepository(conn)
	invoiceRepo := invoices.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		Passwords:      hasher,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	storeService, err := stores.NewService(storeRepo)
	if err != nil {
		return routes.Deps{}, err
	}

	userService, err := users.NewService(userRepo, storeRepo, hasher)
	if err != nil {
		return routes.Deps{}, err
	}

	categoryService, err := categories.NewService(categoryRepo)
	if err != nil {
		return routes.Deps{}, err
	}

	productService, err := product.NewService(productRepo, storeRepo, categoryService, cfg.POS.LowStockThreshold)
	if err != nil {
		return routes.Deps{}, err
	}

	invoiceService, err := invoices.NewService(invoiceRepo)
	if err != nil {
		return routes.Deps{}, err
	}

	reportService, err := reports.NewService(invoiceRepo, productService, time.Now)
	if err != nil {
		return routes.Deps{}, err
	}

	rate, err := cfg.POS.Rate()
	if err != nil {
		return routes.Deps{}, err
	}
	sequencer, err := checkout.NewRedisSequencer(redisClient, checkout.WithHistory(invoiceRepo, cfg.POS.InvoicePrefix))
	if err != nil {
		return routes.Deps{}, err
	}
	engine, err := order.NewEngine(rate, order.WithSequencer(sequencer), order.WithPrefix(cfg.POS.InvoicePrefix))
	if err != nil {
		return routes.Deps{}, err
	}

	carts, err := checkout.NewCartStore(redisClient, cfg.POS.CartTTL)
	if err != nil {
		return routes.Deps{}, err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:             dbClient,
		Carts:          carts,
		Products:       productRepo,
		Invoices:       invoiceRepo,
		Engine:         engine,
		Metrics:        posMetrics,
		Logger:         logg,
		BlockZeroStock: cfg.FeatureFlags.BlockZeroStock,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Auth:       authService,
		Stores:     storeService,
		Users:      userService,
		Categories: categoryService,
		Products:   productService,
		Checkout:   checkoutService,
		Invoices:   invoiceService,
		Reports:    reportService,
	}, nil
}
