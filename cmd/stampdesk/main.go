package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/stampdesk/stampdesk/internal/app"
	"github.com/stampdesk/stampdesk/internal/auth"
	"github.com/stampdesk/stampdesk/internal/catalog"
	"github.com/stampdesk/stampdesk/internal/invoices"
	"github.com/stampdesk/stampdesk/internal/observability"
	"github.com/stampdesk/stampdesk/internal/orders"
	"github.com/stampdesk/stampdesk/internal/partners"
	"github.com/stampdesk/stampdesk/internal/platform/cache"
	"github.com/stampdesk/stampdesk/internal/platform/db"
	"github.com/stampdesk/stampdesk/internal/reports"
	"github.com/stampdesk/stampdesk/internal/shared"
	"github.com/stampdesk/stampdesk/internal/stock"
	"github.com/stampdesk/stampdesk/internal/users"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	validate := validator.New()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	guard := auth.NewGuard(tokens)
	sequence := shared.NewSequence(pool)

	catalogService := catalog.NewService(catalog.NewRepository(pool))
	stockService := stock.NewService(stock.NewRepository(pool))
	partnerService := partners.NewService(partners.NewRepository(pool))
	if err := partnerService.EnsureDefaults(ctx); err != nil {
		logger.Error("ensure default partners", slog.Any("error", err))
		os.Exit(1)
	}

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportService := reports.NewService(reports.NewRepository(pool), reportCache)

	orderService := orders.NewService(orders.NewRepository(pool), catalogService, stockService, partnerService, sequence, reportService)
	invoiceService := invoices.NewService(invoices.NewRepository(pool), orderService, sequence)

	userService := users.NewService(users.NewRepository(pool))

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Guard:           guard,
		Metrics:         observability.NewMetrics(),
		AuthHandler:     auth.NewHandler(logger, userService, tokens, validate),
		CatalogHandler:  catalog.NewHandler(logger, catalogService, validate, guard),
		StockHandler:    stock.NewHandler(logger, stockService, validate, guard),
		PartnersHandler: partners.NewHandler(logger, partnerService, validate),
		OrdersHandler:   orders.NewHandler(logger, orderService, validate, guard),
		InvoicesHandler: invoices.NewHandler(logger, invoiceService, invoices.NewPDFClient(cfg.GotenbergURL)),
		ReportsHandler:  reports.NewHandler(logger, reportService),
		UsersHandler:    users.NewHandler(logger, userService, validate),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
