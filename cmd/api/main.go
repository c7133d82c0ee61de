package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/labtrack/internal/catalog"
	catalogStore "github.com/MrJamesThe3rd/labtrack/internal/catalog/store"
	"github.com/MrJamesThe3rd/labtrack/internal/config"
	"github.com/MrJamesThe3rd/labtrack/internal/database"
	"github.com/MrJamesThe3rd/labtrack/internal/export"
	labtrackHttp "github.com/MrJamesThe3rd/labtrack/internal/http"
	catalogHandler "github.com/MrJamesThe3rd/labtrack/internal/http/catalog"
	exportHandler "github.com/MrJamesThe3rd/labtrack/internal/http/export"
	orderHandler "github.com/MrJamesThe3rd/labtrack/internal/http/order"
	scanHandler "github.com/MrJamesThe3rd/labtrack/internal/http/scan"
	"github.com/MrJamesThe3rd/labtrack/internal/identity"
	"github.com/MrJamesThe3rd/labtrack/internal/order"
	orderStore "github.com/MrJamesThe3rd/labtrack/internal/order/store"
	"github.com/MrJamesThe3rd/labtrack/internal/payment"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Auth.JWTSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString(), cfg.DB.MaxConns)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	if err := database.Migrate(ctx, db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	catalogService := catalog.NewService(catalogStore.New(db))

	if cfg.Workshop.CatalogFile != "" {
		entries, err := catalog.LoadFile(cfg.Workshop.CatalogFile)
		if err != nil {
			slog.Error("failed to load catalog file", "path", cfg.Workshop.CatalogFile, "error", err)
			os.Exit(1)
		}

		if err := catalogService.Seed(ctx, entries); err != nil {
			slog.Error("failed to seed catalog", "error", err)
			os.Exit(1)
		}

		slog.Info("catalog seeded", "entries", len(entries))
	}

	var (
		paymentClient = payment.NewClient(cfg.Payments.URL, cfg.Payments.Token)
		orderService  = order.NewService(orderStore.New(db), catalogService, paymentClient,
			order.WithDispatchSector(cfg.Workshop.DispatchSector),
			order.WithOrganization(cfg.Payments.OrganizationID),
		)
		exportService = export.NewService(orderService, cfg.Attachments.Token)
	)

	handlers := labtrackHttp.Handlers{
		Orders:  orderHandler.NewHandler(orderService),
		Export:  exportHandler.NewHandler(exportService),
		Scan:    scanHandler.NewHandler(orderService, cfg.Scan.GapThreshold, cfg.Scan.MinLength),
		Catalog: catalogHandler.NewHandler(catalogService),
	}

	verifier := identity.NewVerifier(cfg.Auth.JWTSecret, cfg.App.Name)
	router := labtrackHttp.New(handlers, verifier, cfg.AllowedOrigins())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	slog.Info("starting server", "addr", srv.Addr)

	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
