package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"resellerdash/config"
	"resellerdash/dashboard"
	"resellerdash/middleware"
	"resellerdash/notifications"
	"resellerdash/reconciler"
	"resellerdash/routes"
	"resellerdash/sources"
	"resellerdash/utils"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		utils.NewLogger("main").Fatalf("Failed to load configuration: %v", err)
	}

	utils.SetupLogging(utils.LogOptions{
		Level:  config.AppConfig.LogLevel,
		Format: config.AppConfig.LogFormat,
		File:   config.AppConfig.LogFile,
	})
	logger := utils.NewLogger("main")

	if err := utils.InitSentry(config.AppConfig.SentryDSN, config.AppConfig.Environment); err != nil {
		logger.WithError(err).Warn("Sentry disabled")
	}
	defer utils.FlushSentry()

	// The read store is optional; without it read marks live in memory only.
	if err := config.ConnectDB(); err != nil {
		logger.WithError(err).Error("Database unavailable, continuing without read store")
		config.DB = nil
	}
	readStore := sources.NewReadStore(config.DB, utils.NewLogger("readstore"))
	if readStore.Enabled() {
		if err := readStore.Migrate(); err != nil {
			logger.WithError(err).Fatal("Database migration failed")
		}
	}

	crm := sources.NewCRMClient(sources.CRMOptions{
		BaseURL:           config.AppConfig.CRM.BaseURL,
		AuthHeader:        config.AppConfig.CRM.AuthHeader,
		HTTPClient:        &http.Client{Timeout: config.AppConfig.CRM.Timeout},
		RequestsPerSecond: config.AppConfig.CRM.RequestsPerSecond,
		MaxRetries:        config.AppConfig.CRM.MaxRetries,
		Logger:            utils.NewLogger("crm"),
		Synthetic:         sources.NewSynthetic(time.Now().UnixNano(), config.AppConfig.PartnerID),
	})
	sheets := sources.NewSheetsClient(sources.SheetsOptions{
		SpreadsheetID:         config.AppConfig.Sheets.SpreadsheetID,
		DeliverySpreadsheetID: config.AppConfig.Sheets.DeliverySpreadsheetID,
		DeliverySheet:         config.AppConfig.Sheets.DeliverySheet,
		Endpoint:              config.AppConfig.Sheets.Endpoint,
		TokenProvider: sources.NewServiceAccountTokenProvider(
			config.AppConfig.Sheets.ClientEmail,
			config.AppConfig.Sheets.PrivateKey,
			config.AppConfig.Sheets.TokenURL,
		),
		Logger: utils.NewLogger("sheets"),
	})

	svc := dashboard.NewService(dashboard.Options{
		Reconciler:      reconciler.New(crm, sheets, readStore, config.AppConfig.PartnerID, utils.NewLogger("reconciler")),
		Notifications:   notifications.NewStore(readStore, utils.NewLogger("notifications"), 0),
		Notes:           crm,
		Sheets:          sheets,
		Admins:          readStore,
		RefreshInterval: config.AppConfig.RefreshInterval,
		Logger:          utils.NewLogger("dashboard"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Periodic refresh and read mark persistence
	go svc.Start(ctx)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "resellerdash",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})
	app.Use(recover.New())
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   middleware.ParseOrigins(config.AppConfig.CORSAllowedOrigins),
		AllowCredentials: true,
		AllowedMethods:   middleware.DefaultCORSConfig().AllowedMethods,
		AllowedHeaders:   middleware.DefaultCORSConfig().AllowedHeaders,
		ExposedHeaders:   middleware.DefaultCORSConfig().ExposedHeaders,
		MaxAge:           3600,
	}))

	routes.SetupRoutes(app, svc)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	// Start server
	logger.Infof("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
