// Package main initializes and starts the refind registry server,
// setting up configuration, logging, database connections, repositories,
// services and handlers.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/dsmolkin/refind/internal/config"
	"github.com/dsmolkin/refind/internal/db"
	"github.com/dsmolkin/refind/internal/logger"
	"github.com/dsmolkin/refind/internal/matcher"
	"github.com/dsmolkin/refind/internal/repository"
	"github.com/dsmolkin/refind/internal/server/handler/http"
	"github.com/dsmolkin/refind/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if options.JWTSecret == "" {
		zapLogger.Fatal("JWT secret is required (set -s or JWT_SECRET)")
	}

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Purge listings that stayed resolved for a month.
	db.StartResolvedItemCleaner(context.Background(), postgresDB,
		time.Hour,       // interval
		30*24*time.Hour, // retention: 30 days
		zapLogger,
	)

	// Initialize repositories.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	itemRepo := repository.NewPostgresItemRepository(postgresDB)

	// Initialize business-logic services.
	secret := []byte(options.JWTSecret)
	tokenTTL := time.Duration(options.TokenTTLMinutes) * time.Minute
	authService := service.NewAuthService(userRepo, secret, tokenTTL)
	itemService := service.NewItemService(itemRepo)
	matchService := service.NewMatchService(itemRepo, matcher.New(options.MatcherURL))

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{AuthService: authService}
	itemHandler := &http.ItemHandler{ItemService: itemService, MatchService: matchService}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, itemHandler, secret, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
