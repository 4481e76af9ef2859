// Package main initializes and starts the selfcare recovery server,
// setting up configuration, logging, database connections, repositories,
// services, and handlers.
package main

import (
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/movitel/selfcare/internal/config"
	"github.com/movitel/selfcare/internal/db"
	"github.com/movitel/selfcare/internal/logger"
	"github.com/movitel/selfcare/internal/repository"
	"github.com/movitel/selfcare/internal/server/handler/http"
	"github.com/movitel/selfcare/internal/service"
	"go.uber.org/zap"
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
	addr := options.Port
	dbName := options.DatabaseDSN

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", orDefault(version, "N/A"))
	fmt.Printf("Build date: %s\n", orDefault(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(dbName)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Purge consumed and expired recovery tokens in the background.
	db.StartTokenCleaner(context.Background(), postgresDB,
		time.Hour, // interval
		zapLogger,
	)

	// Initialize the recovery repository and business-logic service.
	recoveryRepo := repository.NewPostgresRecoveryRepository(postgresDB)
	tokenTTL := time.Duration(options.TokenTTLMinutes) * time.Minute
	recoveryService := service.NewRecoveryService(recoveryRepo, tokenTTL, zapLogger)

	// Create the HTTP handler for the recovery endpoints.
	recoveryHandler := &http.RecoveryHandler{Service: recoveryService}

	// Build the router with middleware and routes.
	router := http.NewRouter(recoveryHandler, zapLogger)

	server := &nethttp.Server{
		Addr:    addr,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}

// orDefault returns v if it is non-empty, otherwise def
// (equivalent to cmp.Or for strings; inlined for Go 1.21 compatibility).
func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
