package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"wordbuilder/internal/assessment"
	"wordbuilder/internal/config"
	"wordbuilder/internal/database"
	"wordbuilder/internal/handlers"
	"wordbuilder/internal/logging"
	"wordbuilder/internal/security"
	"wordbuilder/internal/service"
)

func main() {
	cfg := config.Load()

	logger, err := logging.Init(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logger.Sync()

	db, err := database.Initialize(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connection established", zap.String("type", cfg.DatabaseType))

	if err := db.RunMigrations(cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	engine := assessment.NewEngine(assessment.DefaultThresholds())
	progressService := service.NewProgressService(db, engine, logger)

	emailService, err := service.NewEmailService(context.Background(), cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, logger)
	if err != nil {
		logger.Fatal("Failed to initialize email service", zap.Error(err))
	}

	tokens := security.NewTokenService(cfg.JWTSecret, cfg.TokenLifetime)
	mw := handlers.NewMiddleware(tokens, logger)
	progressHandler := handlers.NewProgressHandler(progressService, logger)
	adminHandler := handlers.NewAdminHandler(cfg, tokens, progressService, emailService, logger)

	router := handlers.NewRouter(progressHandler, adminHandler, mw)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Shutdown did not complete cleanly", zap.Error(err))
	}
}
