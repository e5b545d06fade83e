package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/lab-scheduler/internal/application"
	"github.com/example/lab-scheduler/internal/config"
	httptransport "github.com/example/lab-scheduler/internal/http"
	"github.com/example/lab-scheduler/internal/persistence"
	"github.com/example/lab-scheduler/internal/persistence/memory"
	"github.com/example/lab-scheduler/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env file is fine; the environment takes precedence anyway.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	var (
		resourceRepo    persistence.ResourceRepository
		reservationRepo persistence.ReservationRepository
		health          httptransport.Pinger
	)

	switch cfg.Storage {
	case config.StorageMemory:
		store := memory.New()
		resourceRepo = store
		reservationRepo = store
		logger.Info("using in-memory storage")
	default:
		storage, err := sqlite.Open(cfg.SQLiteDSN)
		if err != nil {
			logger.Error("failed to open storage", "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := storage.Close(); cerr != nil {
				logger.Error("failed to close storage", "error", cerr)
			}
		}()

		if err := storage.Migrate(context.Background()); err != nil {
			logger.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}

		resourceRepo = storage
		reservationRepo = storage
		health = storage
		logger.Info("using sqlite storage", "dsn", cfg.SQLiteDSN)
	}

	idGenerator := uuid.NewString
	now := time.Now

	resourceAdapter := newResourceRepositoryAdapter(resourceRepo)
	reservationAdapter := newReservationRepositoryAdapter(reservationRepo)

	reservationService := application.NewReservationServiceWithLogger(reservationAdapter, resourceAdapter, cfg.MaxBlocksPerRequest, idGenerator, now, logger)
	resourceService := application.NewResourceServiceWithLogger(resourceAdapter, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Reservations: httptransport.NewReservationHandler(reservationService, logger),
		Resources:    httptransport.NewResourceHandler(resourceService, logger),
		Health:       health,
		Logger:       logger,
		CORSOrigins:  cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("lab scheduler API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
