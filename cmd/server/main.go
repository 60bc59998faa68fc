// Package main implements the entry point for the Flasheeta API server,
// which tracks spaced repetition progress for flashcards.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Mohamed-Rabiaa/Flasheeta/internal/config"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/domain/srs"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/platform/logger"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/platform/postgres"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/service/progress"
)

const shutdownTimeout = 10 * time.Second

// application bundles the initialized dependencies of the server.
type application struct {
	config          *config.Config
	logger          *slog.Logger
	db              *sql.DB
	progressService progress.Service
}

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() { _ = app.db.Close() }()

	if err := app.serve(); err != nil {
		app.logger.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// initializeApp loads configuration and sets up application components:
// logging, the database connection, migrations and the service layer.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)
	appLogger.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db, appLogger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	flashcardStore := postgres.NewPostgresFlashcardStore(db, appLogger)
	progressStore := postgres.NewPostgresProgressStore(db, appLogger)

	progressService := progress.NewService(
		flashcardStore,
		progressStore,
		srs.NewDefaultService(),
		progress.NewDBTxRunner(db),
		nil, // system clock
		appLogger,
	)

	return &application{
		config:          cfg,
		logger:          appLogger,
		db:              db,
		progressService: progressService,
	}, nil
}

// serve starts the HTTP server and blocks until shutdown.
func (app *application) serve() error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit

		app.logger.Info("shutting down server", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- server.Shutdown(ctx)
	}()

	app.logger.Info("starting server", slog.String("addr", server.Addr))

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdownErr; err != nil {
		return err
	}

	app.logger.Info("server stopped")
	return nil
}
