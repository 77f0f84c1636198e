package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"goenrich/adapters/postgres"
	"goenrich/internal"
	"goenrich/internal/api"
	"goenrich/internal/config"
	"goenrich/internal/errors"
	"goenrich/ports"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()

	// Persistence is optional; without DATABASE_URL the server still
	// scores requests, it just cannot store or replay runs.
	var repo ports.RunRepository
	if appConfig.Database.Enabled() {
		db, err := initDatabase(appConfig)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		repo = postgres.NewRunRepository(db)
		logger.Info("[Main] run persistence enabled")
	} else {
		logger.Warn("[Main] DATABASE_URL not set, runs will not be persisted")
	}

	gin.SetMode(appConfig.Server.GinMode)
	server := api.NewServer(api.Options{
		Backend:    appConfig.Enrichment.PvalCalc,
		TestType:   appConfig.Enrichment.TestType,
		Alpha:      appConfig.Enrichment.Alpha,
		MaxWorkers: appConfig.Enrichment.MaxWorkers,
		Repo:       repo,
		Logger:     logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("🚀 Starting goenrich server on port %s", appConfig.Server.Port)
	if err := serve(ctx, server.Engine(), appConfig.Server); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
	log.Println("Server stopped")
}

// initDatabase connects to PostgreSQL and ensures the schema exists
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	if err := postgres.EnsureSchema(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "failed to ensure database schema")
	}

	return db, nil
}

// serve runs the HTTP server until ctx is cancelled, then drains
// in-flight requests within the configured shutdown timeout.
func serve(ctx context.Context, handler http.Handler, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
