package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/proconnect/backend/src/controllers"
	"github.com/proconnect/backend/src/googleauth"
	"github.com/proconnect/backend/src/lib"
	"github.com/proconnect/backend/src/routes"
	"github.com/proconnect/backend/src/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := lib.LoadConfig()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := lib.NewLogger(cfg.LogLevel, cfg.LogFormat)

	app, db, err := newServer(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to start")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("driver", cfg.StoreDriver).Msg("Server is running")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := db.Close(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to close the database")
	}
}

// newServer connects the store and assembles the app. The caller owns the
// returned store and must close it.
func newServer(ctx context.Context, cfg lib.Config, log zerolog.Logger) (*fiber.App, store.Store, error) {
	db, err := store.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to the database: %w", err)
	}

	uploads, err := lib.NewUploads(cfg.UploadsDir)
	if err != nil {
		_ = db.Close(ctx)
		return nil, nil, fmt.Errorf("prepare uploads directory: %w", err)
	}

	if cfg.GoogleClientID == "" {
		log.Warn().Msg("GOOGLE_CLIENT_ID is not set, Google sign-in will be rejected")
	}
	google := googleauth.NewTokenVerifier(cfg.GoogleClientID, googleauth.RemoteKeys{
		URL:     googleauth.CertsURL,
		Timeout: cfg.DBTimeout,
	})

	h := controllers.NewHandler(db, uploads, google, log, cfg.DBTimeout)
	app := routes.NewApp(h, db, routes.Options{
		FrontendURL: cfg.FrontendURL,
		UploadsDir:  cfg.UploadsDir,
		Log:         log,
	})
	return app, db, nil
}
