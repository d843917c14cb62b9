package main

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proconnect/backend/src/lib"
)

func TestNewServerWithSQLite(t *testing.T) {
	dir := t.TempDir()
	cfg := lib.Config{
		StoreDriver: lib.DriverSQLite,
		DBPath:      filepath.Join(dir, "proconnect.db"),
		DBTimeout:   5 * time.Second,
		UploadsDir:  filepath.Join(dir, "uploads"),
		FrontendURL: "http://localhost:5173",
	}

	app, db, err := newServer(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(context.Background()) })

	req, err := http.NewRequest(http.MethodGet, "/health", nil)
	require.NoError(t, err)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.DirExists(t, cfg.UploadsDir)
}

func TestNewServerBadUploadsDir(t *testing.T) {
	dir := t.TempDir()
	cfg := lib.Config{
		StoreDriver: lib.DriverSQLite,
		DBPath:      filepath.Join(dir, "proconnect.db"),
		DBTimeout:   5 * time.Second,
		// a file where the directory should be
		UploadsDir: filepath.Join(dir, "proconnect.db"),
	}

	_, _, err := newServer(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "uploads directory")
}
