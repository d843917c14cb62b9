package store

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/proconnect/backend/src/lib"
)

// Open builds the Store selected by cfg.StoreDriver
func Open(ctx context.Context, cfg lib.Config, log zerolog.Logger) (Store, error) {
	if cfg.StoreDriver == lib.DriverSQLite {
		return NewSQLite(cfg.DBPath, log)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DBTimeout)
	defer cancel()
	return NewMongo(ctx, cfg.MongoURL, cfg.MongoDB, log)
}
