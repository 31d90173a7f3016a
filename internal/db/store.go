package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	appMigrations "github.com/yigit/rosterhub/internal/app/migrations"
	"github.com/yigit/rosterhub/internal/config"
	"github.com/yigit/rosterhub/internal/pkg/docstore"
	"github.com/yigit/rosterhub/internal/pkg/docstore/memstore"
	"github.com/yigit/rosterhub/internal/pkg/docstore/mongostore"
	"github.com/yigit/rosterhub/internal/pkg/docstore/pgstore"
)

// OpenStore connects the document store selected by database.driver. It
// fails if the backend cannot be pinged.
func OpenStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (docstore.Store, error) {
	lgr = lgr.With().Str("driver", cfg.Database.Driver).Logger()

	switch cfg.Database.Driver {
	case config.DriverMongo:
		store, err := mongostore.Connect(ctx, mongostore.Config{
			URI:              cfg.Database.URI,
			Database:         cfg.Database.DBName,
			ConnectTimeout:   cfg.ConnectTimeout(),
			OperationTimeout: cfg.OperationTimeout(),
			MaxPoolSize:      uint64(cfg.Database.MaxOpenConns),
		})
		if err != nil {
			return nil, err
		}
		lgr.Info().Str("database", cfg.Database.DBName).Msg("Connected to MongoDB")
		return store, nil

	case config.DriverPostgres:
		pool, err := NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", docstore.ErrUnavailable, err)
		}

		lgr.Info().Str("dir", cfg.Database.MigrationsDir).Msg("Running database migrations...")
		migrator := appMigrations.NewMigrator(pool)
		if err := migrator.MigrateFromDirectory(ctx, cfg.Database.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("database migrations failed: %w", err)
		}
		lgr.Info().Msg("Connected to PostgreSQL, migrations applied")
		return pgstore.New(pool, cfg.OperationTimeout()), nil

	case config.DriverMemory:
		lgr.Warn().Msg("Using the in-memory store; data is lost on restart")
		return memstore.New(cfg.OperationTimeout()), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
