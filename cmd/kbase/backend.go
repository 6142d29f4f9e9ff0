package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kbase/internal/config"
	"github.com/kailas-cloud/kbase/internal/db"
	"github.com/kailas-cloud/kbase/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/kbase/internal/db/redis"
	documentrepo "github.com/kailas-cloud/kbase/internal/repository/document"
	documentuc "github.com/kailas-cloud/kbase/internal/usecase/document"
	healthuc "github.com/kailas-cloud/kbase/internal/usecase/health"
)

// backend is the storage selected by database.driver.
type backend struct {
	repo   documentuc.Repository
	pinger healthuc.Pinger
	// kv is set only for the redis driver and backs the embedding cache.
	kv    db.KVStore
	close func()
}

func openBackend(ctx context.Context, cfg config.Config, migrate bool, logger *zap.Logger) (*backend, error) {
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second

	switch cfg.Database.Driver {
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, readiness); err != nil {
			store.Close()
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		logger.Info("Connected to database", zap.String("driver", config.DriverRedis),
			zap.Strings("addrs", cfg.Database.Addrs))
		return &backend{
			repo:   documentrepo.New(store, cfg.Storage.KeyPrefix),
			pinger: store,
			kv:     store,
			close:  store.Close,
		}, nil

	case config.DriverPostgres:
		pool, err := openPostgres(ctx, cfg, readiness)
		if err != nil {
			return nil, err
		}
		tables := postgres.NewTables(cfg.Database.TablePrefix)
		if migrate {
			if err := postgres.Migrate(ctx, pool, tables); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			logger.Info("Schema migrated", zap.String("table_prefix", cfg.Database.TablePrefix))
		}
		logger.Info("Connected to database", zap.String("driver", config.DriverPostgres))
		return &backend{
			repo:   documentrepo.NewPostgres(pool, tables),
			pinger: pool,
			close:  pool.Close,
		}, nil

	case config.DriverMemory:
		logger.Warn("Using in-memory document store; data is lost on restart")
		return &backend{
			repo:   documentrepo.NewMemory(),
			pinger: healthuc.NopPinger{},
			close:  func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
