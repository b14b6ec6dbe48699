package main

import (
	"context"
	"errors"
	"fmt"

	"depo-backend/internal/config"
	"depo-backend/internal/database"
	"depo-backend/internal/db"
	"depo-backend/internal/logger"
	"depo-backend/internal/store"
	"depo-backend/internal/store/local"
	"depo-backend/internal/store/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

var errDatabaseDisabled = errors.New("database is not configured (set DB_HOST or database.enabled)")

// storage is the opened persistence stack. Pool is nil when the service runs
// on the local store alone.
type storage struct {
	Backend store.Backend
	Pool    *pgxpool.Pool
	local   *local.Backend
}

func (s *storage) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
	if s.local != nil {
		_ = s.local.Close()
	}
}

// openStorage opens the local store and, when configured, the remote one with
// its migrations applied. An unreachable remote at startup is not fatal: the
// service starts on the local store.
func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	log := logger.WithComponent("Storage")

	lb, err := local.Open(local.Options{Path: cfg.Storage.LocalPath, InMemory: cfg.Storage.InMemory})
	if err != nil {
		return nil, err
	}
	s := &storage{Backend: lb, local: lb}

	if !cfg.Database.Enabled {
		log.WithField("path", cfg.Storage.LocalPath).Info("no database configured, using the local store only")
		return s, nil
	}

	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Warn("database unreachable, using the local store only")
		return s, nil
	}
	if _, err := database.NewMigrator(pool).RunMigrations(ctx); err != nil {
		pool.Close()
		s.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	fb := store.NewFallback(postgres.New(pool), lb, logger.WithComponent("Fallback"))
	fb.Cooldown = cfg.Storage.RemoteCooldown
	s.Backend, s.Pool = fb, pool
	log.WithField("backend", fb.Name()).Info("storage ready")
	return s, nil
}

// openDatabase is the remote-only path used by the maintenance commands.
func openDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if !cfg.Database.Enabled {
		return nil, errDatabaseDisabled
	}
	return db.Connect(ctx, cfg.Database)
}
