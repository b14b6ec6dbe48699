package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"depo-backend/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrator applies the embedded schema migrations in filename order.
type Migrator struct {
	pool  *pgxpool.Pool
	files fs.FS
}

// NewMigrator creates a migration runner over the embedded migrations.
//
// Parameters:
//   - pool: PostgreSQL connection pool
//
// Returns:
//   - *Migrator: New migrator instance
func NewMigrator(pool *pgxpool.Pool) *Migrator {
	sub, _ := fs.Sub(migrationFS, "migrations")
	return &Migrator{pool: pool, files: sub}
}

// PendingFiles returns the migration filenames in execution order, skipping
// reset scripts.
func PendingFiles(files fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") || strings.Contains(e.Name(), "reset") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// RunMigrations executes all pending database migrations
//
// This function:
//  1. Creates the schema_migrations tracking table if it doesn't exist
//  2. Skips migrations that have already been recorded there
//  3. Executes each new migration inside its own transaction
//
// Returns:
//   - int: Number of migrations applied
//   - error: If any migration fails
func (m *Migrator) RunMigrations(ctx context.Context) (int, error) {
	log := logger.WithComponent("Migrator")

	if err := m.createMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}
	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	names, err := PendingFiles(m.files)
	if err != nil {
		return 0, fmt.Errorf("failed to read migrations: %w", err)
	}

	run := 0
	for _, name := range names {
		if applied[name] {
			log.WithField("file", name).Debug("already applied")
			continue
		}
		content, err := fs.ReadFile(m.files, name)
		if err != nil {
			return run, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		log.WithField("file", name).Info("running migration")
		if err := m.apply(ctx, name, string(content)); err != nil {
			return run, fmt.Errorf("failed to run migration %s: %w", name, err)
		}
		run++
	}

	if run > 0 {
		log.Infof("applied %d new migration(s)", run)
	} else {
		log.Info("database schema is up to date")
	}
	return run, nil
}

func (m *Migrator) apply(ctx context.Context, name, sql string) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, sql); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO schema_migrations (filename) VALUES ($1) ON CONFLICT (filename) DO NOTHING`, name); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	return err
}

func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := m.pool.Query(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, err
		}
		applied[filename] = true
	}
	return applied, rows.Err()
}

const resetScript = "reset_data.sql"

// ResetData runs the embedded reset script in one transaction. It is never
// part of RunMigrations.
func (m *Migrator) ResetData(ctx context.Context) error {
	content, err := fs.ReadFile(m.files, resetScript)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", resetScript, err)
	}
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(content)); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	return tx.Commit(ctx)
}
