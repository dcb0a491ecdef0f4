// Package migrations applies the SQL schema files in order, once each.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/ssis-app/ssis/internal/db"
)

const createVersionTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    VARCHAR(255) PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Migration is one schema file. Its version is the file name up to the first
// underscore, so 001_init.sql has version 001.
type Migration struct {
	Version string
	Name    string
}

// Discover lists the .sql files at the root of fsys in version order.
func Discover(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	seen := map[string]string{}
	var out []Migration
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		version, _, _ := strings.Cut(e.Name(), "_")
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %s", prev, e.Name(), version)
		}
		seen[version] = e.Name()
		out = append(out, Migration{Version: version, Name: e.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Migrator applies migrations against one database.
type Migrator struct {
	db  *db.PostgresDB
	log zerolog.Logger
}

// NewMigrator creates a migrator for database.
func NewMigrator(database *db.PostgresDB, log zerolog.Logger) *Migrator {
	return &Migrator{db: database, log: log}
}

// Up applies every migration of fsys not yet recorded. Each file runs in its
// own transaction together with its version record.
func (m *Migrator) Up(ctx context.Context, fsys fs.FS) error {
	migrations, err := Discover(fsys)
	if err != nil {
		return err
	}
	if _, err := m.db.Pool.Exec(ctx, createVersionTable); err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}

	applied := 0
	for _, mig := range migrations {
		ok, err := m.apply(ctx, fsys, mig)
		if err != nil {
			return fmt.Errorf("migration %s: %w", mig.Name, err)
		}
		if ok {
			applied++
		}
	}
	m.log.Info().Int("applied", applied).Int("total", len(migrations)).Msg("Schema is up to date")
	return nil
}

func (m *Migrator) apply(ctx context.Context, fsys fs.FS, mig Migration) (bool, error) {
	var done bool
	if err := m.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, mig.Version).Scan(&done); err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	if done {
		m.log.Debug().Str("file", mig.Name).Msg("Migration already applied, skipping")
		return false, nil
	}

	body, err := fs.ReadFile(fsys, mig.Name)
	if err != nil {
		return false, fmt.Errorf("failed to read migration file: %w", err)
	}

	m.log.Info().Str("file", mig.Name).Msg("Applying migration")
	err = m.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(body)); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, mig.Version)
		return err
	})
	return err == nil, err
}
