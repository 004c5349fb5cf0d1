package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"trendflow/internal/platform/logger"
)

//go:embed migrations/*.sql migrations/ch/*.sql
var migrationsFS embed.FS

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Migration is one embedded schema file
type Migration struct {
	Version string
	SQL     string
}

// Migrations lists the embedded files under dir in version order
func Migrations(dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, err
	}
	out := make([]Migration, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Version: strings.TrimSuffix(e.Name(), ".sql"), SQL: string(b)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Migrate applies pending postgres migrations, each in its own transaction
func Migrate(ctx context.Context, db TxRunner, log logger.Logger) error {
	if _, err := db.Exec(ctx, migrationsTable); err != nil {
		return fmt.Errorf("migrate: bootstrap: %w", err)
	}
	applied, err := Many(ctx, db, func(r Row) (string, error) {
		var v string
		return v, r.Scan(&v)
	}, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("migrate: list applied: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	all, err := Migrations("migrations")
	if err != nil {
		return fmt.Errorf("migrate: read embedded: %w", err)
	}
	for _, m := range all {
		if done[m.Version] {
			continue
		}
		err := db.Tx(ctx, func(q RowQuerier) error {
			if _, err := q.Exec(ctx, m.SQL); err != nil {
				return err
			}
			_, err := q.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("migrate: %s: %w", m.Version, err)
		}
		log.Info().Str("version", m.Version).Msg("migration applied")
	}
	return nil
}

// MigrateCH creates the clickhouse tables, every statement is idempotent
func MigrateCH(ctx context.Context, c Clickhouse) error {
	all, err := Migrations("migrations/ch")
	if err != nil {
		return fmt.Errorf("migrate ch: read embedded: %w", err)
	}
	for _, m := range all {
		if err := c.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("migrate ch: %s: %w", m.Version, err)
		}
	}
	return nil
}
