package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, in file name order, each in its own transaction.
// It returns the versions it applied.
func Migrate(ctx context.Context, pool Pool, log zerolog.Logger) ([]string, error) {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	versions, err := migrationVersions()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, version := range versions {
		var exists int
		err := pool.QueryRow(ctx, `SELECT 1 FROM schema_migrations WHERE version = $1`, version).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return applied, fmt.Errorf("check migration %s: %w", version, err)
		}

		content, err := migrationFiles.ReadFile("migrations/" + version + ".sql")
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", version, err)
		}
		if err := applyMigration(ctx, pool, version, string(content)); err != nil {
			return applied, err
		}
		log.Info().Str("version", version).Msg("migration applied")
		applied = append(applied, version)
	}
	return applied, nil
}

func applyMigration(ctx context.Context, pool Pool, version, sql string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", version, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("execute migration %s: %w", version, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}

// migrationVersions lists the embedded migrations in apply order.
func migrationVersions() ([]string, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	for i, name := range names {
		names[i] = strings.TrimSuffix(strings.TrimPrefix(name, "migrations/"), ".sql")
	}
	return names, nil
}

// SchemaCheck implements ports.HealthChecker. It reports unhealthy when the
// database is unreachable or its newest applied migration is older than the
// newest one built into the binary.
type SchemaCheck struct {
	pool Pool
}

func NewSchemaCheck(pool Pool) *SchemaCheck {
	return &SchemaCheck{pool: pool}
}

func (h *SchemaCheck) Name() string {
	return "postgresql"
}

func (h *SchemaCheck) Ping(ctx context.Context) error {
	versions, err := migrationVersions()
	if err != nil {
		return err
	}
	want := versions[len(versions)-1]

	var have string
	err = h.pool.QueryRow(ctx, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&have)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("schema not migrated, want %s", want)
	}
	if err != nil {
		return err
	}
	if have < want {
		return fmt.Errorf("schema at %s, want %s", have, want)
	}
	return nil
}
