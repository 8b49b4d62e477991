package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/deppfellow/account-gateway/internal/config"
	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
)

// Both engines read the same files. tern understands the
// "---- create above / drop below ----" marker; the SQLite runner only
// executes the part above it.
//
//go:embed migrations/*.sql
var migrations embed.FS

const migrationSplitMarker = "---- create above / drop below ----"

// Migrate runs the embedded migrations against PostgreSQL using jackc/tern.
//
// Behavior:
//   - connect with a single pgx connection (not the pool)
//   - load embedded migrations and migrate to latest, tracking the
//     version in schema_version
//   - log whether anything changed
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	conn, err := pgx.Connect(ctx, PostgresDSN(cfg.Database))
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, "schema_version")
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	subtree, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("retrieving database migrations subtree: %w", err)
	}

	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	if err := m.Migrate(ctx); err != nil {
		return err
	}

	if from == int32(len(m.Migrations)) {
		logger.Info().Msgf("database schema up to date, version %d", len(m.Migrations))
	} else {
		logger.Info().Msgf("migrated database schema, from %d to %d", from, len(m.Migrations))
	}
	return nil
}

type sqliteMigration struct {
	Version int
	Name    string
	SQL     string
}

// loadSQLiteMigrations reads the embedded files in version order, keeping
// only the "create" half of each.
func loadSQLiteMigrations() ([]sqliteMigration, error) {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading embedded migrations: %w", err)
	}

	var out []sqliteMigration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: missing version prefix", name)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s: invalid version prefix: %w", name, err)
		}

		body, err := fs.ReadFile(migrations, "migrations/"+name)
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", name, err)
		}
		up, _, _ := strings.Cut(string(body), migrationSplitMarker)

		out = append(out, sqliteMigration{
			Version: version,
			Name:    strings.TrimSuffix(name, ".sql"),
			SQL:     up,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// migrateSQLite applies every migration newer than the highest version
// recorded in schema_migrations, each in its own transaction.
func migrateSQLite(ctx context.Context, db *sql.DB, logger *zerolog.Logger) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var from int
	err = db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&from)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	pending, err := loadSQLiteMigrations()
	if err != nil {
		return err
	}

	latest := from
	for _, migration := range pending {
		if migration.Version <= from {
			continue
		}

		logger.Debug().Int("version", migration.Version).Str("name", migration.Name).Msg("applying migration")

		if err := applySQLiteMigration(ctx, db, migration); err != nil {
			return err
		}
		latest = migration.Version
	}

	if latest == from {
		logger.Info().Msgf("database schema up to date, version %d", from)
	} else {
		logger.Info().Msgf("migrated database schema, from %d to %d", from, latest)
	}
	return nil
}

func applySQLiteMigration(ctx context.Context, db *sql.DB, migration sqliteMigration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
	}
	defer tx.Rollback()

	for i, stmt := range splitSQLStatements(migration.SQL) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d statement %d failed: %w", migration.Version, i+1, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", migration.Version); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	return tx.Commit()
}

// splitSQLStatements drops "--" comment lines and splits on semicolons,
// returning the non-empty statements.
func splitSQLStatements(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	var statements []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
