package shared

import (
	"cmp"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// migrationName matches "0000_create_sync_runs_up.sql".
var migrationName = regexp.MustCompile(`^(\d+)_(.+)_(up|down)\.sql$`)

// Migration is one versioned schema change with its inverse.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// loadMigrations reads the embedded scripts, sorted by version. Both directions are required.
func loadMigrations() ([]Migration, error) {
	paths, err := fs.Glob(migrationFiles, "sql/*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	byVersion := map[int]*Migration{}
	for _, p := range paths {
		m := migrationName.FindStringSubmatch(p[len("sql/"):])
		if m == nil {
			continue
		}
		version, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("bad migration version in %s: %w", p, err)
		}

		content, err := migrationFiles.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", p, err)
		}

		mig, ok := byVersion[version]
		if !ok {
			mig = &Migration{Version: version, Name: m[2]}
			byVersion[version] = mig
		}
		if m[3] == "up" {
			mig.Up = string(content)
		} else {
			mig.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		if mig.Up == "" || mig.Down == "" {
			return nil, fmt.Errorf("incomplete migration %d (%s)", mig.Version, mig.Name)
		}
		migrations = append(migrations, *mig)
	}
	slices.SortFunc(migrations, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })

	return migrations, nil
}

// RunMigrations applies every migration not yet recorded in schema_migrations, in version order.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	for _, mig := range migrations {
		if slices.Contains(applied, mig.Version) {
			continue
		}
		if err := migrate(ctx, db, mig.Up, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", mig.Version, mig.Name); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", mig.Version, mig.Name, err)
		}
	}

	return nil
}

// RollbackMigration reverts the most recently applied migration.
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	latest := applied[len(applied)-1]
	i := slices.IndexFunc(migrations, func(m Migration) bool { return m.Version == latest })
	if i < 0 {
		return fmt.Errorf("migration version %d not found", latest)
	}

	mig := migrations[i]
	if err := migrate(ctx, db, mig.Down, "DELETE FROM schema_migrations WHERE version = ?", mig.Version); err != nil {
		return fmt.Errorf("failed to rollback migration %d (%s): %w", mig.Version, mig.Name, err)
	}
	return nil
}

// appliedVersions creates the bookkeeping table if needed and returns recorded versions in ascending order.
func appliedVersions(ctx context.Context, db *sql.DB) ([]int, error) {
	const ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to check migration status: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// migrate runs script and the bookkeeping statement in one transaction.
func migrate(ctx context.Context, db *sql.DB, script, record string, args ...any) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}

	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		return err
	}
	return tx.Commit()
}

// splitStatements strips "--" comments and splits script on ";".
func splitStatements(script string) []string {
	var b strings.Builder
	for line := range strings.Lines(script) {
		if i := strings.Index(line, "--"); i >= 0 {
			line = line[:i] + "\n"
		}
		b.WriteString(line)
	}

	var stmts []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
