package database

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// migration is one versioned schema change, read from an .sql file named
// NNN_description.sql
type migration struct {
	version int
	name    string
	sql     string
}

// Migrator applies versioned .sql files in order and records each applied
// version in schema_migrations, so reruns are no-ops.
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

// RunMigrations applies all pending migrations from a directory
func (m *Migrator) RunMigrations(dir string) error {
	if err := m.ensureVersionTable(); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	pending, err := m.pending(os.DirFS(dir))
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		m.logger.Info("Database schema up to date")
		return nil
	}

	for _, mig := range pending {
		m.logger.Info("Applying migration",
			zap.Int("version", mig.version),
			zap.String("name", mig.name))
		if err := m.apply(mig); err != nil {
			return fmt.Errorf("migration %03d_%s: %w", mig.version, mig.name, err)
		}
	}

	m.logger.Info("Database migrations applied", zap.Int("count", len(pending)))
	return nil
}

func (m *Migrator) ensureVersionTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// pending returns the migrations on disk that are not yet recorded, in
// version order
func (m *Migrator) pending(fsys fs.FS) ([]migration, error) {
	applied := make(map[int]bool)
	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("read applied versions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var out []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		mig, err := parseMigrationName(entry.Name())
		if err != nil {
			return nil, err
		}
		if applied[mig.version] {
			continue
		}
		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		mig.sql = string(content)
		out = append(out, mig)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func parseMigrationName(filename string) (migration, error) {
	base := strings.TrimSuffix(filename, ".sql")
	prefix, name, ok := strings.Cut(base, "_")
	if !ok {
		return migration{}, fmt.Errorf("migration filename %q: want NNN_description.sql", filename)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil || version <= 0 {
		return migration{}, fmt.Errorf("migration filename %q: bad version prefix", filename)
	}
	return migration{version: version, name: name}, nil
}

// apply runs one migration and records its version in the same transaction
func (m *Migrator) apply(mig migration) error {
	return m.db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(mig.sql); err != nil {
			return err
		}
		_, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			mig.version, mig.name)
		return err
	})
}
