package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

//go:embed sql
var scripts embed.FS

// Dialect selects the migration scripts for a database engine
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Runner is implemented by the database wrappers in internal/db.
// Apply must run the script and record version in one transaction.
type Runner interface {
	EnsureMigrationTable(ctx context.Context) error
	IsMigrationApplied(ctx context.Context, version string) (bool, error)
	ApplyMigration(ctx context.Context, version, script string) error
}

// Migrator manages database migrations
type Migrator struct {
	runner  Runner
	dialect Dialect
	files   fs.FS
	logger  zerolog.Logger
}

// NewMigrator creates a migrator over the embedded scripts for dialect
func NewMigrator(runner Runner, dialect Dialect, logger zerolog.Logger) *Migrator {
	return &Migrator{
		runner:  runner,
		dialect: dialect,
		files:   scripts,
		logger:  logger,
	}
}

// Up applies every pending migration in filename order
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.runner.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	dir := path.Join("sql", string(m.dialect))
	entries, err := fs.ReadDir(m.files, dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations for %s: %w", m.dialect, err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	for _, name := range sqlFiles {
		if err := m.applyFile(ctx, path.Join(dir, name)); err != nil {
			return err
		}
	}

	return nil
}

// applyFile executes a single script unless its version is already recorded
func (m *Migrator) applyFile(ctx context.Context, filePath string) error {
	// "001_create_students.sql" => "001"
	filename := path.Base(filePath)
	version := strings.SplitN(filename, "_", 2)[0]

	applied, err := m.runner.IsMigrationApplied(ctx, version)
	if err != nil {
		return err
	}
	if applied {
		m.logger.Debug().Str("migration", filename).Msg("Migration already applied, skipping")
		return nil
	}

	content, err := fs.ReadFile(m.files, filePath)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	if err := m.runner.ApplyMigration(ctx, version, string(content)); err != nil {
		return fmt.Errorf("migration %s failed: %w", filename, err)
	}

	m.logger.Info().Str("migration", filename).Str("dialect", string(m.dialect)).Msg("Migration applied")
	return nil
}
