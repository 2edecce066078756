package migrations

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/yigit/studentauth/internal/db"
)

func TestMigrator_UpSQLiteIsIdempotent(t *testing.T) {
	sqliteDB, err := db.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	t.Cleanup(func() { sqliteDB.Close() })

	m := NewMigrator(sqliteDB, SQLite, zerolog.Nop())
	ctx := context.Background()

	if err := m.Up(ctx); err != nil {
		t.Fatalf("first Up failed: %v", err)
	}
	if err := m.Up(ctx); err != nil {
		t.Fatalf("second Up failed: %v", err)
	}

	var versions int
	if err := sqliteDB.DB.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&versions); err != nil {
		t.Fatalf("failed to count migrations: %v", err)
	}
	if versions != 1 {
		t.Errorf("recorded migrations = %d, want 1", versions)
	}

	var table string
	err = sqliteDB.DB.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'students'`).Scan(&table)
	if err != nil {
		t.Fatalf("students table not created: %v", err)
	}
}

func TestMigrator_EmbeddedScriptsExistForEveryDialect(t *testing.T) {
	for _, d := range []Dialect{Postgres, SQLite} {
		entries, err := scripts.ReadDir("sql/" + string(d))
		if err != nil {
			t.Fatalf("no scripts for %s: %v", d, err)
		}
		if len(entries) == 0 {
			t.Errorf("no scripts for %s", d)
		}
	}
}
