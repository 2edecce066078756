package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/yigit/studentauth/internal/app/migrations"
	"github.com/yigit/studentauth/internal/app/repositories"
	"github.com/yigit/studentauth/internal/db"
	"github.com/yigit/studentauth/internal/metrics"
	"github.com/yigit/studentauth/internal/pkg/auth"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	repo     repositories.StudentRepository
	store    *CredentialStore
	service  *AuthService
	registry *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sqliteDB, err := db.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	t.Cleanup(func() { sqliteDB.Close() })

	if err := migrations.NewMigrator(sqliteDB, migrations.SQLite, zerolog.Nop()).Up(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	repo := repositories.NewSQLiteStudentRepository(sqliteDB.DB)
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      testSecret,
		AccessTokenExp: 24 * time.Hour,
		TokenIssuer:    "studentauth",
		Now:            func() time.Time { return fixedNow },
	})
	store := NewCredentialStore(repo, auth.NewPasswordHasher(bcrypt.MinCost), jwtService, zerolog.Nop())

	reg := prometheus.NewRegistry()
	service := NewAuthService(store, metrics.NewCollector(reg), zerolog.Nop())

	return &testEnv{repo: repo, store: store, service: service, registry: reg}
}

// counterValue returns the value of a labelled counter, or 0 when it was never incremented
func (e *testEnv) counterValue(t *testing.T, name, outcome string) float64 {
	t.Helper()
	families, err := e.registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
