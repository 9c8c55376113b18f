package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/veida/internal/profile"
	"github.com/hrygo/veida/internal/version"
	"github.com/hrygo/veida/store"
	"github.com/hrygo/veida/store/db"
)

// NewTestingStore opens a migrated store for tests. SQLite in a temp dir is
// used unless DRIVER=postgres and POSTGRES_TEST_DSN point at a database.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()
	profile := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(profile)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(dbDriver, profile)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	if profile.Driver == "postgres" {
		resetPostgres(ctx, t, s)
	}
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	t.Helper()
	mode := "prod"
	driver := getDriverFromEnv()

	p := &profile.Profile{
		Mode:           mode,
		Driver:         driver,
		Version:        version.GetCurrentVersion(mode),
		Timezone:       "UTC",
		ReviewStrategy: "ratio",
	}
	switch driver {
	case "postgres":
		dsn := os.Getenv("POSTGRES_TEST_DSN")
		if dsn == "" {
			t.Skip("POSTGRES_TEST_DSN is not set")
		}
		p.DSN = dsn
	default:
		dir := t.TempDir()
		p.Data = dir
		p.DSN = filepath.Join(dir, fmt.Sprintf("veida_%s.db", mode))
	}
	return p
}

func getDriverFromEnv() string {
	if driver := os.Getenv("DRIVER"); driver != "" {
		return driver
	}
	return "sqlite"
}

// resetPostgres empties the shared test database so each test starts clean.
func resetPostgres(ctx context.Context, t *testing.T, s *store.Store) {
	t.Helper()
	stmt := `TRUNCATE flashcard_review, flashcard_review_date, flashcard, question, note, concept, course, account RESTART IDENTITY CASCADE`
	if _, err := s.GetDriver().GetDB().ExecContext(ctx, stmt); err != nil {
		t.Fatalf("failed to reset postgres: %v", err)
	}
}
