package test

import (
	"context"
	"os"
	"testing"

	"github.com/hrygo/alfred/internal/profile"
	"github.com/hrygo/alfred/store"
	"github.com/hrygo/alfred/store/db"
)

// NewTestingStore opens a migrated store. The driver comes from the DRIVER
// environment variable and defaults to sqlite in a temp dir.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()
	p := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(dbDriver, p)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func getTestingProfile(t *testing.T) *profile.Profile {
	dir := t.TempDir()
	p := &profile.Profile{
		Mode:   "dev",
		Data:   dir,
		Driver: getDriverFromEnv(),
	}
	if p.Driver == "postgres" {
		p.DSN = GetPostgresDSN(t)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("invalid testing profile: %v", err)
	}
	return p
}

func getDriverFromEnv() string {
	if driver := os.Getenv("DRIVER"); driver != "" {
		return driver
	}
	return "sqlite"
}
