package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/dormmess/internal/models"
	"github.com/mmynk/dormmess/internal/storage/sqlstore"
)

// setupStore creates a store backed by a temporary SQLite database.
func setupStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Driver: sqlstore.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustUser(t *testing.T, store *sqlstore.Store, name string) *models.User {
	t.Helper()
	u := models.NewUser(name, name+"@example.com", "hash")
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
