package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"marker-mind/stores/storetest"
)

func setupTestDB(t *testing.T) *sqliteStore {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, setupTestDB(t))
}

func TestNewStore_CreatesTable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := NewStore(dbPath)
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("NewStore() did not create database file")
	}

	var tableName string
	err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='boards'").Scan(&tableName)
	if err != nil {
		t.Fatalf("boards table not created: %v", err)
	}
}

func TestDriverMatchesBuild(t *testing.T) {
	want := "sqlite"
	if CGOEnabled {
		want = "sqlite3"
	}
	if driverName != want {
		t.Errorf("driverName = %q, want %q", driverName, want)
	}
}
