package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"arcade/internal/kv"
)

// getTestDB uses TEST_DATABASE_URL when set, otherwise a throwaway SQLite file.
func getTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		dsn = "sqlite://" + filepath.Join(t.TempDir(), "arcade.db")
	}
	database, err := Connect(dsn)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		database.conn.Exec("DELETE FROM personal_bests")
		database.Close()
	})
	return database
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn, driver, source string
		wantErr             bool
	}{
		{"postgres://u@localhost/arcade", driverPostgres, "postgres://u@localhost/arcade", false},
		{"postgresql://u@localhost/arcade", driverPostgres, "postgresql://u@localhost/arcade", false},
		{"sqlite:///tmp/arcade.db", driverSQLite, "/tmp/arcade.db", false},
		{"sqlite://arcade.db", driverSQLite, "arcade.db", false},
		{"file:arcade.db?cache=shared", driverSQLite, "file:arcade.db?cache=shared", false},
		{"", "", "", true},
		{"mysql://localhost/arcade", "", "", true},
	}
	for _, tt := range tests {
		driver, source, err := parseDSN(tt.dsn)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDSN(%q) error = %v, wantErr %v", tt.dsn, err, tt.wantErr)
			continue
		}
		if driver != tt.driver || source != tt.source {
			t.Errorf("parseDSN(%q) = %q, %q; want %q, %q", tt.dsn, driver, source, tt.driver, tt.source)
		}
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT 1 WHERE a = $1 AND b = $2"
	pg := &DB{driver: driverPostgres}
	if got := pg.rebind(q); got != q {
		t.Errorf("postgres rebind = %q, want unchanged", got)
	}
	lite := &DB{driver: driverSQLite}
	if got := lite.rebind(q); got != "SELECT 1 WHERE a = ? AND b = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestSplitKey(t *testing.T) {
	if p, n := splitKey("emp:42:memory_best"); p != "emp:42" || n != "memory_best" {
		t.Errorf("splitKey = %q, %q", p, n)
	}
	if p, n := splitKey("memory_best"); p != "" || n != "memory_best" {
		t.Errorf("splitKey unscoped = %q, %q", p, n)
	}
}

func TestConnect(t *testing.T) {
	database := getTestDB(t)
	if err := database.Ping(); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	database := getTestDB(t)
	if err := database.Migrate(); err != nil {
		t.Errorf("second Migrate() error: %v", err)
	}
}

func TestBestStore_GetSet(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()
	var store kv.Store = database.Bests()

	if _, ok, err := store.Get(ctx, "p1:memory_best"); err != nil || ok {
		t.Fatalf("Get() on empty table = ok %v, err %v", ok, err)
	}
	if err := store.Set(ctx, "p1:memory_best", 12); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := store.Set(ctx, "p1:memory_best", 9); err != nil {
		t.Fatalf("Set() overwrite error: %v", err)
	}
	v, ok, err := store.Get(ctx, "p1:memory_best")
	if err != nil || !ok || v != 9 {
		t.Errorf("Get() = %d, %v, %v; want 9, true, nil", v, ok, err)
	}
}

func TestBestStore_ScopedPlayersAreIsolated(t *testing.T) {
	database := getTestDB(t)
	ctx := context.Background()
	a := kv.Scoped(database.Bests(), "alice")
	b := kv.Scoped(database.Bests(), "bob")

	a.Set(ctx, "reaction_best", 210)
	if _, ok, _ := b.Get(ctx, "reaction_best"); ok {
		t.Error("bob should not see alice's best")
	}

	var player string
	database.conn.QueryRow(database.rebind("SELECT player_key FROM personal_bests WHERE name = $1"), "reaction_best").Scan(&player)
	if player != "alice" {
		t.Errorf("player_key = %q, want alice", player)
	}
}
