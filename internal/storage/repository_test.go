package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "dooto.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_GetSetDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, ok, err := repo.Get(ctx, "s1", "username"); err != nil || ok {
		t.Fatalf("Get() on empty store = ok %v, err %v", ok, err)
	}

	if err := repo.Set(ctx, "s1", "username", "alice"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Set(ctx, "s1", "username", "bob"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Set(ctx, "s2", "username", "carol"); err != nil {
		t.Fatal(err)
	}

	got, ok, err := repo.Get(ctx, "s1", "username")
	if err != nil || !ok || got != "bob" {
		t.Fatalf("Get() = %q, %v, %v; want bob", got, ok, err)
	}

	if err := repo.Delete(ctx, "s1", "username"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := repo.Get(ctx, "s1", "username"); ok {
		t.Error("key should be gone after Delete")
	}
	if got, _, _ := repo.Get(ctx, "s2", "username"); got != "carol" {
		t.Errorf("other session affected: %q", got)
	}
}

func TestSQLiteRepository_PurgeBefore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return base }
	repo.Set(ctx, "old", "username", "x")
	repo.now = func() time.Time { return base.Add(48 * time.Hour) }
	repo.Set(ctx, "new", "username", "y")

	n, err := repo.PurgeBefore(ctx, base.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
	if _, ok, _ := repo.Get(ctx, "new", "username"); !ok {
		t.Error("recent row should survive")
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	for i := 0; i < 2; i++ {
		if err := RunMigrations(path); err != nil {
			t.Fatalf("RunMigrations() pass %d error = %v", i+1, err)
		}
	}
}
