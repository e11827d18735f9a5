package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is covered by TestOpenFile.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "studyplan.db")
	if err := EnsureDir(path); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestGetSetDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) err = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "v2" {
		t.Errorf("Get(k) = %q, want v2", got)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("delete missing key: %v", err)
	}
}

func TestNamespaceIsolation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	alice := s.Namespace("alice")
	bob := s.Namespace("bob")

	if err := alice.Set(ctx, "completion", `{"t1":true}`); err != nil {
		t.Fatal(err)
	}
	if err := bob.Set(ctx, "completion", `{"t2":true}`); err != nil {
		t.Fatal(err)
	}

	a, _ := alice.Get(ctx, "completion")
	b, _ := bob.Get(ctx, "completion")
	if a != `{"t1":true}` || b != `{"t2":true}` {
		t.Errorf("namespaces leaked: alice=%q bob=%q", a, b)
	}

	raw, err := s.Get(ctx, "alice_completion")
	if err != nil {
		t.Fatalf("raw key: %v", err)
	}
	if raw != a {
		t.Errorf("raw key = %q, want %q", raw, a)
	}

}

func TestCurrentUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.CurrentUser(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if id != "" {
		t.Errorf("CurrentUser() = %q before set, want empty", id)
	}

	if err := s.SetCurrentUser(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	id, _ = s.CurrentUser(ctx)
	if id != "alice" {
		t.Errorf("CurrentUser() = %q, want alice", id)
	}

	// The selector key is global, not namespaced.
	if _, err := s.Namespace("alice").Get(ctx, CurrentUserKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("current user leaked into namespace: %v", err)
	}
}
