package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("store: key not found")

// CurrentUserKey is the process-wide key selecting the active user. It is
// the only key that is not namespaced by user id.
const CurrentUserKey = "current_user"

const kvTableName = "kv"

var (
	kvColumns = []*schema.Column{
		{Name: "key", Type: field.TypeString},
		{Name: "value", Type: field.TypeString, Size: 2147483647},
		{Name: "updated_at", Type: field.TypeTime},
	}
	kvTable = &schema.Table{
		Name:       kvTableName,
		Columns:    kvColumns,
		PrimaryKey: []*schema.Column{kvColumns[0]},
	}
)

// Store is a string key/value surface persisted in SQLite.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
	now func() time.Time
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and runs auto-migration.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(context.Background(), drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{db: db, drv: drv, now: time.Now}, nil
}

func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, kvTable)
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.drv.Close()
}

// Get returns the value stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("value").
		From(entsql.Table(kvTableName)).
		Where(entsql.EQ("key", key)).
		Query()

	var value string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Set writes value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(kvTableName).
		Columns("key", "value", "updated_at").
		Values(key, value, s.now().UTC()).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(kvTableName).
		Where(entsql.EQ("key", key)).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// CurrentUser returns the persisted active user id, or "" if none is set.
func (s *Store) CurrentUser(ctx context.Context) (string, error) {
	id, err := s.Get(ctx, CurrentUserKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return id, err
}

// SetCurrentUser persists the active user id.
func (s *Store) SetCurrentUser(ctx context.Context, userID string) error {
	return s.Set(ctx, CurrentUserKey, userID)
}

// Namespace returns a KV view whose keys are prefixed with "{userID}_".
func (s *Store) Namespace(userID string) *Namespace {
	return &Namespace{store: s, prefix: userID + "_"}
}

// KV is the get/set surface the progress and sync layers depend on.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Namespace scopes every key to a single user.
type Namespace struct {
	store  *Store
	prefix string
}

// Key returns the fully qualified storage key for a logical key.
func (n *Namespace) Key(logical string) string {
	return n.prefix + logical
}

func (n *Namespace) Get(ctx context.Context, key string) (string, error) {
	return n.store.Get(ctx, n.Key(key))
}

func (n *Namespace) Set(ctx context.Context, key, value string) error {
	return n.store.Set(ctx, n.Key(key), value)
}

func (n *Namespace) Delete(ctx context.Context, key string) error {
	return n.store.Delete(ctx, n.Key(key))
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
