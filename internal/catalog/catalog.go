// Package catalog provides a SQLite-backed dataset catalog.
//
// The catalog is the persistent source of a schema.Registry: the CLI
// manages datasets here and validates queries against a Registry snapshot.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
//
// Listings are ordered by id COLLATE BINARY so output is deterministic.
package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/insightq/internal/schema"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on datasets.kind
const currentSchemaVersion = 1

var (
	// ErrNotFound is returned when a dataset id is not in the catalog.
	ErrNotFound = errors.New("dataset not found")
	// ErrExists is returned when adding an id that is already registered.
	ErrExists = errors.New("dataset already exists")
)

// Catalog stores dataset registrations.
type Catalog struct {
	db *sql.DB
}

// Open creates or opens a catalog database at the given path.
// Applies required pragmas and migrations automatically; safe to call
// repeatedly on the same file.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Add registers a dataset. The id must be usable as a query key prefix and
// the kind must be known.
func (c *Catalog) Add(ctx context.Context, d schema.Dataset) error {
	if err := schema.ValidateID(d.ID); err != nil {
		return fmt.Errorf("add dataset: %w", err)
	}
	if _, err := schema.ParseKind(string(d.Kind)); err != nil {
		return fmt.Errorf("add dataset %q: %w", d.ID, err)
	}
	if d.Rows < 0 {
		return fmt.Errorf("add dataset %q: rows must be non-negative, got %d", d.ID, d.Rows)
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO datasets (id, kind, row_count, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM datasets))
	`, d.ID, string(d.Kind), d.Rows)
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return fmt.Errorf("add dataset %q: %w", d.ID, ErrExists)
		}
		return fmt.Errorf("add dataset %q: %w", d.ID, err)
	}
	return nil
}

// Remove deletes a dataset registration.
// Returns ErrNotFound if id is not registered.
func (c *Catalog) Remove(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove dataset %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove dataset %q: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("remove dataset %q: %w", id, ErrNotFound)
	}
	return nil
}

// Get returns a single dataset.
// Returns ErrNotFound if id is not registered.
func (c *Catalog) Get(ctx context.Context, id string) (schema.Dataset, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, kind, row_count FROM datasets WHERE id = ?
	`, id)
	d, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Dataset{}, fmt.Errorf("get dataset %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("get dataset %q: %w", id, err)
	}
	return d, nil
}

// List returns all datasets ordered by id.
func (c *Catalog) List(ctx context.Context) ([]schema.Dataset, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, kind, row_count
		FROM datasets
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()

	var datasets []schema.Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}

	if datasets == nil {
		datasets = []schema.Dataset{}
	}

	return datasets, nil
}

// Registry returns an immutable snapshot of the catalog.
// Later changes to the catalog do not affect the snapshot.
func (c *Catalog) Registry(ctx context.Context) (*schema.Memory, error) {
	datasets, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	reg, err := schema.NewMemory(datasets...)
	if err != nil {
		return nil, fmt.Errorf("catalog snapshot: %w", err)
	}
	return reg, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(s scanner) (schema.Dataset, error) {
	var (
		d    schema.Dataset
		kind string
	)
	if err := s.Scan(&d.ID, &kind, &d.Rows); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schema.Dataset{}, err
		}
		return schema.Dataset{}, fmt.Errorf("scan dataset: %w", err)
	}
	d.Kind = schema.Kind(kind)
	return d, nil
}

func isPrimaryKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_datasets_kind ON datasets(kind)`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (c *Catalog) verifyPragma(name, expected string) error {
	var value string
	if err := c.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
