package changestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	// Register sqlite driver
	_ "modernc.org/sqlite"

	"github.com/dshills/docforge/internal/transaction"
)

//go:embed sql/*.sql
var schemas embed.FS

// SQLiteStore persists change logs in a SQLite database. WAL mode lets
// readers replay a log while a writer appends to another document.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (or creates) the database at path and applies the embedded
// schema files in order.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL`,
		`PRAGMA busy_timeout=5000`,
		`PRAGMA synchronous=NORMAL`,
		`PRAGMA foreign_keys=ON`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if err := execSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// execSchema executes the embedded schema files in alphabetical order; the
// numeric prefixes make that order deterministic.
func execSchema(db *sql.DB) error {
	entries, err := fs.ReadDir(schemas, "sql")
	if err != nil {
		return fmt.Errorf("read schema directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := schemas.ReadFile("sql/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := db.Exec(string(data)); err != nil {
			return fmt.Errorf("exec %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// CreateDocument implements Store.
func (s *SQLiteStore) CreateDocument(ctx context.Context, id, schemaName, schemaID string, seed SeedFunc) (int, error) {
	initial, err := seed()
	if err != nil {
		return 0, fmt.Errorf("seed document %s: %w", id, err)
	}
	payload, err := EncodeChange(initial)
	if err != nil {
		return 0, fmt.Errorf("encode seed change: %w", err)
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer dbtx.Rollback()

	now := time.Now().UTC().Unix()
	if _, err := dbtx.ExecContext(ctx,
		`INSERT INTO documents (id, schema_name, schema_id, version, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?)`,
		id, schemaName, schemaID, now, now,
	); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %s", ErrAlreadyExists, id)
		}
		return 0, fmt.Errorf("insert document: %w", err)
	}
	if _, err := dbtx.ExecContext(ctx,
		`INSERT INTO changes (doc_id, seq, change_id, payload, created_at) VALUES (?, 1, ?, ?, ?)`,
		id, initial.ID, string(payload), now,
	); err != nil {
		return 0, fmt.Errorf("insert seed change: %w", err)
	}
	if err := dbtx.Commit(); err != nil {
		return 0, err
	}
	return 1, nil
}

// GetDocument implements Store.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (DocumentInfo, error) {
	var info DocumentInfo
	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, schema_name, schema_id, version, created_at, updated_at FROM documents WHERE id = ?`, id,
	).Scan(&info.ID, &info.SchemaName, &info.SchemaID, &info.Version, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return DocumentInfo{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("query document: %w", err)
	}
	info.CreatedAt = time.Unix(created, 0).UTC()
	info.UpdatedAt = time.Unix(updated, 0).UTC()
	return info, nil
}

// GetChanges implements Store.
func (s *SQLiteStore) GetChanges(ctx context.Context, id string, sinceVersion int) ([]transaction.Change, int, error) {
	version, err := s.GetVersion(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM changes WHERE doc_id = ? AND seq > ? ORDER BY seq`,
		id, sinceVersion,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()

	var out []transaction.Change
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, 0, fmt.Errorf("scan change: %w", err)
		}
		c, err := DecodeChange([]byte(payload))
		if err != nil {
			return nil, 0, fmt.Errorf("decode change: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, version, nil
}

// AddChange implements Store.
func (s *SQLiteStore) AddChange(ctx context.Context, id string, baseVersion int, c transaction.Change) (int, error) {
	payload, err := EncodeChange(c)
	if err != nil {
		return 0, fmt.Errorf("encode change: %w", err)
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer dbtx.Rollback()

	var current int
	err = dbtx.QueryRowContext(ctx, `SELECT version FROM documents WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return 0, fmt.Errorf("query version: %w", err)
	}
	if current != baseVersion {
		return 0, fmt.Errorf("%w: document at %d, change against %d", ErrVersionConflict, current, baseVersion)
	}

	now := time.Now().UTC().Unix()
	next := current + 1
	if _, err := dbtx.ExecContext(ctx,
		`INSERT INTO changes (doc_id, seq, change_id, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, next, c.ID, string(payload), now,
	); err != nil {
		return 0, fmt.Errorf("insert change: %w", err)
	}
	if _, err := dbtx.ExecContext(ctx,
		`UPDATE documents SET version = ?, updated_at = ? WHERE id = ?`,
		next, now, id,
	); err != nil {
		return 0, fmt.Errorf("update version: %w", err)
	}
	if err := dbtx.Commit(); err != nil {
		return 0, err
	}
	return next, nil
}

// GetVersion implements Store.
func (s *SQLiteStore) GetVersion(ctx context.Context, id string) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT version FROM documents WHERE id = ?`, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return 0, fmt.Errorf("query version: %w", err)
	}
	return version, nil
}

// ListDocuments implements Store.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, schema_name, schema_id, version, created_at, updated_at FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentInfo
	for rows.Next() {
		var info DocumentInfo
		var created, updated int64
		if err := rows.Scan(&info.ID, &info.SchemaName, &info.SchemaID, &info.Version, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		info.CreatedAt = time.Unix(created, 0).UTC()
		info.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteDocument implements Store.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// isUniqueViolation reports whether an error is a primary-key violation.
// The modernc driver does not export typed errors, so the message is checked.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
