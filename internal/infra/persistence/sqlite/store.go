// Package sqlite persists availability rows to an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"rotacore/internal/infra/persistence/memory"
	"rotacore/pkg/domain"
)

var _ domain.RowStore = (*Store)(nil)

// DefaultPath is used when no database path is configured.
const DefaultPath = "rotacore.db"

// Store serves reads from the embedded memory store and rewrites the rows
// table inside one SQL transaction on every commit.
type Store struct {
	*memory.Store
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database at path and loads existing rows.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer keeps commits serialised with the memory store lock
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS availability_rows (
		position INTEGER NOT NULL,
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create rows table: %w", err)
	}
	s := &Store{db: db, path: path}
	s.Store = memory.NewStore(memory.WithCommitHook(s.persist))
	snapshot, err := load(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ImportState(snapshot)
	return s, nil
}

func load(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT position, name, payload FROM availability_rows ORDER BY position`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select rows: %w", err)
	}
	defer func() { _ = rows.Close() }()
	type stored struct {
		position int
		row      domain.Row
	}
	var all []stored
	for rows.Next() {
		var (
			rec     stored
			name    string
			payload []byte
		)
		if err := rows.Scan(&rec.position, &name, &payload); err != nil {
			return memory.Snapshot{}, fmt.Errorf("scan: %w", err)
		}
		if err := json.Unmarshal(payload, &rec.row); err != nil {
			return memory.Snapshot{}, fmt.Errorf("decode row %s: %w", name, err)
		}
		all = append(all, rec)
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, fmt.Errorf("iterate rows: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].position < all[j].position })
	snapshot := memory.Snapshot{Rows: make([]domain.Row, len(all))}
	for i, rec := range all {
		snapshot.Rows[i] = rec.row
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context, snapshot memory.Snapshot) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM availability_rows`); err != nil {
		return fmt.Errorf("clear rows: %w", err)
	}
	for i, row := range snapshot.Rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode row %s: %w", row.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO availability_rows(position,name,payload) VALUES(?,?,?)`, i, row.Name, payload); err != nil {
			return fmt.Errorf("insert row %s: %w", row.Name, err)
		}
	}
	return tx.Commit()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
