// Package postgres persists availability rows to PostgreSQL through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"rotacore/internal/infra/persistence/memory"
	"rotacore/pkg/domain"
)

var _ domain.RowStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/rotacore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store mirrors the memory store into an availability_rows table.
type Store struct {
	*memory.Store
	db *sql.DB
}

// NewStore connects using dsn (falling back to a local default), ensures the
// table exists and hydrates the memory store from it.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{db: db}
	s.Store = memory.NewStore(memory.WithCommitHook(s.persist))
	s.ImportState(snapshot)
	return s, nil
}

func ensureTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS availability_rows (
		position INTEGER NOT NULL,
		name TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure rows table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT position, name, payload FROM availability_rows ORDER BY position`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type positioned struct {
		position int64
		row      domain.Row
	}
	var all []positioned
	for rows.Next() {
		var (
			position int64
			name     string
			payload  []byte
		)
		if err := rows.Scan(&position, &name, &payload); err != nil {
			return memory.Snapshot{}, fmt.Errorf("scan rows: %w", err)
		}
		var row domain.Row
		if err := json.Unmarshal(payload, &row); err != nil {
			return memory.Snapshot{}, fmt.Errorf("decode row %s: %w", name, err)
		}
		all = append(all, positioned{position: position, row: row})
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, fmt.Errorf("iterate rows: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].position < all[j].position })
	snapshot := memory.Snapshot{Rows: make([]domain.Row, len(all))}
	for i, p := range all {
		snapshot.Rows[i] = p.row
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context, snapshot memory.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `TRUNCATE TABLE availability_rows`); err != nil {
		return fmt.Errorf("truncate rows: %w", err)
	}
	for i, row := range snapshot.Rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode row %s: %w", row.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO availability_rows(position,name,payload) VALUES($1,$2,$3)`, int64(i), row.Name, payload); err != nil {
			return fmt.Errorf("insert row %s: %w", row.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
