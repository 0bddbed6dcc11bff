// Package memory provides the in-memory availability row store. The SQL
// backed stores embed it and persist its snapshot on every commit.
package memory

import (
	"context"
	"sync"

	"rotacore/pkg/domain"
)

var _ domain.RowStore = (*Store)(nil)

// Snapshot is the serialisable state of a Store: rows in insertion order.
type Snapshot struct {
	Rows []domain.Row `json:"rows"`
}

// CommitHook runs with the store locked, before a transaction's state becomes
// visible. Returning an error discards the transaction.
type CommitHook func(ctx context.Context, snapshot Snapshot) error

type state struct {
	rows  []domain.Row
	index map[string]int
}

func newState() state {
	return state{index: make(map[string]int)}
}

func (s state) clone() state {
	cp := state{rows: make([]domain.Row, len(s.rows)), index: make(map[string]int, len(s.index))}
	for i, row := range s.rows {
		cp.rows[i] = row.Clone()
		cp.index[row.Name] = i
	}
	return cp
}

func (s state) snapshot() Snapshot {
	return Snapshot{Rows: s.clone().rows}
}

func stateFromSnapshot(snap Snapshot) state {
	st := newState()
	for _, row := range snap.Rows {
		if i, ok := st.index[row.Name]; ok {
			st.rows[i] = row.Clone()
			continue
		}
		st.index[row.Name] = len(st.rows)
		st.rows = append(st.rows, row.Clone())
	}
	return st
}

// Store keeps availability rows keyed by name in first-insertion order.
type Store struct {
	mu     sync.RWMutex
	state  state
	commit CommitHook
}

// Option configures a Store.
type Option func(*Store)

// WithCommitHook installs a hook that must succeed for a transaction to commit.
func WithCommitHook(hook CommitHook) Option {
	return func(s *Store) { s.commit = hook }
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{state: newState()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transaction mutates a private copy of the store state.
type Transaction struct {
	state *state
}

// Upsert inserts row or replaces the existing row with the same name in place.
func (tx *Transaction) Upsert(row domain.Row) error {
	if row.Name == "" {
		return domain.MissingFieldError{Row: len(tx.state.rows), Field: "name"}
	}
	if i, ok := tx.state.index[row.Name]; ok {
		tx.state.rows[i] = row.Clone()
		return nil
	}
	tx.state.index[row.Name] = len(tx.state.rows)
	tx.state.rows = append(tx.state.rows, row.Clone())
	return nil
}

// Delete removes the named row, reporting whether it existed.
func (tx *Transaction) Delete(name string) bool {
	i, ok := tx.state.index[name]
	if !ok {
		return false
	}
	tx.state.rows = append(tx.state.rows[:i], tx.state.rows[i+1:]...)
	delete(tx.state.index, name)
	for j := i; j < len(tx.state.rows); j++ {
		tx.state.index[tx.state.rows[j].Name] = j
	}
	return true
}

// SetLeader sets the leader flag on the named row.
func (tx *Transaction) SetLeader(name string, leader bool) error {
	i, ok := tx.state.index[name]
	if !ok {
		return domain.ErrNotFound{Entity: "row", ID: name}
	}
	flag := leader
	tx.state.rows[i].IsLeader = &flag
	return nil
}

// RunInTransaction applies fn to a copy of the state and commits it when fn and
// the commit hook both succeed.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(&Transaction{state: &working}); err != nil {
		return err
	}
	if s.commit != nil {
		if err := s.commit(ctx, working.snapshot()); err != nil {
			return err
		}
	}
	s.state = working
	return nil
}

// ListRows implements domain.RowStore.
func (s *Store) ListRows(ctx context.Context) ([]domain.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone().rows, nil
}

// GetRow implements domain.RowStore.
func (s *Store) GetRow(ctx context.Context, name string) (domain.Row, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Row{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.state.index[name]
	if !ok {
		return domain.Row{}, false, nil
	}
	return s.state.rows[i].Clone(), true, nil
}

// UpsertRow implements domain.RowStore.
func (s *Store) UpsertRow(ctx context.Context, row domain.Row) error {
	return s.RunInTransaction(ctx, func(tx *Transaction) error {
		return tx.Upsert(row)
	})
}

// DeleteRow implements domain.RowStore.
func (s *Store) DeleteRow(ctx context.Context, name string) (bool, error) {
	var removed bool
	err := s.RunInTransaction(ctx, func(tx *Transaction) error {
		removed = tx.Delete(name)
		return nil
	})
	return removed, err
}

// SetLeaders implements domain.RowStore. An unknown name aborts the whole update.
func (s *Store) SetLeaders(ctx context.Context, leaders map[string]bool) error {
	return s.RunInTransaction(ctx, func(tx *Transaction) error {
		for name, flag := range leaders {
			if err := tx.SetLeader(name, flag); err != nil {
				return err
			}
		}
		return nil
	})
}

// ExportState returns a deep copy of the current state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.snapshot()
}

// ImportState replaces the current state without running the commit hook.
// Rows sharing a name collapse onto the first position with the last value.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromSnapshot(snap)
}
