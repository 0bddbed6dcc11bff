package domain

import "context"

// RowStore is the persistence boundary for raw availability rows. Rows are
// keyed by name and returned in first-insertion order.
type RowStore interface {
	ListRows(ctx context.Context) ([]Row, error)
	GetRow(ctx context.Context, name string) (Row, bool, error)
	UpsertRow(ctx context.Context, row Row) error
	DeleteRow(ctx context.Context, name string) (bool, error)
	// SetLeaders applies leader flags for every named row in one step.
	SetLeaders(ctx context.Context, leaders map[string]bool) error
}
