package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"rotacore/internal/infra/persistence/postgres/testutil"
	"rotacore/pkg/domain"
)

func withStub(t *testing.T) *testutil.StubConn {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	return conn
}

func leaderRow(name string, leader bool) domain.Row {
	weeks := 1
	return domain.Row{Name: name, Availability: make([]bool, domain.HorizonWeeks), NumWeeks: &weeks, IsLeader: &leader}
}

func TestNewStoreHydratesInPositionOrder(t *testing.T) {
	conn := withStub(t)
	for i, name := range []string{"Second", "First"} {
		payload, _ := json.Marshal(leaderRow(name, false))
		conn.Tables["availability_rows"] = append(conn.Tables["availability_rows"], map[string]any{
			"position": int64(1 - i),
			"name":     name,
			"payload":  payload,
		})
	}
	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	rows, err := store.ListRows(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "First" || rows[1].Name != "Second" {
		t.Fatalf("unexpected order %+v", rows)
	}
	if !strings.HasPrefix(strings.TrimSpace(conn.Execs[0]), "CREATE TABLE IF NOT EXISTS availability_rows") {
		t.Fatalf("expected table bootstrap first, got %v", conn.Execs)
	}
}

func TestMutationsRewriteTable(t *testing.T) {
	conn := withStub(t)
	ctx := context.Background()
	store, err := NewStore(ctx, "postgres://stub")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.UpsertRow(ctx, leaderRow("A", false)); err != nil {
		t.Fatalf("upsert A: %v", err)
	}
	if err := store.UpsertRow(ctx, leaderRow("B", false)); err != nil {
		t.Fatalf("upsert B: %v", err)
	}
	if err := store.SetLeaders(ctx, map[string]bool{"B": true}); err != nil {
		t.Fatalf("set leaders: %v", err)
	}
	table := conn.Tables["availability_rows"]
	if len(table) != 2 {
		t.Fatalf("expected 2 persisted rows, got %d", len(table))
	}
	var persisted domain.Row
	if err := json.Unmarshal(table[1]["payload"].([]byte), &persisted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if persisted.Name != "B" || !*persisted.IsLeader || table[1]["position"] != int64(1) {
		t.Fatalf("unexpected persisted row %+v at %v", persisted, table[1]["position"])
	}
	if conn.Commits != 3 {
		t.Fatalf("expected one commit per mutation, got %d", conn.Commits)
	}
}

func TestPersistFailureRollsBack(t *testing.T) {
	conn := withStub(t)
	ctx := context.Background()
	store, err := NewStore(ctx, "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	conn.FailExec["INSERT"] = true
	if err := store.UpsertRow(ctx, leaderRow("A", false)); err == nil {
		t.Fatalf("expected insert failure")
	}
	if conn.Rollbacks == 0 {
		t.Fatalf("expected rollback")
	}
	rows, _ := store.ListRows(ctx)
	if len(rows) != 0 {
		t.Fatalf("memory state must not advance when persistence fails")
	}
}

func TestNewStoreSurfacesStartupErrors(t *testing.T) {
	conn := withStub(t)
	conn.FailPing = true
	if _, err := NewStore(context.Background(), ""); err == nil || !strings.Contains(err.Error(), "ping") {
		t.Fatalf("expected ping error, got %v", err)
	}

	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return nil, errors.New("no driver") })
	defer restore()
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected open error")
	}
}
