package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"rotacore/internal/blob"
	"rotacore/internal/solver"
	"rotacore/pkg/domain"
)

func TestArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	archive := NewArchive(blob.NewMemory())
	gen := Generation{
		ID:        "gen-1",
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Horizon:   2,
		Weights:   DefaultWeights(),
		Requested: 1,
		Samples:   []Sample{{Seed: 0, Status: solver.StatusOptimal, Objective: 12}},
		Attempts:  []Attempt{{Seed: 0, Status: solver.StatusOptimal, Objective: 12, Improvements: 4}},
	}
	if err := archive.Save(ctx, gen); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := archive.Save(ctx, gen); !errors.Is(err, blob.ErrExists) {
		t.Fatalf("generations are immutable, got %v", err)
	}
	loaded, err := archive.Load(ctx, "gen-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Samples[0].Status != solver.StatusOptimal || loaded.Weights != gen.Weights || !loaded.CreatedAt.Equal(gen.CreatedAt) {
		t.Fatalf("unexpected round trip %+v", loaded)
	}
	if loaded.Outcome() != OutcomeSolved {
		t.Fatalf("expected solved, got %s", loaded.Outcome())
	}
	infos, err := archive.List(ctx)
	if err != nil || len(infos) != 1 || infos[0].ID != "gen-1" {
		t.Fatalf("unexpected list %+v err=%v", infos, err)
	}
	if _, err := archive.URL(ctx, "gen-1", time.Minute); !errors.Is(err, blob.ErrUnsupported) {
		t.Fatalf("memory backend cannot sign URLs, got %v", err)
	}
}

func TestArchiveMissingGeneration(t *testing.T) {
	archive := NewArchive(blob.NewMemory())
	var nf domain.ErrNotFound
	if _, err := archive.Load(context.Background(), "nope"); !errors.As(err, &nf) || nf.Entity != "generation" {
		t.Fatalf("expected generation not found, got %v", err)
	}
	if err := archive.Save(context.Background(), Generation{}); err == nil {
		t.Fatalf("expected id requirement")
	}
}

func TestArchiveOnFilesystemAndS3(t *testing.T) {
	fsStore, err := blob.NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("fs store: %v", err)
	}
	for name, store := range map[string]blob.Store{"fs": fsStore, "s3": blob.NewMockS3ForTests()} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			archive := NewArchive(store)
			for _, id := range []string{"a", "b"} {
				if err := archive.Save(ctx, Generation{ID: id, Horizon: 2, Samples: []Sample{}}); err != nil {
					t.Fatalf("save %s: %v", id, err)
				}
			}
			infos, err := archive.List(ctx)
			if err != nil || len(infos) != 2 {
				t.Fatalf("list: %+v %v", infos, err)
			}
			gen, err := archive.Load(ctx, "b")
			if err != nil || gen.ID != "b" || gen.Horizon != 2 {
				t.Fatalf("load: %+v %v", gen, err)
			}
			if url, err := archive.URL(ctx, "a", time.Minute); err != nil || url == "" {
				t.Fatalf("url: %q %v", url, err)
			}
		})
	}
}
