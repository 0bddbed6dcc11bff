package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func contractStores(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := Open(context.Background(), Config{Driver: DriverFilesystem, FSRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	memStore, err := Open(context.Background(), Config{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	return map[string]Store{
		"fs":     fsStore,
		"memory": memStore,
		"s3":     NewMockS3ForTests(),
	}
}

func TestStoreContract(t *testing.T) {
	for name, store := range contractStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			payload := []byte(`{"id":"g1"}`)
			info, err := store.Put(ctx, "generations/g1.json", bytes.NewReader(payload), PutOptions{
				ContentType: "application/json",
				Metadata:    map[string]string{"horizon": "2"},
			})
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if info.Size != int64(len(payload)) {
				t.Fatalf("expected size %d, got %d", len(payload), info.Size)
			}
			if _, err := store.Put(ctx, "generations/g1.json", bytes.NewReader(payload), PutOptions{}); !errors.Is(err, ErrExists) {
				t.Fatalf("expected ErrExists on duplicate put, got %v", err)
			}

			head, err := store.Head(ctx, "generations/g1.json")
			if err != nil {
				t.Fatalf("head: %v", err)
			}
			if head.ContentType != "application/json" || head.Metadata["horizon"] != "2" {
				t.Fatalf("unexpected head info %+v", head)
			}

			got, rc, err := store.Get(ctx, "generations/g1.json")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			body, err := io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				t.Fatalf("read body: %v", err)
			}
			if !bytes.Equal(body, payload) || got.Key != "generations/g1.json" {
				t.Fatalf("unexpected get %q %+v", body, got)
			}

			if _, err := store.Put(ctx, "other/x.json", bytes.NewReader([]byte("x")), PutOptions{}); err != nil {
				t.Fatalf("put other: %v", err)
			}
			if _, err := store.Put(ctx, "generations/g0.json", bytes.NewReader([]byte("{}")), PutOptions{}); err != nil {
				t.Fatalf("put g0: %v", err)
			}
			listed, err := store.List(ctx, "generations/")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(listed) != 2 || listed[0].Key != "generations/g0.json" || listed[1].Key != "generations/g1.json" {
				t.Fatalf("unexpected listing %+v", listed)
			}

			removed, err := store.Delete(ctx, "generations/g1.json")
			if err != nil || !removed {
				t.Fatalf("delete: removed=%v err=%v", removed, err)
			}
			removed, err = store.Delete(ctx, "generations/g1.json")
			if err != nil || removed {
				t.Fatalf("second delete: removed=%v err=%v", removed, err)
			}
			if _, err := store.Head(ctx, "generations/g1.json"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			if _, _, err := store.Get(ctx, "generations/missing.json"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound for missing get, got %v", err)
			}
		})
	}
}

func TestPresignURLByDriver(t *testing.T) {
	ctx := context.Background()
	stores := contractStores(t)
	for _, store := range stores {
		if _, err := store.Put(ctx, "k.json", bytes.NewReader([]byte("{}")), PutOptions{}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	if _, err := stores["memory"].PresignURL(ctx, "k.json", SignedURLOptions{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("memory presign should be unsupported, got %v", err)
	}
	url, err := stores["s3"].PresignURL(ctx, "k.json", SignedURLOptions{})
	if err != nil || url == "" {
		t.Fatalf("s3 presign: %q %v", url, err)
	}
	if _, err := stores["s3"].PresignURL(ctx, "k.json", SignedURLOptions{Method: "PUT"}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("s3 PUT presign should be unsupported, got %v", err)
	}
	local, err := stores["fs"].PresignURL(ctx, "k.json", SignedURLOptions{})
	if err != nil || len(local) < len("file://") || local[:7] != "file://" {
		t.Fatalf("fs presign: %q %v", local, err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "tape"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
	if _, err := Open(context.Background(), Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected error for s3 without bucket")
	}
}
