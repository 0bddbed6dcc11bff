package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"rotacore/internal/blob"
	"rotacore/pkg/domain"
)

const generationPrefix = "generations/"

// Generation is one archived sampling run: the solutions callers page through
// plus the settings that produced them.
type Generation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Horizon   int       `json:"horizon"`
	Weights   Weights   `json:"weights"`
	Requested int       `json:"requested"`
	Samples   []Sample  `json:"samples"`
	Attempts  []Attempt `json:"attempts"`
}

// Outcome classifies the generation the same way SampleReport does.
func (g Generation) Outcome() Outcome {
	return SampleReport{Requested: g.Requested, Solutions: g.Samples, Attempts: g.Attempts}.Outcome()
}

// GenerationInfo summarises an archived generation without decoding it.
type GenerationInfo struct {
	ID           string    `json:"id"`
	Size         int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
}

// Archive stores generations as JSON documents in a blob store.
type Archive struct {
	store blob.Store
}

// NewArchive wraps store.
func NewArchive(store blob.Store) *Archive {
	return &Archive{store: store}
}

func generationKey(id string) string {
	return generationPrefix + id + ".json"
}

// Save writes gen under its ID. Generations are immutable once written.
func (a *Archive) Save(ctx context.Context, gen Generation) error {
	if gen.ID == "" {
		return domain.MissingFieldError{Field: "id"}
	}
	raw, err := json.Marshal(gen)
	if err != nil {
		return fmt.Errorf("encode generation %s: %w", gen.ID, err)
	}
	_, err = a.store.Put(ctx, generationKey(gen.ID), bytes.NewReader(raw), blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"horizon":   fmt.Sprint(gen.Horizon),
			"solutions": fmt.Sprint(len(gen.Samples)),
		},
	})
	if err != nil {
		return fmt.Errorf("archive generation %s: %w", gen.ID, err)
	}
	return nil
}

// Load reads the generation with id.
func (a *Archive) Load(ctx context.Context, id string) (Generation, error) {
	_, body, err := a.store.Get(ctx, generationKey(id))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return Generation{}, domain.ErrNotFound{Entity: "generation", ID: id}
		}
		return Generation{}, err
	}
	defer func() { _ = body.Close() }()
	raw, err := io.ReadAll(body)
	if err != nil {
		return Generation{}, fmt.Errorf("read generation %s: %w", id, err)
	}
	var gen Generation
	if err := json.Unmarshal(raw, &gen); err != nil {
		return Generation{}, fmt.Errorf("decode generation %s: %w", id, err)
	}
	return gen, nil
}

// List returns archived generations, newest first.
func (a *Archive) List(ctx context.Context) ([]GenerationInfo, error) {
	infos, err := a.store.List(ctx, generationPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]GenerationInfo, 0, len(infos))
	for _, info := range infos {
		name := path.Base(info.Key)
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		out = append(out, GenerationInfo{
			ID:           strings.TrimSuffix(name, ".json"),
			Size:         info.Size,
			LastModified: info.LastModified,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastModified.After(out[j].LastModified) })
	return out, nil
}

// URL returns a link to the archived document when the backend can sign one.
func (a *Archive) URL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	return a.store.PresignURL(ctx, generationKey(id), blob.SignedURLOptions{Method: "GET", Expiry: expiry})
}
