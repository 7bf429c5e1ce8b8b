package provider

import (
	"context"
	"strings"
	"testing"

	"github.com/marekhanus/vecfall/pkg/types"
)

type fakeEmbedding struct{ name string }

func (f *fakeEmbedding) Name() string { return f.name }

func (f *fakeEmbedding) Initialize(ctx context.Context) error { return nil }
func (f *fakeEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}
func (f *fakeEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return [][]float32{{1}}, nil
}
func (f *fakeEmbedding) Dimensions() int { return 1 }

func (f *fakeEmbedding) Close() error { return nil }

type fakeStore struct{}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) Init(path string) error { return nil }

func (f *fakeStore) Upsert(ctx context.Context, docs []*types.Document) error { return nil }

func (f *fakeStore) Query(ctx context.Context, vector []float32, limit int) ([]*types.QueryResult, error) {
	return nil, nil
}

func (f *fakeStore) Delete(ctx context.Context, ids []string) error { return nil }

func (f *fakeStore) Stats() (*types.StoreStats, error) { return &types.StoreStats{}, nil }

func (f *fakeStore) Close() error { return nil }

func TestRegistryEmbedding(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterEmbedding("fake", func(cfg EmbeddingConfig) (EmbeddingProvider, error) {
		return &fakeEmbedding{name: "fake-" + cfg.Model}, nil
	})

	if !reg.HasEmbedding("fake") {
		t.Error("HasEmbedding(fake) = false after registration")
	}
	if reg.HasEmbedding("other") {
		t.Error("HasEmbedding(other) = true, want false")
	}

	p, err := reg.CreateEmbedding("fake", EmbeddingConfig{Model: "m1"})
	if err != nil {
		t.Fatalf("CreateEmbedding() error = %v", err)
	}
	if p.Name() != "fake-m1" {
		t.Errorf("config not passed to factory, Name() = %q", p.Name())
	}
}

func TestRegistryUnknownEmbedding(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterEmbedding("fake", func(cfg EmbeddingConfig) (EmbeddingProvider, error) {
		return &fakeEmbedding{}, nil
	})

	_, err := reg.CreateEmbedding("missing", EmbeddingConfig{})
	if err == nil {
		t.Fatal("CreateEmbedding(missing) should fail")
	}
	if !strings.Contains(err.Error(), "fake") {
		t.Errorf("error %q should list available providers", err)
	}
}

func TestRegistryVectorStore(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterVectorStore("fake", func() (VectorStore, error) {
		return &fakeStore{}, nil
	})

	if !reg.HasVectorStore("fake") {
		t.Error("HasVectorStore(fake) = false after registration")
	}

	s, err := reg.CreateVectorStore("fake")
	if err != nil {
		t.Fatalf("CreateVectorStore() error = %v", err)
	}
	if s.Name() != "fake" {
		t.Errorf("Name() = %q, want fake", s.Name())
	}

	if _, err := reg.CreateVectorStore("missing"); err == nil {
		t.Error("CreateVectorStore(missing) should fail")
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterEmbedding("a", func(cfg EmbeddingConfig) (EmbeddingProvider, error) { return nil, nil })
	reg.RegisterEmbedding("b", func(cfg EmbeddingConfig) (EmbeddingProvider, error) { return nil, nil })

	names := reg.ListEmbeddings()
	if len(names) != 2 {
		t.Errorf("ListEmbeddings() = %v, want 2 names", names)
	}
}
