package host

import (
	"context"
	"errors"
	"testing"
)

// fakePlugin implements shared.EmbeddingProvider in-process.
type fakePlugin struct {
	embedErr error
	short    bool // return fewer vectors than inputs
	texts    []string
	closed   bool
}

func (f *fakePlugin) Name() string      { return "fake-plugin" }
func (f *fakePlugin) Initialize() error { return nil }
func (f *fakePlugin) Embed(texts []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	f.texts = append(f.texts, texts...)
	if f.short {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return out, nil
}
func (f *fakePlugin) Dimensions() int { return 1 }
func (f *fakePlugin) Close() error {
	f.closed = true
	return nil
}

func TestAdapterDelegates(t *testing.T) {
	fake := &fakePlugin{}
	a := NewEmbeddingAdapter(fake)
	ctx := context.Background()

	if a.Name() != "fake-plugin" {
		t.Errorf("Name() = %q", a.Name())
	}
	if err := a.Initialize(ctx); err != nil {
		t.Errorf("Initialize() error = %v", err)
	}
	if a.Dimensions() != 1 {
		t.Errorf("Dimensions() = %d, want 1", a.Dimensions())
	}

	vecs, err := a.EmbedBatch(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if len(vecs) != 2 {
		t.Errorf("got %d vectors, want 2", len(vecs))
	}
	if len(fake.texts) != 2 {
		t.Errorf("plugin received %d texts, want 2", len(fake.texts))
	}

	if _, err := a.Embed(ctx, "c"); err != nil {
		t.Errorf("Embed() error = %v", err)
	}

	if err := a.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !fake.closed {
		t.Error("Close() not delegated to plugin")
	}
}

func TestAdapterRejectsShortPluginOutput(t *testing.T) {
	a := NewEmbeddingAdapter(&fakePlugin{short: true})
	ctx := context.Background()

	// A plugin returning fewer vectors than inputs is an error, not a panic.
	if _, err := a.EmbedBatch(ctx, []string{"a", "b"}); err == nil {
		t.Error("EmbedBatch() should fail when the plugin returns too few vectors")
	}
	if _, err := a.Embed(ctx, "a"); err == nil {
		t.Error("Embed() should fail when the plugin returns no vectors")
	}
}

func TestAdapterHonorsCancelledContext(t *testing.T) {
	fake := &fakePlugin{}
	a := NewEmbeddingAdapter(fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := a.Initialize(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Initialize() error = %v, want context.Canceled", err)
	}
	if _, err := a.EmbedBatch(ctx, []string{"a"}); !errors.Is(err, context.Canceled) {
		t.Errorf("EmbedBatch() error = %v, want context.Canceled", err)
	}
	if len(fake.texts) != 0 {
		t.Error("plugin called despite cancelled context")
	}
}
