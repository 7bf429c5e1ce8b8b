package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marekhanus/vecfall/pkg/types"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	if err == nil {
		t.Fatal("New() with empty API key should fail")
	}
	if !errors.Is(err, types.ErrMissingAPIKey) {
		t.Errorf("New() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestDimensionsByModel(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"", 1536}, // default model
		{"text-embedding-ada-002", 1536},
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"some-future-model", 1536}, // unknown falls back to default
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p, err := New(Config{APIKey: "test-key", Model: tt.model})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := p.Dimensions(); got != tt.want {
				t.Errorf("Dimensions() = %d, want %d", got, tt.want)
			}
		})
	}
}

// newTestServer stubs /models and /embeddings. The embeddings handler
// returns data deliberately out of order to exercise index re-sorting.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/models":
			w.Write([]byte(`{"object":"list","data":[{"id":"text-embedding-3-small","object":"model"}]}`))
		case "/embeddings":
			var req struct {
				Input []string `json:"input"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			type item struct {
				Object    string    `json:"object"`
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}
			resp := struct {
				Object string `json:"object"`
				Data   []item `json:"data"`
				Model  string `json:"model"`
			}{Object: "list", Model: "text-embedding-3-small"}

			// Reverse order from the request
			for i := len(req.Input) - 1; i >= 0; i-- {
				resp.Data = append(resp.Data, item{
					Object:    "embedding",
					Index:     i,
					Embedding: []float32{float32(i), 1, 2},
				})
			}
			json.NewEncoder(w).Encode(resp)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
}

func TestEmbedBatchResortsByIndex(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	p, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	vecs, err := p.EmbedBatch(context.Background(), []string{"alpha", "beta", "gamma"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vecs))
	}
	for i, vec := range vecs {
		if vec[0] != float32(i) {
			t.Errorf("vector %d starts with %v, want %d (not re-sorted by index)", i, vec[0], i)
		}
	}
}

func TestEmbedBatchEmpty(t *testing.T) {
	p, err := New(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	vecs, err := p.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Errorf("EmbedBatch(nil) error = %v", err)
	}
	if vecs != nil {
		t.Errorf("EmbedBatch(nil) = %v, want nil", vecs)
	}
}

func TestInitializeListsModels(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	p, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := p.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
}

func TestInitializeBadKeyIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p, err := New(Config{APIKey: "bad-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = p.Initialize(context.Background())
	if err == nil {
		t.Fatal("Initialize() should fail on 401")
	}

	var apiErr *types.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T (%v), want *types.APIError", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
	if apiErr.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", apiErr.Provider)
	}
}
