// Package mock provides a test double for the provider.VectorStore
// interface. It keeps documents in memory, returns configurable query
// results, and records calls for assertions.
package mock

import (
	"context"
	"sync"

	"github.com/marekhanus/vecfall/pkg/provider"
	"github.com/marekhanus/vecfall/pkg/types"
)

// Store is a mock implementation of provider.VectorStore.
type Store struct {
	mu sync.Mutex

	// QueryResults is returned by Query when set. When nil, Query returns
	// all upserted documents in insertion order with distance 0.
	QueryResults []*types.QueryResult

	// InitErr, UpsertErr, QueryErr, DeleteErr force the corresponding
	// operation to fail.
	InitErr   error
	UpsertErr error
	QueryErr  error
	DeleteErr error

	// InitPath records the path passed to Init.
	InitPath string

	// QueryCalls records every query vector, in order.
	QueryCalls [][]float32

	// Closed reports whether Close was called.
	Closed bool

	docs  map[string]*types.Document
	order []string
}

// Name returns the store name.
func (s *Store) Name() string {
	return "mock"
}

// Init records the path and returns InitErr.
func (s *Store) Init(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InitPath = path
	if s.docs == nil {
		s.docs = make(map[string]*types.Document)
	}
	return s.InitErr
}

// Upsert stores documents in memory.
func (s *Store) Upsert(ctx context.Context, docs []*types.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	if s.docs == nil {
		s.docs = make(map[string]*types.Document)
	}
	for _, doc := range docs {
		if _, exists := s.docs[doc.ID]; !exists {
			s.order = append(s.order, doc.ID)
		}
		s.docs[doc.ID] = doc
	}
	return nil
}

// Query records the call and returns QueryResults or all stored documents.
func (s *Store) Query(ctx context.Context, vector []float32, limit int) ([]*types.QueryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]float32, len(vector))
	copy(cp, vector)
	s.QueryCalls = append(s.QueryCalls, cp)

	if s.QueryErr != nil {
		return nil, s.QueryErr
	}
	if s.QueryResults != nil {
		return s.QueryResults, nil
	}

	var results []*types.QueryResult
	for _, id := range s.order {
		if limit > 0 && len(results) >= limit {
			break
		}
		results = append(results, &types.QueryResult{Document: s.docs[id]})
	}
	return results, nil
}

// Delete removes documents by ID.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	for _, id := range ids {
		if _, exists := s.docs[id]; !exists {
			continue
		}
		delete(s.docs, id)
		for i, ordered := range s.order {
			if ordered == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

// Stats returns counts over the in-memory documents.
func (s *Store) Stats() (*types.StoreStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &types.StoreStats{Documents: int64(len(s.docs))}
	for _, doc := range s.docs {
		if len(doc.Embedding) > 0 {
			stats.Dimensions = len(doc.Embedding)
			break
		}
	}
	return stats, nil
}

// Close records the call.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// Ensure Store implements VectorStore at compile time.
var _ provider.VectorStore = (*Store)(nil)
