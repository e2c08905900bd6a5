package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cartoflow/cartoflow/pkg/errors"
	"github.com/cartoflow/cartoflow/pkg/observability"
)

// MemoryStore keeps documents in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string]Document{}}
}

// Get retrieves a document by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Document, error) {
	start := time.Now()
	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()

	observability.Store().OnStoreGet(ctx, id, ok, time.Since(start))
	if !ok {
		return nil, errors.New(errors.ErrCodeLayoutNotFound, "layout %s not found", id)
	}
	cp := doc
	cp.Payload = append([]byte(nil), doc.Payload...)
	return &cp, nil
}

// Put upserts a document and refreshes its UpdatedAt.
func (s *MemoryStore) Put(ctx context.Context, doc *Document) error {
	if doc == nil || doc.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "document must have an ID")
	}
	start := time.Now()
	doc.UpdatedAt = time.Now().UTC()

	cp := *doc
	cp.Payload = append([]byte(nil), doc.Payload...)

	s.mu.Lock()
	s.docs[doc.ID] = cp
	s.mu.Unlock()

	observability.Store().OnStorePut(ctx, doc.ID, len(doc.Payload), time.Since(start))
	return nil
}

// List returns all documents ordered by creation time, oldest first.
func (s *MemoryStore) List(ctx context.Context) ([]*Document, error) {
	s.mu.RLock()
	out := make([]*Document, 0, len(s.docs))
	for _, doc := range s.docs {
		cp := doc
		cp.Payload = append([]byte(nil), doc.Payload...)
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a document. Deleting an absent ID is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()
	return nil
}

// Close releases nothing; it exists to satisfy [Store].
func (s *MemoryStore) Close(ctx context.Context) error { return nil }
