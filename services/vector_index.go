package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/embeddings"
)

// VectorIndex embeds chunks and stores them in a VectorStore. It starts
// Uninitialized and becomes Populated after the first non-empty insert; it
// never goes back.
type VectorIndex struct {
	embedder embeddings.Embedder
	store    VectorStore

	mu          sync.RWMutex
	initialized bool
	count       int
}

// NewVectorIndex creates an index over store. A store that already holds
// entries, such as an existing Chroma collection, starts Populated.
func NewVectorIndex(ctx context.Context, embedder embeddings.Embedder, store VectorStore) (*VectorIndex, error) {
	count, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count existing entries: %w", err)
	}
	if count > 0 {
		log.Printf("SERVICE: Vector store already holds %d entries.", count)
	}
	return &VectorIndex{
		embedder:    embedder,
		store:       store,
		initialized: count > 0,
		count:       count,
	}, nil
}

// Insert embeds every chunk and then adds them as one batch. If embedding or
// storing fails, nothing is added.
func (v *VectorIndex) Insert(ctx context.Context, chunks []string) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := v.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	entries := make([]IndexEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = IndexEntry{
			ID:        uuid.New().String(),
			Text:      chunk,
			Embedding: vectors[i],
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.store.Add(ctx, entries); err != nil {
		return 0, fmt.Errorf("store %d entries: %w", len(entries), err)
	}
	v.initialized = true
	v.count += len(entries)
	return len(entries), nil
}

// Search returns up to k chunks ranked by similarity to query. An
// Uninitialized index returns an empty result without embedding the query.
func (v *VectorIndex) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if !v.IsInitialized() {
		return []SearchResult{}, nil
	}

	vector, err := v.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	results, err := v.store.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search store: %w", err)
	}
	return results, nil
}

// IsInitialized reports whether any chunk has ever been inserted.
func (v *VectorIndex) IsInitialized() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.initialized
}

// Count returns the number of entries held by the index.
func (v *VectorIndex) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.count
}
