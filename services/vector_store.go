package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// IndexEntry is a chunk of text stored together with its embedding.
type IndexEntry struct {
	ID        string
	Text      string
	Embedding []float32
}

// SearchResult is a stored chunk and its similarity to a query, higher is closer.
type SearchResult struct {
	Text  string
	Score float64
}

// VectorStore holds index entries and answers nearest-neighbour queries.
// Add must apply a batch completely or not at all.
type VectorStore interface {
	Add(ctx context.Context, entries []IndexEntry) error
	Search(ctx context.Context, vector []float32, k int) ([]SearchResult, error)
	Count(ctx context.Context) (int, error)
}

// MemoryStore is a process-local brute-force cosine store. Its content is
// lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	dim     int
	entries []IndexEntry
	mags    []float64
}

var _ VectorStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add appends the batch after checking every vector has the store's dimension.
func (s *MemoryStore) Add(_ context.Context, entries []IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dim
	if dim == 0 {
		dim = len(entries[0].Embedding)
	}
	if dim == 0 {
		return fmt.Errorf("%w: empty embedding", ErrDimensionMismatch)
	}
	mags := make([]float64, len(entries))
	for i, e := range entries {
		if len(e.Embedding) != dim {
			return fmt.Errorf("%w: entry %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(e.Embedding), dim)
		}
		mags[i] = magnitude(e.Embedding)
	}

	s.dim = dim
	s.entries = append(s.entries, entries...)
	s.mags = append(s.mags, mags...)
	return nil
}

// Search returns up to k entries ordered by descending cosine similarity.
func (s *MemoryStore) Search(_ context.Context, vector []float32, k int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return []SearchResult{}, nil
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d", ErrDimensionMismatch, len(vector), s.dim)
	}
	qm := magnitude(vector)
	if qm == 0 {
		return []SearchResult{}, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	scoreds := make([]scored, 0, len(s.entries))
	for i, e := range s.entries {
		if s.mags[i] == 0 {
			continue
		}
		score := dot(vector, e.Embedding) / (qm * s.mags[i])
		if math.IsNaN(score) {
			continue
		}
		scoreds = append(scoreds, scored{idx: i, score: score})
	}
	// Stable so equal scores keep insertion order.
	sort.SliceStable(scoreds, func(a, b int) bool { return scoreds[a].score > scoreds[b].score })

	if k <= 0 || k > len(scoreds) {
		k = len(scoreds)
	}
	results := make([]SearchResult, k)
	for n := 0; n < k; n++ {
		results[n] = SearchResult{Text: s.entries[scoreds[n].idx].Text, Score: scoreds[n].score}
	}
	return results, nil
}

// Count returns the number of stored entries.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func magnitude(v []float32) float64 { return math.Sqrt(dot(v, v)) }
