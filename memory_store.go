package companion

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// LongTermStore is the pluggable backend for durable, similarity-searchable
// memory. Production implementations live in the store/ package (Redis,
// Qdrant); the engine assumes the backend is eventually consistent and may
// be briefly unavailable.
type LongTermStore interface {
	// Persist stores a memory durably.
	Persist(ctx context.Context, m Memory) error

	// Search returns up to limit memories ranked by relevance to the query.
	Search(ctx context.Context, query string, limit int) ([]MemoryQueryResult, error)

	// PurgeOlderThan removes memories older than cutoff whose importance is
	// below importanceBelow. High-importance memories survive purges.
	PurgeOlderThan(ctx context.Context, cutoff time.Time, importanceBelow int) error
}

// InMemoryLongTermStore is a thread-safe in-process LongTermStore for
// development and tests. Search ranks by keyword overlap — no semantic
// embedding, data is lost on restart.
type InMemoryLongTermStore struct {
	mu       sync.RWMutex
	memories []Memory
}

// NewInMemoryLongTermStore creates an empty in-memory store.
func NewInMemoryLongTermStore() *InMemoryLongTermStore {
	return &InMemoryLongTermStore{}
}

func (s *InMemoryLongTermStore) Persist(ctx context.Context, m Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memories = append(s.memories, m)
	return nil
}

func (s *InMemoryLongTermStore) Search(ctx context.Context, query string, limit int) ([]MemoryQueryResult, error) {
	if limit <= 0 {
		limit = 5
	}
	terms := strings.Fields(strings.ToLower(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]MemoryQueryResult, 0, len(s.memories))
	for _, m := range s.memories {
		score := keywordOverlap(strings.ToLower(m.Content), terms)
		if score > 0 || len(terms) == 0 {
			results = append(results, MemoryQueryResult{Memory: m, Similarity: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Memory.Timestamp.After(results[j].Memory.Timestamp)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *InMemoryLongTermStore) PurgeOlderThan(ctx context.Context, cutoff time.Time, importanceBelow int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.memories[:0]
	for _, m := range s.memories {
		if m.Timestamp.Before(cutoff) && m.Importance < importanceBelow {
			continue
		}
		kept = append(kept, m)
	}
	s.memories = kept
	return nil
}

// Len returns the number of stored memories.
func (s *InMemoryLongTermStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.memories)
}

// keywordOverlap scores content by the fraction of query terms it contains.
func keywordOverlap(content string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	hits := 0
	for _, t := range terms {
		if strings.Contains(content, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// Compile-time interface check.
var _ LongTermStore = (*InMemoryLongTermStore)(nil)
