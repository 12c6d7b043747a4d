package companion

import (
	"context"
	"log"
	"sync"

	"go.uber.org/atomic"
)

// ShortTermCapacity is the fixed size of the short-term buffer. Eviction is
// strictly oldest-first, regardless of importance — importance only affects
// long-term retention.
const ShortTermCapacity = 10

// RetainIndefinitely is the importance threshold at which a memory is
// flagged for the long-term store to keep beyond its normal window.
const RetainIndefinitely = 8

// MemorySystem manages the bounded short-term buffer, the emotional-state
// scalar, and delegation to the long-term store. Short-term state is always
// updated before the remote call, so a store failure never loses local state.
type MemorySystem struct {
	sessionID string
	store     LongTermStore

	mu        sync.RWMutex
	shortTerm []Memory
	curCtx    map[string]interface{}
	goals     []string

	emotionalState *atomic.String
}

// NewMemorySystem creates a memory system for the session, backed by store.
// store may be nil, in which case all memory is session-local.
func NewMemorySystem(sessionID string, store LongTermStore) *MemorySystem {
	return &MemorySystem{
		sessionID:      sessionID,
		store:          store,
		curCtx:         map[string]interface{}{},
		emotionalState: atomic.NewString("neutral"),
	}
}

// Record creates a memory, appends it to short-term memory (evicting the
// oldest entry past capacity) and forwards it to the long-term store. The
// returned memory is always valid; a non-nil error is a *StorageError and
// means only the remote persist failed — the short-term append succeeded.
func (ms *MemorySystem) Record(ctx context.Context, content string, typ MemoryType, meta map[string]interface{}, importance int) (Memory, error) {
	m := NewMemory(ms.sessionID, content, typ, meta, importance)
	if m.Importance >= RetainIndefinitely {
		m.Context["retain"] = "indefinite"
	}

	ms.mu.Lock()
	ms.shortTerm = append(ms.shortTerm, m)
	if len(ms.shortTerm) > ShortTermCapacity {
		ms.shortTerm = ms.shortTerm[len(ms.shortTerm)-ShortTermCapacity:]
	}
	ms.mu.Unlock()

	if ms.store != nil {
		if err := ms.store.Persist(ctx, m); err != nil {
			log.Printf("[MemorySystem] Persist failed | session=%s id=%s: %v", ms.sessionID, m.ID, err)
			return m, &StorageError{Op: "persist", Err: err}
		}
	}
	return m, nil
}

// Query delegates to the long-term store's similarity search. Retrieval is
// best-effort: on failure it logs and returns an empty slice.
func (ms *MemorySystem) Query(ctx context.Context, query string, limit int) []MemoryQueryResult {
	if ms.store == nil {
		return []MemoryQueryResult{}
	}
	if limit <= 0 {
		limit = 5
	}
	results, err := ms.store.Search(ctx, query, limit)
	if err != nil {
		log.Printf("[MemorySystem] Search failed | session=%s: %v", ms.sessionID, err)
		return []MemoryQueryResult{}
	}
	return results
}

// Recent returns the newest n short-term memories, oldest first.
func (ms *MemorySystem) Recent(n int) []Memory {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if n <= 0 || n > len(ms.shortTerm) {
		n = len(ms.shortTerm)
	}
	out := make([]Memory, n)
	copy(out, ms.shortTerm[len(ms.shortTerm)-n:])
	return out
}

// ShortTermLen returns the current short-term buffer length.
func (ms *MemorySystem) ShortTermLen() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.shortTerm)
}

// SetEmotionalState stores the most recently inferred mood label.
func (ms *MemorySystem) SetEmotionalState(state string) {
	ms.emotionalState.Store(state)
}

// EmotionalState returns the current mood label ("neutral" initially).
func (ms *MemorySystem) EmotionalState() string {
	return ms.emotionalState.Load()
}

// UpdateContext merges entries into the session context map.
func (ms *MemorySystem) UpdateContext(updates map[string]interface{}) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for k, v := range updates {
		ms.curCtx[k] = v
	}
}

// ContextSnapshot returns a copy of the session context map.
func (ms *MemorySystem) ContextSnapshot() map[string]interface{} {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	cp := make(map[string]interface{}, len(ms.curCtx))
	for k, v := range ms.curCtx {
		cp[k] = v
	}
	return cp
}

// SetActiveGoals replaces the session's active goal list.
func (ms *MemorySystem) SetActiveGoals(goals []string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.goals = append([]string(nil), goals...)
}

// ActiveGoals returns a copy of the active goal list.
func (ms *MemorySystem) ActiveGoals() []string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return append([]string(nil), ms.goals...)
}
