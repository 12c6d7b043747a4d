package companion

import (
	"time"

	"github.com/google/uuid"
)

// MemoryType tags what kind of event a memory records.
type MemoryType string

const (
	MemoryInteraction MemoryType = "interaction"
	MemoryAchievement MemoryType = "achievement"
	MemoryEmotion     MemoryType = "emotion"
	MemoryEvent       MemoryType = "event"
)

// Memory is a single append-only record of something that happened in a
// session. Importance is conventionally 1-10; entries at 8 or above are
// flagged for indefinite retention in the long-term store.
type Memory struct {
	ID         string                 `json:"id"`
	SessionID  string                 `json:"session_id"`
	Content    string                 `json:"content"`
	Type       MemoryType             `json:"type"`
	Timestamp  time.Time              `json:"timestamp"`
	Importance int                    `json:"importance"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// NewMemory creates a memory with a fresh id and the current timestamp.
func NewMemory(sessionID, content string, typ MemoryType, context map[string]interface{}, importance int) Memory {
	if context == nil {
		context = map[string]interface{}{}
	}
	if importance < 1 {
		importance = 1
	}
	return Memory{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Content:    content,
		Type:       typ,
		Timestamp:  time.Now(),
		Importance: importance,
		Context:    context,
	}
}

// MemoryQueryResult pairs a retrieved memory with its similarity score.
type MemoryQueryResult struct {
	Memory     Memory  `json:"memory"`
	Similarity float64 `json:"similarity"`
}
