package companion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ──────────────────────────────────────────────
// Generation collaborators — pluggable text and speech backends
// ──────────────────────────────────────────────

// TextGenerator produces companion replies from a rendered prompt. The
// engine never talks to a model provider directly; callers plug in their
// own backend.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerateFunc adapts a plain function to TextGenerator.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

func (f GenerateFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// SpeechSynthesizer turns reply text into audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// PromptContext carries everything the companion prompt is rendered from.
// Hints are pre-rendered prompt segments (mood, conversation state); they go
// into the prompt body, not the context JSON.
type PromptContext struct {
	CompanionName      string                 `json:"companion_name"`
	EvolutionStage     EvolutionStage         `json:"evolution_stage"`
	ProfileSummary     string                 `json:"profile_summary"`
	Traits             []string               `json:"traits,omitempty"`
	EmotionalState     string                 `json:"emotional_state"`
	Tone               string                 `json:"tone"`
	RelationshipLevel  int                    `json:"relationship_level"`
	CulturalReferences []string               `json:"cultural_references,omitempty"`
	ActiveGoals        []string               `json:"active_goals,omitempty"`
	RecentMemories     []string               `json:"recent_memories,omitempty"`
	Session            map[string]interface{} `json:"session,omitempty"`

	Hints []string `json:"-"`
}

// RenderCompanionPrompt renders the standard companion prompt from the
// context, retrieved memories and the user input.
func RenderCompanionPrompt(pc PromptContext, memories []MemoryQueryResult, input string) string {
	ctxJSON, err := json.Marshal(pc)
	if err != nil {
		ctxJSON = []byte("{}")
	}

	lines := make([]string, 0, len(memories))
	for _, m := range memories {
		lines = append(lines, m.Memory.Content)
	}

	var b strings.Builder
	b.WriteString("You are a supportive spirit companion.\n\n")
	fmt.Fprintf(&b, "Current Context:\n%s\n\n", ctxJSON)
	fmt.Fprintf(&b, "Relevant Memories:\n%s\n\n", strings.Join(lines, "\n"))
	for _, hint := range pc.Hints {
		b.WriteString(hint)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "User Input: %s\n\n", input)
	b.WriteString("Consider:\n")
	b.WriteString("1. User's emotional state and needs\n")
	b.WriteString("2. Previous interactions and progress\n")
	b.WriteString("3. Cultural elements and wisdom\n")
	b.WriteString("4. Appropriate guidance level\n")
	b.WriteString("5. Growth opportunities\n\n")
	b.WriteString("Respond with:\n")
	b.WriteString("1. Empathetic acknowledgment\n")
	b.WriteString("2. Relevant wisdom or teaching\n")
	b.WriteString("3. Practical guidance\n")
	b.WriteString("4. Encouragement for growth\n")
	return b.String()
}
