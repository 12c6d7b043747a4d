package companion

import (
	"context"
	"log"
	"time"
)

// ──────────────────────────────────────────────
// Chat Manager — conversational surface over the engine state
// ──────────────────────────────────────────────

// ChatMessage is one turn of conversation history.
type ChatMessage struct {
	Role      string    `json:"role"` // "user" or "companion"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatManager produces companion replies: it assembles prompt context from
// the engine state, delegates generation, and records the exchange with a
// content-derived importance.
type ChatManager struct {
	memory    *MemorySystem
	traits    *TraitEngine
	generator TextGenerator
	speech    SpeechSynthesizer
	clock     func() time.Time

	history []ChatMessage
}

// NewChatManager wires a chat surface. generator is required; speech may be
// nil when no audio is wanted.
func NewChatManager(memory *MemorySystem, traits *TraitEngine, generator TextGenerator, speech SpeechSynthesizer) *ChatManager {
	return &ChatManager{
		memory:    memory,
		traits:    traits,
		generator: generator,
		speech:    speech,
		clock:     time.Now,
	}
}

// SetClock overrides the time source. Used by tests.
func (cm *ChatManager) SetClock(clock func() time.Time) { cm.clock = clock }

// History returns a copy of the conversation so far.
func (cm *ChatManager) History() []ChatMessage {
	return append([]ChatMessage(nil), cm.history...)
}

// Respond generates a companion reply to the user input. The exchange is
// recorded as an interaction memory whose importance is derived from the
// emotional state and the input itself. Generation failures return a
// *GenerationError and record nothing.
func (cm *ChatManager) Respond(ctx context.Context, input string, profile *Profile, hints ...string) (string, error) {
	if cm.generator == nil {
		return "", &GenerationError{Err: errNoGenerator}
	}
	memories := cm.memory.Query(ctx, input, 3)

	recent := cm.memory.Recent(5)
	recentLines := make([]string, len(recent))
	for i, m := range recent {
		recentLines[i] = m.Content
	}

	state := cm.memory.EmotionalState()
	pc := PromptContext{
		CompanionName:     profile.Name,
		EvolutionStage:    profile.EvolutionStage,
		ProfileSummary:    profile.Summary(),
		Traits:            profile.TraitNames(),
		EmotionalState:    state,
		Tone:              DetermineTone(state),
		RelationshipLevel: profile.RelationshipLevel,
		ActiveGoals:       cm.memory.ActiveGoals(),
		RecentMemories:    recentLines,
		Session:           cm.memory.ContextSnapshot(),
		Hints:             hints,
	}
	if cm.traits != nil {
		pc.CulturalReferences = cm.traits.SelectCulturalReferences(profile)
	}

	prompt := RenderCompanionPrompt(pc, memories, input)
	reply, err := cm.generator.Generate(ctx, prompt)
	if err != nil {
		log.Printf("[ChatManager] Generation failed: %v", err)
		return "", &GenerationError{Err: err}
	}

	now := cm.clock()
	cm.history = append(cm.history,
		ChatMessage{Role: "user", Content: input, Timestamp: now},
		ChatMessage{Role: "companion", Content: reply, Timestamp: now},
	)
	profile.LastInteraction = now

	cm.memory.Record(ctx, input, MemoryInteraction, map[string]interface{}{
		"response":        reply,
		"emotional_state": state,
		"type":            "user-interaction",
	}, cm.interactionImportance(input, state))

	return reply, nil
}

// Speak synthesizes the reply as audio. Fails with *SynthesisError, or
// immediately when no synthesizer is configured.
func (cm *ChatManager) Speak(ctx context.Context, text string) ([]byte, error) {
	if cm.speech == nil {
		return nil, &SynthesisError{Err: errNoSynthesizer}
	}
	audio, err := cm.speech.Synthesize(ctx, text)
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	return audio, nil
}

// interactionImportance derives memory importance from the exchange: base 5,
// +2 for emotionally charged states, +1 for long detailed input, +2 during a
// significant event, capped at 10.
func (cm *ChatManager) interactionImportance(input, emotionalState string) int {
	importance := 5

	if emotionalState == "distressed" || emotionalState == "very happy" {
		importance += 2
	}
	if len(input) > 100 {
		importance++
	}
	if significant, ok := cm.memory.ContextSnapshot()["significant_event"].(bool); ok && significant {
		importance += 2
	}

	if importance > 10 {
		importance = 10
	}
	return importance
}
