package companion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────
// Companion Engine — facade over the state subsystems
// ──────────────────────────────────────────────

// CompanionEngine ties the subsystems together behind one mutex: activity
// gating, exercise sessions, memory, evolution, traits, chat and mood. All
// public methods are safe for concurrent use.
type CompanionEngine struct {
	mu sync.Mutex

	profile *Profile
	memory  *MemorySystem

	activities *ActivityGate
	sessions   *SessionManager
	evolution  *EvolutionEngine
	traits     *TraitEngine
	chat       *ChatManager
	mood       *MoodDetector
	moodLog    *MoodTracker
	state      *InteractionStateTracker
	scheduler  *Scheduler

	activityCatalog []Activity
	exerciseCatalog []Exercise
}

// EngineOption customizes engine construction.
type EngineOption func(*engineOptions)

type engineOptions struct {
	store     LongTermStore
	generator TextGenerator
	speech    SpeechSynthesizer
	stats     Stats
}

// WithLongTermStore plugs in a long-term memory backend. Without one, all
// memory is session-local.
func WithLongTermStore(store LongTermStore) EngineOption {
	return func(o *engineOptions) { o.store = store }
}

// WithTextGenerator plugs in the chat backend. Without one, Chat fails.
func WithTextGenerator(g TextGenerator) EngineOption {
	return func(o *engineOptions) { o.generator = g }
}

// WithSpeechSynthesizer plugs in the audio backend.
func WithSpeechSynthesizer(s SpeechSynthesizer) EngineOption {
	return func(o *engineOptions) { o.speech = s }
}

// WithInitialStats overrides the starting stats for the new profile.
func WithInitialStats(stats Stats) EngineOption {
	return func(o *engineOptions) { o.stats = stats }
}

// NewCompanionEngine assembles an engine from the config and options. The
// built-in catalogs are loaded; callers can extend them via AddActivity and
// AddExercise.
func NewCompanionEngine(cfg *EngineConfig, opts ...EngineOption) *CompanionEngine {
	if cfg == nil {
		cfg = &EngineConfig{CompanionName: "Kitsune", Timezone: "UTC"}
	}

	o := engineOptions{
		stats: Stats{Wisdom: 10, Empathy: 10, Energy: 100, Happiness: 50},
	}
	for _, opt := range opts {
		opt(&o)
	}

	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	profile := NewProfile(cfg.CompanionName, o.stats)
	memory := NewMemorySystem(sessionID, o.store)
	traits := NewTraitEngine(DefaultTraits(), memory)

	e := &CompanionEngine{
		profile:         profile,
		memory:          memory,
		activities:      NewActivityGate(memory),
		sessions:        NewSessionManager(memory),
		evolution:       NewEvolutionEngine(memory),
		traits:          traits,
		chat:            NewChatManager(memory, traits, o.generator, o.speech),
		mood:            NewMoodDetector(),
		moodLog:         NewMoodTracker(),
		state:           NewInteractionStateTracker(cfg.Timezone),
		scheduler:       NewScheduler(),
		activityCatalog: DefaultActivities(),
		exerciseCatalog: DefaultExercises(),
	}
	if cfg.ExercisePollInterval > 0 {
		e.sessions.SetPollInterval(cfg.ExercisePollInterval)
	}

	// Watcher-driven timeouts finish outside any engine call, so the
	// evolution re-check happens here. Submit-path completions re-check
	// inline and are skipped (Completed is true there).
	e.sessions.OnComplete = func(result *ExerciseResult) {
		if result.Completed {
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		e.checkEvolutionLocked(context.Background())
	}
	return e
}

// Profile returns the live companion profile. Mutate it only through engine
// operations.
func (e *CompanionEngine) Profile() *Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile
}

// Memory returns the engine's memory system.
func (e *CompanionEngine) Memory() *MemorySystem { return e.memory }

// MoodLog returns the engine's mood tracker.
func (e *CompanionEngine) MoodLog() *MoodTracker { return e.moodLog }

// Scheduler returns the engine's activity scheduler.
func (e *CompanionEngine) Scheduler() *Scheduler { return e.scheduler }

// Activities returns the current activity catalog.
func (e *CompanionEngine) Activities() []Activity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Activity(nil), e.activityCatalog...)
}

// Exercises returns the current exercise catalog.
func (e *CompanionEngine) Exercises() []Exercise {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Exercise(nil), e.exerciseCatalog...)
}

// AddActivity appends a custom activity to the catalog.
func (e *CompanionEngine) AddActivity(a Activity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activityCatalog = append(e.activityCatalog, a)
}

// AddExercise appends a custom exercise to the catalog.
func (e *CompanionEngine) AddExercise(ex Exercise) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exerciseCatalog = append(e.exerciseCatalog, ex)
}

// PerformActivity runs the catalog activity by id through the gate and
// re-checks evolution on success.
func (e *CompanionEngine) PerformActivity(ctx context.Context, activityID string) (*ActivityResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	activity, ok := FindActivity(e.activityCatalog, activityID)
	if !ok {
		return nil, &NotFoundError{Kind: "activity", ID: activityID}
	}
	result, err := e.activities.Attempt(ctx, activity, e.profile)
	if err != nil {
		return nil, err
	}
	e.checkEvolutionLocked(ctx)
	return result, nil
}

// ActivityCooldown reports the remaining cooldown for an activity type.
func (e *CompanionEngine) ActivityCooldown(typ ActivityType) time.Duration {
	return e.activities.RemainingCooldown(typ)
}

// StartExercise opens an exercise session for the catalog exercise by id.
func (e *CompanionEngine) StartExercise(ctx context.Context, exerciseID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	exercise, ok := FindExercise(e.exerciseCatalog, exerciseID)
	if !ok {
		return &NotFoundError{Kind: "exercise", ID: exerciseID}
	}
	return e.sessions.Start(ctx, exercise, e.profile)
}

// SubmitExerciseStep forwards one step response. On the final step the
// scored result is returned and evolution is re-checked.
func (e *CompanionEngine) SubmitExerciseStep(ctx context.Context, response string) (*ExerciseResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.sessions.SubmitStep(ctx, response)
	if err != nil {
		return nil, err
	}
	if result != nil {
		e.checkEvolutionLocked(ctx)
	}
	return result, nil
}

// CancelExercise discards the active session.
func (e *CompanionEngine) CancelExercise() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions.Cancel()
}

// ExerciseActive reports whether an exercise session is running.
func (e *CompanionEngine) ExerciseActive() bool { return e.sessions.Active() }

// UnlockTrait unlocks the catalog trait by id and re-checks evolution,
// since required traits are an evolution criterion.
func (e *CompanionEngine) UnlockTrait(ctx context.Context, traitID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	trait, ok := FindTrait(e.traits.Catalog(), traitID)
	if !ok {
		return &NotFoundError{Kind: "trait", ID: traitID}
	}
	if err := e.traits.Unlock(ctx, trait, e.profile); err != nil {
		return err
	}
	e.checkEvolutionLocked(ctx)
	return nil
}

// EligibleTraits lists traits currently unlockable for the profile.
func (e *CompanionEngine) EligibleTraits() []Trait {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.traits.EligibleTraits(e.profile)
}

// EvolutionProgress reports progress toward the next stage.
func (e *CompanionEngine) EvolutionProgress() EvolutionProgress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evolution.CalculateProgress(e.profile)
}

// Chat produces a companion reply to the user input. The detected user mood
// and the interaction state are folded into the session context before
// generation.
func (e *CompanionEngine) Chat(ctx context.Context, input string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	state := e.state.Track(input, now)
	if state.IsFirstConversation {
		e.state.TouchSession(now)
	}
	e.memory.UpdateContext(state.ToKV())

	hints := []string{state.FormatForPrompt()}
	if detected := e.mood.Detect(input); detected.Tone != "neutral" {
		e.memory.UpdateContext(map[string]interface{}{"user.mood": detected.Tone})
		e.moodLog.Track(detected.Tone, int(detected.Confidence*10), nil, "")
		if hint := detected.PromptHint(); hint != "" {
			hints = append(hints, hint)
		}
	}

	return e.chat.Respond(ctx, input, e.profile, hints...)
}

// Speak synthesizes reply text as audio via the configured synthesizer.
func (e *CompanionEngine) Speak(ctx context.Context, text string) ([]byte, error) {
	return e.chat.Speak(ctx, text)
}

// CheckEvolution runs a stage check on demand and reports whether the
// companion advanced. Activities, exercises and unlocks already run this
// automatically.
func (e *CompanionEngine) CheckEvolution(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evolution.CheckEvolution(ctx, e.profile)
}

// RecordMood logs a self-reported mood observation: it goes into the mood
// log, into memory as an emotion record (importance scales with intensity),
// and becomes the current emotional state.
func (e *CompanionEngine) RecordMood(ctx context.Context, emotion string, intensity int, triggers []string, notes string) MoodEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry := e.moodLog.Track(emotion, intensity, triggers, notes)

	importance := (entry.Intensity + 1) / 2 // 1-10 intensity -> 1-5 importance
	e.memory.Record(ctx, fmt.Sprintf("Felt %s (intensity %d)", entry.Emotion, entry.Intensity), MemoryEmotion, map[string]interface{}{
		"intensity": entry.Intensity,
		"triggers":  entry.Triggers,
	}, importance)
	e.memory.SetEmotionalState(emotion)
	return entry
}

// AnalyzeMood asks the text generator for an analysis of the mood patterns
// since the cutoff. Best-effort: fails with *GenerationError.
func (e *CompanionEngine) AnalyzeMood(ctx context.Context, since time.Time) (string, error) {
	patterns := e.moodLog.Patterns(since)

	data, err := json.Marshal(patterns)
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	var b strings.Builder
	b.WriteString("Analyze the following mood patterns and provide insights:\n\n")
	b.Write(data)
	b.WriteString("\n\nConsider emotional cycles, common triggers and their impact, ")
	b.WriteString("and potential intervention points. Respond with a short structured analysis.")

	return e.generate(ctx, b.String())
}

// ScheduleDay plans activities around the commitments using a named energy
// curve ("flat", "morning_high", "night_low").
func (e *CompanionEngine) ScheduleDay(commitments []TimeCommitment, energyCurve string) *ScheduleResult {
	return e.scheduler.GenerateSchedule(commitments, SchedulePreferences{EnergyLevels: EnergyCurve(energyCurve)})
}

// AudioBriefing renders the schedule as speech via the synthesizer.
func (e *CompanionEngine) AudioBriefing(ctx context.Context, result *ScheduleResult) ([]byte, error) {
	return e.chat.Speak(ctx, e.scheduler.Briefing(result))
}

func (e *CompanionEngine) generate(ctx context.Context, prompt string) (string, error) {
	if e.chat.generator == nil {
		return "", &GenerationError{Err: errNoGenerator}
	}
	out, err := e.chat.generator.Generate(ctx, prompt)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	return out, nil
}

// PurgeMemories drops low-importance long-term memories older than cutoff.
func (e *CompanionEngine) PurgeMemories(ctx context.Context, cutoff time.Time, importanceBelow int) error {
	if e.memory.store == nil {
		return nil
	}
	if err := e.memory.store.PurgeOlderThan(ctx, cutoff, importanceBelow); err != nil {
		return &StorageError{Op: "purge", Err: err}
	}
	return nil
}

func (e *CompanionEngine) checkEvolutionLocked(ctx context.Context) {
	if e.evolution.CheckEvolution(ctx, e.profile) {
		log.Printf("[CompanionEngine] Stage advanced | profile=%s stage=%d", e.profile.ID, e.profile.EvolutionStage)
	}
}
