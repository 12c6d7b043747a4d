package companion

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// ══════════════════════════════════════════════
// CompanionEngine
// ══════════════════════════════════════════════

func newTestEngine(opts ...EngineOption) *CompanionEngine {
	cfg := &EngineConfig{CompanionName: "Kit", SessionID: "sess-test", Timezone: "UTC"}
	return NewCompanionEngine(cfg, opts...)
}

func TestEngine_Defaults(t *testing.T) {
	e := newTestEngine()

	if e.Profile().Name != "Kit" {
		t.Fatalf("name = %q", e.Profile().Name)
	}
	if e.Profile().EvolutionStage != StageSpirit {
		t.Fatal("fresh companion starts at stage 1")
	}
	if len(e.Activities()) != 4 || len(e.Exercises()) != 3 {
		t.Fatalf("catalogs = %d/%d, want 4/3", len(e.Activities()), len(e.Exercises()))
	}
}

func TestEngine_PerformActivity(t *testing.T) {
	e := newTestEngine(WithLongTermStore(NewInMemoryLongTermStore()))

	result, err := e.PerformActivity(context.Background(), "spirit-food")
	if err != nil {
		t.Fatalf("PerformActivity: %v", err)
	}
	if result.Activity.ID != "spirit-food" {
		t.Fatalf("activity = %q", result.Activity.ID)
	}
	if e.Profile().Stats.Energy != 105 {
		t.Fatalf("energy = %.0f, want 105", e.Profile().Stats.Energy)
	}

	_, err = e.PerformActivity(context.Background(), "no-such-activity")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestEngine_ExerciseFlow(t *testing.T) {
	e := newTestEngine()

	if err := e.StartExercise(context.Background(), "mindful-breathing"); err != nil {
		t.Fatalf("StartExercise: %v", err)
	}
	if !e.ExerciseActive() {
		t.Fatal("session should be active")
	}

	var result *ExerciseResult
	for i := 0; i < 4; i++ {
		r, err := e.SubmitExerciseStep(context.Background(), "slow breath in, slow breath out, mind settling down")
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		result = r
	}
	if result == nil || !result.Completed {
		t.Fatal("exercise should complete on the final step")
	}
	if e.ExerciseActive() {
		t.Fatal("session should be torn down")
	}
}

func TestEngine_UnlockTraitTriggersEvolution(t *testing.T) {
	e := newTestEngine(WithInitialStats(Stats{Wisdom: 60, Empathy: 50, Energy: 100, Happiness: 50}))

	profile := e.Profile()
	profile.RelationshipLevel = 5

	if err := e.UnlockTrait(context.Background(), "basic-empathy"); err != nil {
		t.Fatalf("unlock basic-empathy: %v", err)
	}
	if profile.EvolutionStage != StageSpirit {
		t.Fatal("one of two required traits should not evolve yet")
	}

	if err := e.UnlockTrait(context.Background(), "curiosity"); err != nil {
		t.Fatalf("unlock curiosity: %v", err)
	}
	if profile.EvolutionStage != StageGuardian {
		t.Fatalf("stage = %d, want %d after final requirement", profile.EvolutionStage, StageGuardian)
	}

	progress := e.EvolutionProgress()
	if progress.Overall < 0 || progress.Overall > 1 {
		t.Fatalf("overall progress = %.2f", progress.Overall)
	}
}

func TestEngine_UnlockTraitNotFound(t *testing.T) {
	e := newTestEngine()
	var nf *NotFoundError
	if err := e.UnlockTrait(context.Background(), "ghost-trait"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestEngine_ChatFoldsMoodIntoContext(t *testing.T) {
	gen := &captureGenerator{reply: "I hear you."}
	e := newTestEngine(WithTextGenerator(gen))

	reply, err := e.Chat(context.Background(), "I am so anxious and worried about everything")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "I hear you." {
		t.Fatalf("reply = %q", reply)
	}

	snap := e.Memory().ContextSnapshot()
	if snap["user.mood"] != "anxious" {
		t.Fatalf("mood not folded into context: %v", snap)
	}
	if snap["session.turn_index"] != 1 {
		t.Fatalf("interaction state missing: %v", snap)
	}
	if len(e.MoodLog().Entries()) != 1 {
		t.Fatal("detected mood should be tracked")
	}
}

func TestEngine_ChatPromptCarriesStateAndMoodHints(t *testing.T) {
	gen := &captureGenerator{reply: "ok"}
	e := newTestEngine(WithTextGenerator(gen))

	if _, err := e.Chat(context.Background(), "I am so anxious and worried about everything"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(gen.prompt, "[conversation state]") {
		t.Fatalf("conversation state hint missing: %q", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "[user mood]") {
		t.Fatalf("mood hint missing: %q", gen.prompt)
	}
	if !strings.Contains(gen.prompt, e.Profile().Summary()) {
		t.Fatal("profile summary missing from chat prompt")
	}
}

func TestEngine_ChatWithoutGenerator(t *testing.T) {
	e := newTestEngine()
	if _, err := e.Chat(context.Background(), "hello"); err == nil {
		t.Fatal("chat without a generator should fail")
	}
}

func TestEngine_CustomCatalogEntries(t *testing.T) {
	e := newTestEngine()
	e.AddActivity(Activity{ID: "stargazing", Type: ActivityRest, Name: "Stargazing", Rewards: ActivityRewards{Happiness: 2}})

	if _, err := e.PerformActivity(context.Background(), "stargazing"); err != nil {
		t.Fatalf("custom activity: %v", err)
	}
}

func TestEngine_RecordMood(t *testing.T) {
	e := newTestEngine(WithLongTermStore(NewInMemoryLongTermStore()))

	entry := e.RecordMood(context.Background(), "anxious", 7, []string{"work"}, "deadline week")
	if entry.Emotion != "anxious" || entry.Intensity != 7 {
		t.Fatalf("entry = %+v", entry)
	}
	if len(e.MoodLog().Entries()) != 1 {
		t.Fatal("mood should land in the log")
	}
	if e.Memory().EmotionalState() != "anxious" {
		t.Fatalf("emotional state = %q", e.Memory().EmotionalState())
	}

	recent := e.Memory().Recent(1)
	if len(recent) != 1 || recent[0].Type != MemoryEmotion {
		t.Fatalf("recent = %+v", recent)
	}
	if recent[0].Importance != 4 { // intensity 7 -> importance 4
		t.Fatalf("importance = %d, want 4", recent[0].Importance)
	}
}

func TestEngine_AnalyzeMood(t *testing.T) {
	gen := &captureGenerator{reply: "Anxiety clusters around work."}
	e := newTestEngine(WithTextGenerator(gen))
	e.RecordMood(context.Background(), "anxious", 6, []string{"work"}, "")

	analysis, err := e.AnalyzeMood(context.Background(), e.Profile().CreatedAt)
	if err != nil {
		t.Fatalf("AnalyzeMood: %v", err)
	}
	if analysis != "Anxiety clusters around work." {
		t.Fatalf("analysis = %q", analysis)
	}
	if !strings.Contains(gen.prompt, `"anxious"`) {
		t.Fatalf("patterns missing from prompt: %q", gen.prompt)
	}
}

func TestEngine_AnalyzeMoodWithoutGenerator(t *testing.T) {
	e := newTestEngine()
	var ge *GenerationError
	if _, err := e.AnalyzeMood(context.Background(), e.Profile().CreatedAt); !errors.As(err, &ge) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
}

func TestEngine_CheckEvolutionOnDemand(t *testing.T) {
	e := newTestEngine(WithInitialStats(Stats{Wisdom: 60, Empathy: 50, Energy: 100, Happiness: 50}))

	profile := e.Profile()
	profile.RelationshipLevel = 5
	profile.AddTrait(Trait{ID: "basic-empathy", Name: "Basic Empathy"})
	profile.AddTrait(Trait{ID: "curiosity", Name: "Curiosity"})

	if !e.CheckEvolution(context.Background()) {
		t.Fatal("should advance with every requirement met")
	}
	if profile.EvolutionStage != StageGuardian {
		t.Fatalf("stage = %d", profile.EvolutionStage)
	}
	if e.CheckEvolution(context.Background()) {
		t.Fatal("second check should not advance again")
	}
}

func TestEngine_ScheduleDayAndBriefing(t *testing.T) {
	e := newTestEngine(WithSpeechSynthesizer(stubSynth{}))

	result := e.ScheduleDay([]TimeCommitment{
		{Name: "work", TimeSlot: TimeRange{Start: 9, End: 17}},
	}, "night_low")
	if len(result.Activities) == 0 {
		t.Fatal("expected scheduled activities")
	}

	audio, err := e.AudioBriefing(context.Background(), result)
	if err != nil {
		t.Fatalf("AudioBriefing: %v", err)
	}
	if !strings.HasPrefix(string(audio), "audio:") {
		t.Fatalf("audio = %q", audio)
	}
}

func TestEngine_PurgeWithoutStore(t *testing.T) {
	e := newTestEngine()
	if err := e.PurgeMemories(context.Background(), e.Profile().CreatedAt, 7); err != nil {
		t.Fatalf("purge without store should be a no-op, got %v", err)
	}
}
