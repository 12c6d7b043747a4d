package companion

import (
	"context"
	"errors"
	"math/rand"
	"testing"
)

// ══════════════════════════════════════════════
// TraitEngine
// ══════════════════════════════════════════════

func TestTraits_UnlockRecordsMemory(t *testing.T) {
	ms := NewMemorySystem("s1", nil)
	engine := NewTraitEngine(DefaultTraits(), ms)
	p := testProfile()

	be, _ := FindTrait(engine.Catalog(), "basic-empathy")
	if err := engine.Unlock(context.Background(), be, p); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if !p.HasTrait("basic-empathy") {
		t.Fatal("trait not added")
	}

	recent := ms.Recent(1)
	if len(recent) != 1 || recent[0].Type != MemoryAchievement || recent[0].Importance != 8 {
		t.Fatalf("expected achievement memory importance 8, got %+v", recent)
	}
}

func TestTraits_UnlockRejectsStageGate(t *testing.T) {
	engine := NewTraitEngine(DefaultTraits(), nil)
	p := testProfile() // stage 1

	ee, _ := FindTrait(engine.Catalog(), "enhanced-empathy")
	err := engine.Unlock(context.Background(), ee, p)

	var ne *NotEligibleError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NotEligibleError, got %v", err)
	}
	if p.HasTrait("enhanced-empathy") {
		t.Fatal("rejection must not mutate profile")
	}
}

func TestTraits_UnlockRejectsStatRequirement(t *testing.T) {
	engine := NewTraitEngine(DefaultTraits(), nil)
	p := NewProfile("Kit", Stats{Wisdom: 1, Empathy: 1})

	ws, _ := FindTrait(engine.Catalog(), "wisdom-seeker")
	err := engine.Unlock(context.Background(), ws, p)
	var ne *NotEligibleError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NotEligibleError, got %v", err)
	}
	if len(p.Traits) != 0 {
		t.Fatal("rejection must not mutate profile")
	}
}

func TestTraits_DoubleUnlockRejected(t *testing.T) {
	engine := NewTraitEngine(DefaultTraits(), nil)
	p := testProfile()

	be, _ := FindTrait(engine.Catalog(), "basic-empathy")
	if err := engine.Unlock(context.Background(), be, p); err != nil {
		t.Fatalf("first unlock: %v", err)
	}
	if err := engine.Unlock(context.Background(), be, p); err == nil {
		t.Fatal("second unlock should fail")
	}
	if len(p.Traits) != 1 {
		t.Fatalf("traits = %d, want 1", len(p.Traits))
	}
}

func TestTraits_EligibleTraits(t *testing.T) {
	engine := NewTraitEngine(DefaultTraits(), nil)
	p := testProfile()

	eligible := engine.EligibleTraits(p)
	for _, tr := range eligible {
		if tr.EvolutionStage != StageSpirit {
			t.Fatalf("stage-2 trait %s should not be eligible at stage 1", tr.ID)
		}
	}

	be, _ := FindTrait(engine.Catalog(), "basic-empathy")
	p.AddTrait(be)
	for _, tr := range engine.EligibleTraits(p) {
		if tr.ID == "basic-empathy" {
			t.Fatal("unlocked trait should drop out of the eligible set")
		}
	}
}

func TestTraits_CulturalReferences(t *testing.T) {
	engine := NewTraitEngine(DefaultTraits(), nil)
	engine.SetRandSource(rand.NewSource(7))
	p := testProfile()

	refs := engine.SelectCulturalReferences(p)
	if len(refs) < 1 || len(refs) > 3 {
		t.Fatalf("got %d refs, want 1-3", len(refs))
	}
	// Stage-2 cultural elements must not leak into a stage-1 profile.
	for _, r := range refs {
		if r == "Emotional Harmony" || r == "Torii Gate" {
			t.Fatalf("stage-2 element %q selected at stage 1", r)
		}
	}
}

func TestDetermineTone(t *testing.T) {
	cases := map[string]string{
		"very happy": "enthusiastic",
		"happy":      "cheerful",
		"content":    "balanced",
		"tired":      "gentle",
		"exhausted":  "soothing",
		"confused":   "balanced",
	}
	for state, want := range cases {
		if got := DetermineTone(state); got != want {
			t.Fatalf("%s: got %q, want %q", state, got, want)
		}
	}
}
