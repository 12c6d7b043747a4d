package companion

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// ──────────────────────────────────────────────
// Trait Engine — unlock gates and personality seasoning
// ──────────────────────────────────────────────

// TraitEngine decides trait eligibility, performs unlocks, and selects
// cultural references for response generation.
type TraitEngine struct {
	catalog []Trait
	memory  *MemorySystem

	mu  sync.Mutex
	rng *rand.Rand
}

// NewTraitEngine creates an engine over the trait catalog.
func NewTraitEngine(catalog []Trait, memory *MemorySystem) *TraitEngine {
	return &TraitEngine{
		catalog: catalog,
		memory:  memory,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRandSource overrides the cultural-reference random source. Used by tests.
func (t *TraitEngine) SetRandSource(src rand.Source) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rng = rand.New(src)
}

// Catalog returns the full trait catalog.
func (t *TraitEngine) Catalog() []Trait { return t.catalog }

// IsEligible reports whether the trait can be unlocked for the profile:
// the trait's stage must be reached, it must not already be unlocked, and
// every stat requirement minimum must be met.
func (t *TraitEngine) IsEligible(trait Trait, profile *Profile) bool {
	if trait.EvolutionStage > profile.EvolutionStage {
		return false
	}
	if profile.HasTrait(trait.ID) {
		return false
	}
	for stat, required := range trait.StatRequirements {
		if profile.StatValue(stat) < required {
			return false
		}
	}
	return true
}

// Unlock adds the trait to the profile. It fails with *NotEligibleError
// (and mutates nothing) if the eligibility rules are not met.
func (t *TraitEngine) Unlock(ctx context.Context, trait Trait, profile *Profile) error {
	if !t.IsEligible(trait, profile) {
		return &NotEligibleError{TraitID: trait.ID, Reason: t.ineligibilityReason(trait, profile)}
	}
	if !profile.AddTrait(trait) {
		// AddTrait is the idempotency guard; IsEligible already rejects
		// duplicates, so this only fires on a racing double-unlock.
		return &NotEligibleError{TraitID: trait.ID, Reason: "already unlocked"}
	}

	if t.memory != nil {
		t.memory.Record(ctx, fmt.Sprintf("Unlocked trait %s", trait.Name), MemoryAchievement, map[string]interface{}{
			"trait_id": trait.ID,
		}, 8)
	}
	return nil
}

func (t *TraitEngine) ineligibilityReason(trait Trait, profile *Profile) string {
	if trait.EvolutionStage > profile.EvolutionStage {
		return fmt.Sprintf("requires evolution stage %d", trait.EvolutionStage)
	}
	if profile.HasTrait(trait.ID) {
		return "already unlocked"
	}
	for stat, required := range trait.StatRequirements {
		if actual := profile.StatValue(stat); actual < required {
			return fmt.Sprintf("requires %s >= %.0f, have %.0f", stat, required, actual)
		}
	}
	return "not eligible"
}

// EligibleTraits returns all catalog traits currently unlockable.
func (t *TraitEngine) EligibleTraits(profile *Profile) []Trait {
	var eligible []Trait
	for _, trait := range t.catalog {
		if t.IsEligible(trait, profile) {
			eligible = append(eligible, trait)
		}
	}
	return eligible
}

// SelectCulturalReferences picks 1-3 cultural element names (with
// replacement) from the pooled elements of all catalog traits available at
// or below the profile's stage. Flavor only, never engine state.
func (t *TraitEngine) SelectCulturalReferences(profile *Profile) []string {
	var pool []string
	for _, trait := range t.catalog {
		if trait.EvolutionStage > profile.EvolutionStage {
			continue
		}
		for _, el := range trait.CulturalElements {
			pool = append(pool, el.Name)
		}
	}
	if len(pool) == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	count := t.rng.Intn(3) + 1
	refs := make([]string, 0, count)
	for i := 0; i < count; i++ {
		refs = append(refs, pool[t.rng.Intn(len(pool))])
	}
	return refs
}

// toneTable maps emotional-state labels to response tones.
var toneTable = map[string]string{
	"very happy": "enthusiastic",
	"happy":      "cheerful",
	"content":    "balanced",
	"tired":      "gentle",
	"exhausted":  "soothing",
}

// DetermineTone maps an emotional state to a response tone. Unmapped
// states fall back to "balanced".
func DetermineTone(emotionalState string) string {
	if tone, ok := toneTable[emotionalState]; ok {
		return tone
	}
	return "balanced"
}
