package companion

import (
	"context"
	"fmt"
	"log"
	"math"
)

// ──────────────────────────────────────────────
// Evolution Engine — multi-criterion stage thresholds
// ──────────────────────────────────────────────

// EvolutionRequirements is one threshold tier. All four conditions must
// hold for the stage to advance.
type EvolutionRequirements struct {
	MinRelationshipLevel int
	MinWisdom            float64
	MinEmpathy           float64
	RequiredTraits       []string // trait display names
}

// evolutionTiers are the fixed thresholds, keyed by current stage.
var evolutionTiers = map[EvolutionStage]EvolutionRequirements{
	StageSpirit: {
		MinRelationshipLevel: 5,
		MinWisdom:            60,
		MinEmpathy:           50,
		RequiredTraits:       []string{"Basic Empathy", "Curiosity"},
	},
	StageGuardian: {
		MinRelationshipLevel: 8,
		MinWisdom:            80,
		MinEmpathy:           75,
		RequiredTraits:       []string{"Enhanced Empathy", "Spiritual Connection"},
	},
}

// EvolutionProgress reports how close the profile is to the next stage.
// All factors are within [0,1]; at stage 3 everything reports 1.
type EvolutionProgress struct {
	Overall           float64 `json:"overall"`
	RelationshipLevel float64 `json:"relationship_level"`
	Wisdom            float64 `json:"wisdom"`
	Empathy           float64 `json:"empathy"`
	Traits            float64 `json:"traits"`
}

// EvolutionEngine evaluates stage transitions. Stage advancement through
// CheckEvolution is the only way EvolutionStage changes, and it only ever
// increases, one stage per call.
type EvolutionEngine struct {
	memory *MemorySystem
}

// NewEvolutionEngine creates an engine recording evolutions into memory.
func NewEvolutionEngine(memory *MemorySystem) *EvolutionEngine {
	return &EvolutionEngine{memory: memory}
}

// RequirementsFor returns the threshold tier for the profile's current
// stage, or false at the terminal stage.
func RequirementsFor(stage EvolutionStage) (EvolutionRequirements, bool) {
	req, ok := evolutionTiers[stage]
	return req, ok
}

// CheckEvolution advances the profile by exactly one stage when all four
// conditions of the current tier hold, and reports whether it did. At
// stage 3 it always returns false.
func (e *EvolutionEngine) CheckEvolution(ctx context.Context, profile *Profile) bool {
	req, ok := evolutionTiers[profile.EvolutionStage]
	if !ok {
		return false
	}

	if profile.RelationshipLevel < req.MinRelationshipLevel ||
		profile.Stats.Wisdom < req.MinWisdom ||
		profile.Stats.Empathy < req.MinEmpathy {
		return false
	}
	for _, name := range req.RequiredTraits {
		if !profile.HasTraitNamed(name) {
			return false
		}
	}

	profile.EvolutionStage++
	log.Printf("[EvolutionEngine] Evolved | profile=%s stage=%d", profile.ID, profile.EvolutionStage)

	if e.memory != nil {
		e.memory.Record(ctx, fmt.Sprintf("%s evolved to stage %d", profile.Name, profile.EvolutionStage), MemoryAchievement, map[string]interface{}{
			"stage": int(profile.EvolutionStage),
		}, 9)
	}
	return true
}

// CalculateProgress reports per-factor and overall progress toward the
// next stage.
func (e *EvolutionEngine) CalculateProgress(profile *Profile) EvolutionProgress {
	req, ok := evolutionTiers[profile.EvolutionStage]
	if !ok {
		// Terminal stage: maxed.
		return EvolutionProgress{Overall: 1, RelationshipLevel: 1, Wisdom: 1, Empathy: 1, Traits: 1}
	}

	rel := clampUnit(float64(profile.RelationshipLevel) / float64(req.MinRelationshipLevel))
	wis := clampUnit(profile.Stats.Wisdom / req.MinWisdom)
	emp := clampUnit(profile.Stats.Empathy / req.MinEmpathy)

	unlocked := 0
	for _, name := range req.RequiredTraits {
		if profile.HasTraitNamed(name) {
			unlocked++
		}
	}
	traits := float64(unlocked) / float64(len(req.RequiredTraits))

	return EvolutionProgress{
		Overall:           (rel + wis + emp + traits) / 4,
		RelationshipLevel: rel,
		Wisdom:            wis,
		Empathy:           emp,
		Traits:            traits,
	}
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}
