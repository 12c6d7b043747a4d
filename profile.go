package companion

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EvolutionStage is the companion's three-level progression gate.
type EvolutionStage int

const (
	StageSpirit    EvolutionStage = 1
	StageGuardian  EvolutionStage = 2
	StageCelestial EvolutionStage = 3
)

// Stats holds the four core attributes. Values are unbounded in the model;
// display clamping is the caller's concern. Energy may go transiently
// negative — the engine only gates on it before an activity.
type Stats struct {
	Wisdom    float64 `json:"wisdom"`
	Empathy   float64 `json:"empathy"`
	Energy    float64 `json:"energy"`
	Happiness float64 `json:"happiness"`
}

// StatDelta is a partial change over stat names. Missing keys mean zero.
type StatDelta map[string]float64

// Total sums all present delta values.
func (d StatDelta) Total() float64 {
	total := 0.0
	for _, v := range d {
		total += v
	}
	return total
}

// CulturalElement is a symbol, story or value associated with a trait,
// used as contextual seasoning for the text generator.
type CulturalElement struct {
	Type        string `json:"type"` // symbol|story|value
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Trait is an immutable catalog entry: a named personality modifier with
// unlock requirements. Profiles hold references to unlocked traits only.
type Trait struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	EvolutionStage   EvolutionStage    `json:"evolution_stage"`
	CulturalElements []CulturalElement `json:"cultural_elements"`
	StatRequirements StatDelta         `json:"stat_requirements,omitempty"`
}

// Profile is the companion's persistent state. It is owned by a single
// session and mutated only through engine operations.
type Profile struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	EvolutionStage    EvolutionStage `json:"evolution_stage"`
	RelationshipLevel int            `json:"relationship_level"`
	Traits            []Trait        `json:"traits"`
	Stats             Stats          `json:"stats"`
	CreatedAt         time.Time      `json:"created_at"`
	LastInteraction   time.Time      `json:"last_interaction"`
}

// NewProfile creates a stage-1 profile with the given starting stats.
func NewProfile(name string, stats Stats) *Profile {
	now := time.Now()
	return &Profile{
		ID:              uuid.NewString(),
		Name:            name,
		EvolutionStage:  StageSpirit,
		Traits:          []Trait{},
		Stats:           stats,
		CreatedAt:       now,
		LastInteraction: now,
	}
}

// ApplyStatDelta adds the delta to the profile's stats. No clamping.
func (p *Profile) ApplyStatDelta(delta StatDelta) {
	p.Stats.Wisdom += delta["wisdom"]
	p.Stats.Empathy += delta["empathy"]
	p.Stats.Energy += delta["energy"]
	p.Stats.Happiness += delta["happiness"]
}

// StatValue returns the named stat, or 0 for an unknown name.
func (p *Profile) StatValue(name string) float64 {
	switch name {
	case "wisdom":
		return p.Stats.Wisdom
	case "empathy":
		return p.Stats.Empathy
	case "energy":
		return p.Stats.Energy
	case "happiness":
		return p.Stats.Happiness
	}
	return 0
}

// AddRelationshipPoints adjusts the relationship level, flooring at zero.
func (p *Profile) AddRelationshipPoints(points int) {
	p.RelationshipLevel += points
	if p.RelationshipLevel < 0 {
		p.RelationshipLevel = 0
	}
}

// AddTrait appends the trait if not already unlocked. Traits are never
// removed once added.
func (p *Profile) AddTrait(trait Trait) bool {
	for _, t := range p.Traits {
		if t.ID == trait.ID {
			return false
		}
	}
	p.Traits = append(p.Traits, trait)
	return true
}

// HasTrait reports whether the trait id is unlocked.
func (p *Profile) HasTrait(id string) bool {
	for _, t := range p.Traits {
		if t.ID == id {
			return true
		}
	}
	return false
}

// HasTraitNamed reports whether a trait with the display name is unlocked.
// Evolution requirement tiers reference traits by name.
func (p *Profile) HasTraitNamed(name string) bool {
	for _, t := range p.Traits {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Summary returns a one-line profile description for prompt context.
func (p *Profile) Summary() string {
	return fmt.Sprintf("%s (stage %d, relationship %d) wisdom=%.0f empathy=%.0f energy=%.0f happiness=%.0f",
		p.Name, p.EvolutionStage, p.RelationshipLevel,
		p.Stats.Wisdom, p.Stats.Empathy, p.Stats.Energy, p.Stats.Happiness)
}

// TraitNames returns the display names of all unlocked traits.
func (p *Profile) TraitNames() []string {
	names := make([]string, len(p.Traits))
	for i, t := range p.Traits {
		names[i] = t.Name
	}
	return names
}
