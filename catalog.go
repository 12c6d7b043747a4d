package companion

import "time"

// ──────────────────────────────────────────────
// Built-in catalogs — activities, exercises, traits
// ──────────────────────────────────────────────

// DefaultActivities returns the built-in activity catalog. Callers get a
// fresh slice and may append their own entries.
func DefaultActivities() []Activity {
	return []Activity{
		{
			ID:          "play-catch",
			Type:        ActivityPlay,
			Name:        "Play Catch",
			Description: "A fun game of catch that builds coordination and trust.",
			Duration:    10 * time.Minute,
			EnergyCost:  2,
			Rewards: ActivityRewards{
				Happiness:          3,
				Empathy:            1,
				RelationshipPoints: 2,
			},
		},
		{
			ID:          "meditation",
			Type:        ActivityLearn,
			Name:        "Meditation Session",
			Description: "A peaceful meditation session to develop mindfulness.",
			Duration:    15 * time.Minute,
			EnergyCost:  1,
			Rewards: ActivityRewards{
				Wisdom:             3,
				Empathy:            2,
				Happiness:          1,
				RelationshipPoints: 1,
			},
		},
		{
			ID:          "spirit-food",
			Type:        ActivityFeed,
			Name:        "Spirit Food",
			Description: "Nourishing spiritual food that restores energy.",
			Duration:    5 * time.Minute,
			EnergyCost:  0,
			Rewards: ActivityRewards{
				Energy:             5,
				Happiness:          2,
				RelationshipPoints: 1,
			},
		},
		{
			ID:          "peaceful-rest",
			Type:        ActivityRest,
			Name:        "Peaceful Rest",
			Description: "A period of peaceful rest to recover energy.",
			Duration:    30 * time.Minute,
			EnergyCost:  0,
			Rewards: ActivityRewards{
				Energy:    10,
				Happiness: 1,
			},
		},
	}
}

// DefaultExercises returns the built-in exercise catalog.
func DefaultExercises() []Exercise {
	return []Exercise{
		{
			ID:         "thought-journal",
			Type:       ThoughtRestructuring,
			Difficulty: 1,
			Duration:   10,
			Objective:  "Identify and challenge negative thought patterns",
			Instructions: []string{
				"Write down a troubling thought or situation",
				"Identify the emotions you feel",
				"List evidence for and against this thought",
				"Create a balanced perspective",
			},
			RequiredStats: StatDelta{"wisdom": 10, "empathy": 5},
			Outcomes: []ExerciseOutcome{
				{Skill: "wisdom", Impact: 3},
				{Skill: "empathy", Impact: 2},
			},
		},
		{
			ID:         "mindful-breathing",
			Type:       MindfulnessExercise,
			Difficulty: 1,
			Duration:   5,
			Objective:  "Develop present-moment awareness through breath focus",
			Instructions: []string{
				"Find a comfortable position",
				"Focus on your natural breath",
				"Notice when your mind wanders",
				"Gently return focus to breathing",
			},
			RequiredStats: StatDelta{"energy": 20},
			Outcomes: []ExerciseOutcome{
				{Skill: "wisdom", Impact: 2},
				{Skill: "energy", Impact: 5},
				{Skill: "happiness", Impact: 3},
			},
		},
		{
			ID:         "emotion-regulation",
			Type:       EmotionalRegulation,
			Difficulty: 2,
			Duration:   15,
			Objective:  "Learn to manage and understand emotional responses",
			Instructions: []string{
				"Identify current emotional state",
				"Rate intensity of emotions",
				"Apply coping strategies",
				"Reflect on effectiveness",
			},
			RequiredStats: StatDelta{"wisdom": 20, "empathy": 15},
			Outcomes: []ExerciseOutcome{
				{Skill: "empathy", Impact: 4},
				{Skill: "happiness", Impact: 3},
			},
		},
	}
}

// DefaultTraits returns the built-in trait catalog. Every trait name the
// evolution tiers require is present here, so both stage transitions are
// reachable out of the box.
func DefaultTraits() []Trait {
	return []Trait{
		{
			ID:             "wisdom-seeker",
			Name:           "Wisdom Seeker",
			Description:    "Always eager to learn and understand deeper truths",
			EvolutionStage: StageSpirit,
			CulturalElements: []CulturalElement{
				{Type: "symbol", Name: "Scroll", Description: "Ancient knowledge and wisdom"},
				{Type: "value", Name: "Pursuit of Knowledge", Description: "The endless journey of learning"},
			},
			StatRequirements: StatDelta{"wisdom": 2},
		},
		{
			ID:             "basic-empathy",
			Name:           "Basic Empathy",
			Description:    "Understanding and sharing feelings of others",
			EvolutionStage: StageSpirit,
			CulturalElements: []CulturalElement{
				{Type: "story", Name: "The Kind Fox", Description: "Tale of a fox helping lost travelers"},
			},
			StatRequirements: StatDelta{"empathy": 2},
		},
		{
			ID:             "curiosity",
			Name:           "Curiosity",
			Description:    "A playful drive to explore and question everything",
			EvolutionStage: StageSpirit,
			CulturalElements: []CulturalElement{
				{Type: "symbol", Name: "Lantern", Description: "Light carried into the unknown"},
			},
			StatRequirements: StatDelta{"wisdom": 5, "happiness": 5},
		},
		{
			ID:             "enhanced-empathy",
			Name:           "Enhanced Empathy",
			Description:    "Deep emotional connection and understanding",
			EvolutionStage: StageGuardian,
			CulturalElements: []CulturalElement{
				{Type: "value", Name: "Emotional Harmony", Description: "Balance between heart and mind"},
			},
			StatRequirements: StatDelta{"empathy": 5, "wisdom": 2},
		},
		{
			ID:             "spiritual-connection",
			Name:           "Spiritual Connection",
			Description:    "Attunement to the unseen threads between all living things",
			EvolutionStage: StageGuardian,
			CulturalElements: []CulturalElement{
				{Type: "symbol", Name: "Torii Gate", Description: "Threshold between the mundane and the sacred"},
			},
			StatRequirements: StatDelta{"wisdom": 30, "empathy": 25},
		},
	}
}

// FindActivity looks an activity up by id in the catalog.
func FindActivity(catalog []Activity, id string) (*Activity, bool) {
	for i := range catalog {
		if catalog[i].ID == id {
			return &catalog[i], true
		}
	}
	return nil, false
}

// FindExercise looks an exercise up by id in the catalog.
func FindExercise(catalog []Exercise, id string) (*Exercise, bool) {
	for i := range catalog {
		if catalog[i].ID == id {
			return &catalog[i], true
		}
	}
	return nil, false
}

// FindTrait looks a trait up by id in the catalog.
func FindTrait(catalog []Trait, id string) (Trait, bool) {
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Trait{}, false
}
