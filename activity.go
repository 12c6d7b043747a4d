package companion

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// ──────────────────────────────────────────────
// Activity Gate — cooldown + energy admission control
// ──────────────────────────────────────────────

// ActivityType classifies simple activities. Cooldown clocks are tracked
// per type, independently of each other.
type ActivityType string

const (
	ActivityPlay  ActivityType = "play"
	ActivityLearn ActivityType = "learn"
	ActivityFeed  ActivityType = "feed"
	ActivityRest  ActivityType = "rest"
)

// ActivityRewards is the partial stat reward of an activity. Zero fields
// mean no reward for that stat.
type ActivityRewards struct {
	Wisdom             float64 `json:"wisdom,omitempty"`
	Empathy            float64 `json:"empathy,omitempty"`
	Energy             float64 `json:"energy,omitempty"`
	Happiness          float64 `json:"happiness,omitempty"`
	RelationshipPoints int     `json:"relationship_points,omitempty"`
}

// Activity is a simple, cooldown-gated interaction.
type Activity struct {
	ID          string          `json:"id"`
	Type        ActivityType    `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Duration    time.Duration   `json:"duration"`
	EnergyCost  float64         `json:"energy_cost"`
	Rewards     ActivityRewards `json:"rewards"`
}

// ActivityResult reports a successful activity resolution.
type ActivityResult struct {
	Activity           *Activity `json:"activity"`
	Message            string    `json:"message"`
	StatDelta          StatDelta `json:"stat_delta"`
	RelationshipPoints int       `json:"relationship_points"`
	EmotionalState     string    `json:"emotional_state"`
	FlavorEmotion      string    `json:"flavor_emotion"`
}

// activityCooldowns are the fixed per-type cooldown windows.
var activityCooldowns = map[ActivityType]time.Duration{
	ActivityPlay:  5 * time.Minute,
	ActivityLearn: 15 * time.Minute,
	ActivityFeed:  30 * time.Minute,
	ActivityRest:  60 * time.Minute,
}

// flavorEmotions are the per-type emotional response pools. Selection is
// non-deterministic flavor, never engine state.
var flavorEmotions = map[ActivityType][]string{
	ActivityPlay:  {"joyful", "excited", "energetic"},
	ActivityLearn: {"curious", "focused", "enlightened"},
	ActivityFeed:  {"satisfied", "content", "nourished"},
	ActivityRest:  {"peaceful", "relaxed", "refreshed"},
}

// CooldownFor returns the cooldown window for an activity type.
func CooldownFor(typ ActivityType) time.Duration {
	return activityCooldowns[typ]
}

// ActivityGate admits or rejects activities against per-type cooldowns and
// the profile's energy, and applies the resulting stat deltas. Admission is
// a pure function of (last-performed, now, cooldown): identical inputs
// always yield the same decision.
type ActivityGate struct {
	memory *MemorySystem
	clock  func() time.Time

	mu            sync.Mutex
	lastPerformed map[ActivityType]time.Time
	rng           *rand.Rand
}

// NewActivityGate creates a gate recording into memory. All cooldown clocks
// start expired.
func NewActivityGate(memory *MemorySystem) *ActivityGate {
	return &ActivityGate{
		memory:        memory,
		clock:         time.Now,
		lastPerformed: make(map[ActivityType]time.Time),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetClock overrides the time source. Used by tests.
func (g *ActivityGate) SetClock(clock func() time.Time) { g.clock = clock }

// SetRandSource overrides the flavor-emotion random source. Used by tests.
func (g *ActivityGate) SetRandSource(src rand.Source) { g.rng = rand.New(src) }

// RemainingCooldown reports how long until the activity type is admissible
// again. Zero means ready.
func (g *ActivityGate) RemainingCooldown(typ ActivityType) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remainingLocked(typ, g.clock())
}

func (g *ActivityGate) remainingLocked(typ ActivityType, now time.Time) time.Duration {
	last, ok := g.lastPerformed[typ]
	if !ok {
		return 0
	}
	remaining := activityCooldowns[typ] - now.Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Attempt admits or rejects the activity. Rejections (*CooldownError,
// *InsufficientEnergyError) mutate nothing. On success the stat delta and
// relationship points are applied to the profile, the cooldown clock for
// the type is recorded, and interaction (and, for significant deltas,
// emotion) memories are emitted.
func (g *ActivityGate) Attempt(ctx context.Context, activity *Activity, profile *Profile) (*ActivityResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock()
	if remaining := g.remainingLocked(activity.Type, now); remaining > 0 {
		return nil, &CooldownError{ActivityID: activity.ID, Type: activity.Type, Remaining: remaining}
	}
	if profile.Stats.Energy < activity.EnergyCost {
		return nil, &InsufficientEnergyError{
			ActivityID: activity.ID,
			Required:   activity.EnergyCost,
			Available:  profile.Stats.Energy,
		}
	}

	delta := StatDelta{
		"wisdom":    activity.Rewards.Wisdom,
		"empathy":   activity.Rewards.Empathy,
		"energy":    activity.Rewards.Energy - activity.EnergyCost,
		"happiness": activity.Rewards.Happiness,
	}

	profile.ApplyStatDelta(delta)
	if activity.Rewards.RelationshipPoints != 0 {
		profile.AddRelationshipPoints(activity.Rewards.RelationshipPoints)
	}
	profile.LastInteraction = now
	g.lastPerformed[activity.Type] = now

	label := ClassifyStatImpact(delta)
	flavor := g.pickFlavorEmotion(activity.Type)

	// Learning activities are worth remembering more.
	importance := 1
	if activity.Type == ActivityLearn {
		importance = 2
	}
	g.memory.Record(ctx, fmt.Sprintf("Performed %s", activity.Name), MemoryInteraction, map[string]interface{}{
		"activity_type": string(activity.Type),
		"stat_delta":    delta,
	}, importance)

	if IsSignificant(delta) {
		g.memory.Record(ctx, fmt.Sprintf("Had a meaningful experience during %s", activity.Name), MemoryEmotion, map[string]interface{}{
			"emotion":    label,
			"stat_delta": delta,
		}, 2)
	}
	g.memory.SetEmotionalState(label)

	return &ActivityResult{
		Activity:           activity,
		Message:            fmt.Sprintf("Successfully completed %s!", activity.Name),
		StatDelta:          delta,
		RelationshipPoints: activity.Rewards.RelationshipPoints,
		EmotionalState:     label,
		FlavorEmotion:      flavor,
	}, nil
}

func (g *ActivityGate) pickFlavorEmotion(typ ActivityType) string {
	pool := flavorEmotions[typ]
	if len(pool) == 0 {
		return "content"
	}
	return pool[g.rng.Intn(len(pool))]
}
