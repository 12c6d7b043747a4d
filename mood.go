package companion

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────
// Mood Detection — lightweight rule-based scoring
// ──────────────────────────────────────────────

// DetectedMood holds the detected user mood and confidence.
type DetectedMood struct {
	Tone       string             `json:"tone"`       // neutral/anxious/angry/happy/sad
	Confidence float64            `json:"confidence"` // 0.0-1.0
	Scores     map[string]float64 `json:"scores"`     // all tone scores
}

type weightedKeyword struct {
	keyword string
	weight  float64
}

// MoodDetector infers user mood from input text via weighted keyword
// scoring. Differentiated weights reduce false positives.
type MoodDetector struct {
	patterns map[string][]weightedKeyword
}

// NewMoodDetector creates a detector with the built-in patterns.
func NewMoodDetector() *MoodDetector {
	return &MoodDetector{patterns: defaultMoodPatterns()}
}

func defaultMoodPatterns() map[string][]weightedKeyword {
	return map[string][]weightedKeyword{
		"angry": {
			{keyword: "hate", weight: 0.5}, {keyword: "furious", weight: 0.5},
			{keyword: "terrible", weight: 0.4}, {keyword: "useless", weight: 0.4},
			{keyword: "annoyed", weight: 0.4}, {keyword: "frustrated", weight: 0.4},
		},
		"anxious": {
			{keyword: "worried", weight: 0.4}, {keyword: "nervous", weight: 0.4},
			{keyword: "anxious", weight: 0.5}, {keyword: "scared", weight: 0.4},
			{keyword: "overwhelmed", weight: 0.4}, {keyword: "can't stop thinking", weight: 0.4},
		},
		"happy": {
			// Lower weight — needs multiple hits to trigger (anti-false-positive for sarcasm)
			{keyword: "great", weight: 0.3}, {keyword: "awesome", weight: 0.3},
			{keyword: "love it", weight: 0.3}, {keyword: "wonderful", weight: 0.3},
			{keyword: "excited", weight: 0.3}, {keyword: "grateful", weight: 0.3},
		},
		"sad": {
			{keyword: "sad", weight: 0.5}, {keyword: "lonely", weight: 0.4},
			{keyword: "disappointed", weight: 0.4}, {keyword: "hopeless", weight: 0.5},
			{keyword: "miss", weight: 0.3}, {keyword: "cried", weight: 0.4},
		},
	}
}

// Detect scores the input against the mood patterns. Scores below the 0.3
// confidence floor resolve to neutral.
func (d *MoodDetector) Detect(input string) *DetectedMood {
	lower := strings.ToLower(input)
	scores := map[string]float64{
		"neutral": 0,
		"angry":   0,
		"anxious": 0,
		"happy":   0,
		"sad":     0,
	}

	for tone, keywords := range d.patterns {
		for _, kw := range keywords {
			if strings.Contains(lower, kw.keyword) {
				scores[tone] += kw.weight
			}
		}
	}

	// Exclamation boost: >=2 marks lift the leading emotion, capped at +0.2.
	if exclam := strings.Count(input, "!"); exclam >= 2 {
		boost := float64(exclam) * 0.1
		if boost > 0.2 {
			boost = 0.2
		}
		if top := maxScoredTone(scores); top != "neutral" {
			scores[top] += boost
		}
	}

	topTone := maxScoredTone(scores)
	confidence := scores[topTone]
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0.3 {
		topTone = "neutral"
		confidence = 0
	}

	return &DetectedMood{Tone: topTone, Confidence: confidence, Scores: scores}
}

// PromptHint returns a gentle mood hint for prompt injection, or "" when
// neutral. Indirect phrasing on purpose.
func (m *DetectedMood) PromptHint() string {
	hints := map[string]string{
		"angry":   "The user's tone is strong; stay patient and keep wording gentle",
		"anxious": "The user sounds pressed; respond concisely and directly",
		"happy":   "The user is in a good mood; keep the interaction light",
		"sad":     "The user's spirits are low; use a warm, caring tone",
	}
	if m.Tone == "neutral" || m.Confidence < 0.3 {
		return ""
	}
	hint, ok := hints[m.Tone]
	if !ok {
		return ""
	}
	return fmt.Sprintf("[user mood] %s", hint)
}

func maxScoredTone(scores map[string]float64) string {
	top := "neutral"
	best := 0.0
	for tone, score := range scores {
		if tone == "neutral" {
			continue
		}
		if score > best {
			best = score
			top = tone
		}
	}
	return top
}

// ──────────────────────────────────────────────
// Mood Tracker — entry log and pattern aggregation
// ──────────────────────────────────────────────

// MoodEntry is one self-reported or detected mood observation.
type MoodEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Emotion   string    `json:"emotion"`
	Intensity int       `json:"intensity"` // 1-10
	Triggers  []string  `json:"triggers,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// EmotionalPattern aggregates one emotion across tracked entries.
type EmotionalPattern struct {
	Emotion          string   `json:"emotion"`
	Frequency        int      `json:"frequency"`
	AverageIntensity float64  `json:"average_intensity"`
	CommonTriggers   []string `json:"common_triggers,omitempty"`
}

// MoodTracker keeps a time-ordered mood log and aggregates it into
// per-emotion patterns.
type MoodTracker struct {
	mu      sync.Mutex
	entries []MoodEntry
	clock   func() time.Time
}

// NewMoodTracker creates an empty tracker.
func NewMoodTracker() *MoodTracker {
	return &MoodTracker{clock: time.Now}
}

// SetClock overrides the time source. Used by tests.
func (mt *MoodTracker) SetClock(clock func() time.Time) { mt.clock = clock }

// Track appends a mood observation and returns the stored entry. Intensity
// is clamped to 1-10.
func (mt *MoodTracker) Track(emotion string, intensity int, triggers []string, notes string) MoodEntry {
	if intensity < 1 {
		intensity = 1
	}
	if intensity > 10 {
		intensity = 10
	}
	entry := MoodEntry{
		ID:        uuid.NewString(),
		Timestamp: mt.clock(),
		Emotion:   emotion,
		Intensity: intensity,
		Triggers:  append([]string(nil), triggers...),
		Notes:     notes,
	}

	mt.mu.Lock()
	mt.entries = append(mt.entries, entry)
	mt.mu.Unlock()
	return entry
}

// Entries returns a copy of the full mood log, oldest first.
func (mt *MoodTracker) Entries() []MoodEntry {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]MoodEntry(nil), mt.entries...)
}

// Patterns aggregates entries since the cutoff into per-emotion patterns,
// sorted by frequency descending.
func (mt *MoodTracker) Patterns(since time.Time) []EmotionalPattern {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	type agg struct {
		count     int
		intensity int
		triggers  map[string]int
	}
	byEmotion := map[string]*agg{}
	for _, e := range mt.entries {
		if e.Timestamp.Before(since) {
			continue
		}
		a := byEmotion[e.Emotion]
		if a == nil {
			a = &agg{triggers: map[string]int{}}
			byEmotion[e.Emotion] = a
		}
		a.count++
		a.intensity += e.Intensity
		for _, t := range e.Triggers {
			a.triggers[t]++
		}
	}

	patterns := make([]EmotionalPattern, 0, len(byEmotion))
	for emotion, a := range byEmotion {
		patterns = append(patterns, EmotionalPattern{
			Emotion:          emotion,
			Frequency:        a.count,
			AverageIntensity: float64(a.intensity) / float64(a.count),
			CommonTriggers:   topTriggers(a.triggers, 3),
		})
	}
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Frequency != patterns[j].Frequency {
			return patterns[i].Frequency > patterns[j].Frequency
		}
		return patterns[i].Emotion < patterns[j].Emotion
	})
	return patterns
}

// DominantEmotion returns the most frequent emotion since the cutoff, or ""
// for an empty window.
func (mt *MoodTracker) DominantEmotion(since time.Time) string {
	patterns := mt.Patterns(since)
	if len(patterns) == 0 {
		return ""
	}
	return patterns[0].Emotion
}

func topTriggers(counts map[string]int, n int) []string {
	type tc struct {
		trigger string
		count   int
	}
	all := make([]tc, 0, len(counts))
	for t, c := range counts {
		all = append(all, tc{t, c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].trigger < all[j].trigger
	})
	if len(all) > n {
		all = all[:n]
	}
	out := make([]string, len(all))
	for i, t := range all {
		out[i] = t.trigger
	}
	return out
}
