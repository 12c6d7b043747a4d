package companion

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"
)

// ──────────────────────────────────────────────
// Exercise Session Manager — timed multi-step state machine
// ──────────────────────────────────────────────

// ExerciseType classifies structured CBT-style exercises.
type ExerciseType string

const (
	ThoughtRestructuring ExerciseType = "ThoughtRestructuring"
	MindfulnessExercise  ExerciseType = "MindfulnessExercise"
	BehavioralActivation ExerciseType = "BehavioralActivation"
	RelaxationTechnique  ExerciseType = "RelaxationTechnique"
	EmotionalRegulation  ExerciseType = "EmotionalRegulation"
	ProblemSolving       ExerciseType = "ProblemSolving"
)

// ExerciseOutcome is one (skill, impact) pair awarded on completion,
// scaled by completion quality.
type ExerciseOutcome struct {
	Skill  string  `json:"skill"`
	Impact float64 `json:"impact"`
}

// Exercise is a structured, timed, multi-step activity.
type Exercise struct {
	ID            string            `json:"id"`
	Type          ExerciseType      `json:"type"`
	Difficulty    int               `json:"difficulty"` // 1-3
	Duration      int               `json:"duration"`   // minutes
	Objective     string            `json:"objective"`
	Instructions  []string          `json:"instructions"`
	RequiredStats StatDelta         `json:"required_stats,omitempty"`
	Outcomes      []ExerciseOutcome `json:"outcomes"`
}

// ExerciseResult reports a scored session (Completed or TimedOut).
type ExerciseResult struct {
	Exercise             *Exercise     `json:"exercise"`
	Completed            bool          `json:"completed"`
	UserResponses        []string      `json:"user_responses"`
	EmotionalStateBefore string        `json:"emotional_state_before"`
	EmotionalStateAfter  string        `json:"emotional_state_after"`
	StatDelta            StatDelta     `json:"stat_delta"`
	CompletionQuality    float64       `json:"completion_quality"` // 0-100
	Insights             []string      `json:"insights"`
	Elapsed              time.Duration `json:"elapsed"`
}

// exerciseSession is the transient in-progress state. It exists only while
// an exercise is running and is destroyed on completion, cancellation or
// timeout.
type exerciseSession struct {
	exercise    *Exercise
	profile     *Profile
	startTime   time.Time
	currentStep int
	responses   []string
	timePerStep []time.Duration
	stopWatcher chan struct{}
}

// SessionManager runs at most one exercise session per companion. The
// timeout watcher and explicit SubmitStep/Cancel calls are serialized on
// the same mutex: whichever transition lands first wins and the other
// becomes a no-op.
type SessionManager struct {
	memory *MemorySystem
	clock  func() time.Time

	// pollInterval is how often the watcher checks the time limit.
	pollInterval time.Duration

	// OnComplete is invoked (outside the lock) after a session is scored,
	// including watcher-driven timeouts. May be nil.
	OnComplete func(*ExerciseResult)

	mu      sync.Mutex
	session *exerciseSession
}

// NewSessionManager creates a manager recording into memory.
func NewSessionManager(memory *MemorySystem) *SessionManager {
	return &SessionManager{
		memory:       memory,
		clock:        time.Now,
		pollInterval: time.Second,
	}
}

// SetClock overrides the time source. Used by tests.
func (sm *SessionManager) SetClock(clock func() time.Time) { sm.clock = clock }

// SetPollInterval overrides the watcher poll interval. Used by tests.
func (sm *SessionManager) SetPollInterval(d time.Duration) { sm.pollInterval = d }

// Active reports whether a session is in progress.
func (sm *SessionManager) Active() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.session != nil
}

// CurrentStep returns the active session's step index, or -1 when idle.
func (sm *SessionManager) CurrentStep() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.session == nil {
		return -1
	}
	return sm.session.currentStep
}

// Progress returns completion percent (0-100) by step index.
func (sm *SessionManager) Progress() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.session == nil {
		return 0
	}
	pct := sm.session.currentStep * 100 / len(sm.session.exercise.Instructions)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// TimeSpent returns the elapsed time of the active session, or 0 when idle.
func (sm *SessionManager) TimeSpent() time.Duration {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.session == nil {
		return 0
	}
	return sm.clock().Sub(sm.session.startTime)
}

// Start opens a session for the exercise. It fails with
// *SessionActiveError if one is already in progress, or *IneligibleError
// if the profile misses a required stat minimum. Neither failure mutates
// any state.
func (sm *SessionManager) Start(ctx context.Context, exercise *Exercise, profile *Profile) error {
	sm.mu.Lock()
	if sm.session != nil {
		active := sm.session.exercise.ID
		sm.mu.Unlock()
		return &SessionActiveError{ActiveExerciseID: active}
	}
	for stat, required := range exercise.RequiredStats {
		if actual := profile.StatValue(stat); actual < required {
			sm.mu.Unlock()
			return &IneligibleError{ExerciseID: exercise.ID, Stat: stat, Required: required, Actual: actual}
		}
	}

	now := sm.clock()
	sess := &exerciseSession{
		exercise:    exercise,
		profile:     profile,
		startTime:   now,
		stopWatcher: make(chan struct{}),
	}
	sm.session = sess
	sm.mu.Unlock()

	sm.memory.Record(ctx, fmt.Sprintf("Started %s exercise", exercise.Type), MemoryInteraction, map[string]interface{}{
		"exercise_id": exercise.ID,
		"type":        string(exercise.Type),
		"difficulty":  exercise.Difficulty,
	}, 1)

	go sm.watchTimeout(sess)
	return nil
}

// SubmitStep appends the response and the elapsed time since the previous
// step. Submitting the final step completes and scores the session; the
// result is returned only on that final call. Fails with
// *NoActiveSessionError when idle.
func (sm *SessionManager) SubmitStep(ctx context.Context, response string) (*ExerciseResult, error) {
	sm.mu.Lock()
	sess := sm.session
	if sess == nil {
		sm.mu.Unlock()
		return nil, &NoActiveSessionError{}
	}

	now := sm.clock()
	var prior time.Duration
	for _, d := range sess.timePerStep {
		prior += d
	}
	sess.responses = append(sess.responses, response)
	sess.timePerStep = append(sess.timePerStep, now.Sub(sess.startTime)-prior)
	sess.currentStep++

	if sess.currentStep < len(sess.exercise.Instructions) {
		sm.mu.Unlock()
		return nil, nil
	}

	result := sm.finishLocked(ctx, sess, false, now)
	sm.mu.Unlock()

	if sm.OnComplete != nil && result != nil {
		sm.OnComplete(result)
	}
	return result, nil
}

// Cancel discards the active session without scoring or stat changes.
func (sm *SessionManager) Cancel() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.session == nil {
		return &NoActiveSessionError{}
	}
	close(sm.session.stopWatcher)
	sm.session = nil
	return nil
}

// watchTimeout polls the time limit for one session. It exits when the
// session ends for any reason.
func (sm *SessionManager) watchTimeout(sess *exerciseSession) {
	ticker := time.NewTicker(sm.pollInterval)
	defer ticker.Stop()

	limit := time.Duration(sess.exercise.Duration) * time.Minute
	for {
		select {
		case <-sess.stopWatcher:
			return
		case <-ticker.C:
			sm.mu.Lock()
			// Session may have been completed or cancelled since the tick.
			if sm.session != sess {
				sm.mu.Unlock()
				return
			}
			now := sm.clock()
			if now.Sub(sess.startTime) < limit {
				sm.mu.Unlock()
				continue
			}
			log.Printf("[SessionManager] Exercise timed out | id=%s elapsed=%s", sess.exercise.ID, now.Sub(sess.startTime).Round(time.Second))
			result := sm.finishLocked(context.Background(), sess, true, now)
			sm.mu.Unlock()

			if sm.OnComplete != nil && result != nil {
				sm.OnComplete(result)
			}
			return
		}
	}
}

// finishLocked scores and tears down the session. Callers hold sm.mu and
// must guarantee sm.session == sess.
func (sm *SessionManager) finishLocked(ctx context.Context, sess *exerciseSession, timedOut bool, now time.Time) *ExerciseResult {
	select {
	case <-sess.stopWatcher:
	default:
		close(sess.stopWatcher)
	}
	sm.session = nil

	elapsed := now.Sub(sess.startTime)
	before := sm.memory.EmotionalState()

	quality := completionQuality(sess, elapsed)
	delta := outcomeDelta(sess.exercise.Outcomes, quality)
	after := ClassifyStatImpact(delta)

	sess.profile.ApplyStatDelta(delta)
	sess.profile.LastInteraction = now
	sm.memory.SetEmotionalState(after)

	sm.memory.Record(ctx, fmt.Sprintf("Completed %s exercise", sess.exercise.Type), MemoryInteraction, map[string]interface{}{
		"exercise_id": sess.exercise.ID,
		"type":        string(sess.exercise.Type),
		"quality":     quality,
		"timed_out":   timedOut,
		"duration":    elapsed.String(),
		"stat_delta":  delta,
	}, 2)

	return &ExerciseResult{
		Exercise:             sess.exercise,
		Completed:            !timedOut,
		UserResponses:        append([]string(nil), sess.responses...),
		EmotionalStateBefore: before,
		EmotionalStateAfter:  after,
		StatDelta:            delta,
		CompletionQuality:    quality,
		Insights:             exerciseInsights(sess, quality, timedOut),
		Elapsed:              elapsed,
	}
}

// completionQuality blends response effort (70%) and time usage (30%) into
// a 0-100 score. Response quality is a length proxy — 50+ characters per
// step counts as full engagement, no semantic judgment.
func completionQuality(sess *exerciseSession, elapsed time.Duration) float64 {
	steps := len(sess.exercise.Instructions)
	if steps == 0 {
		return 0
	}

	responseQuality := 0.0
	for _, r := range sess.responses {
		responseQuality += math.Min(float64(len(r))/50, 1)
	}
	responseQuality /= float64(steps)

	allowed := time.Duration(sess.exercise.Duration) * time.Minute
	timeQuality := 1.0
	if allowed > 0 {
		timeQuality = math.Min(float64(elapsed)/float64(allowed), 1)
	}

	return (responseQuality*0.7 + timeQuality*0.3) * 100
}

// outcomeDelta scales each outcome impact by quality and rounds. Delta
// magnitudes scale monotonically with quality.
func outcomeDelta(outcomes []ExerciseOutcome, quality float64) StatDelta {
	multiplier := quality / 100
	delta := StatDelta{}
	for _, o := range outcomes {
		delta[o.Skill] += math.Round(o.Impact * multiplier)
	}
	return delta
}

func exerciseInsights(sess *exerciseSession, quality float64, timedOut bool) []string {
	var insights []string

	if timedOut {
		insights = append(insights, "Exercise was not completed within the time limit")
	}

	switch {
	case quality >= 90:
		insights = append(insights, "Showed exceptional engagement and thoughtfulness")
	case quality >= 70:
		insights = append(insights, "Demonstrated good understanding and effort")
	case quality >= 50:
		insights = append(insights, "Completed the exercise with moderate engagement")
	default:
		insights = append(insights, "Could benefit from more detailed responses")
	}

	if len(sess.timePerStep) > 0 {
		var total time.Duration
		for _, d := range sess.timePerStep {
			total += d
		}
		avg := total / time.Duration(len(sess.timePerStep))
		if avg < 30*time.Second {
			insights = append(insights, "Consider taking more time to reflect on each step")
		} else if avg > 2*time.Minute {
			insights = append(insights, "Shows deep reflection and consideration")
		}
	}

	return insights
}
