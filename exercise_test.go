package companion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/atomic"
)

// ══════════════════════════════════════════════
// SessionManager
// ══════════════════════════════════════════════

// steppedClock is a goroutine-safe fake clock for exercise tests: the
// watcher goroutine reads it concurrently with the test.
type steppedClock struct {
	base   time.Time
	offset *atomic.Duration
}

func newSteppedClock() *steppedClock {
	return &steppedClock{
		base:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		offset: atomic.NewDuration(0),
	}
}

func (c *steppedClock) Now() time.Time          { return c.base.Add(c.offset.Load()) }
func (c *steppedClock) Advance(d time.Duration) { c.offset.Add(d) }

func thoughtJournal(t *testing.T) *Exercise {
	t.Helper()
	ex, ok := FindExercise(DefaultExercises(), "thought-journal")
	if !ok {
		t.Fatal("thought-journal missing from catalog")
	}
	return ex
}

func TestExercise_StartRejectsIneligible(t *testing.T) {
	sm := NewSessionManager(NewMemorySystem("s1", nil))
	profile := NewProfile("Kit", Stats{Wisdom: 5, Empathy: 10, Energy: 100})

	err := sm.Start(context.Background(), thoughtJournal(t), profile)
	var ie *IneligibleError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IneligibleError, got %v", err)
	}
	if ie.Stat != "wisdom" || ie.Required != 10 || ie.Actual != 5 {
		t.Fatalf("unexpected detail: %+v", ie)
	}
	if sm.Active() {
		t.Fatal("no session should exist after rejection")
	}
}

func TestExercise_SecondStartRejected(t *testing.T) {
	sm := NewSessionManager(NewMemorySystem("s1", nil))
	profile := testProfile()
	ex := thoughtJournal(t)

	if err := sm.Start(context.Background(), ex, profile); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sm.Cancel()

	err := sm.Start(context.Background(), ex, profile)
	var sa *SessionActiveError
	if !errors.As(err, &sa) {
		t.Fatalf("expected SessionActiveError, got %v", err)
	}
	if sa.ActiveExerciseID != "thought-journal" {
		t.Fatalf("active id = %s", sa.ActiveExerciseID)
	}
}

func TestExercise_SubmitWithoutSession(t *testing.T) {
	sm := NewSessionManager(NewMemorySystem("s1", nil))
	_, err := sm.SubmitStep(context.Background(), "hello")
	var na *NoActiveSessionError
	if !errors.As(err, &na) {
		t.Fatalf("expected NoActiveSessionError, got %v", err)
	}
}

func TestExercise_FullSessionScoring(t *testing.T) {
	ms := NewMemorySystem("s1", nil)
	sm := NewSessionManager(ms)
	clock := newSteppedClock()
	sm.SetClock(clock.Now)

	profile := testProfile()
	ex := thoughtJournal(t)
	if err := sm.Start(context.Background(), ex, profile); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Full-effort responses, 30s per step: elapsed 2m of the allowed 10m.
	response := strings.Repeat("thoughtful reflection ", 3) // >50 chars
	var result *ExerciseResult
	for i := 0; i < 4; i++ {
		clock.Advance(30 * time.Second)
		r, err := sm.SubmitStep(context.Background(), response)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if i < 3 && r != nil {
			t.Fatalf("step %d returned a result early", i)
		}
		result = r
	}

	if result == nil || !result.Completed {
		t.Fatal("final step should complete the session")
	}
	// responseQuality 1.0, timeQuality 2/10: (0.7 + 0.06) * 100.
	if result.CompletionQuality < 75.9 || result.CompletionQuality > 76.1 {
		t.Fatalf("quality = %.2f, want 76", result.CompletionQuality)
	}
	if result.StatDelta["wisdom"] != 2 || result.StatDelta["empathy"] != 2 {
		t.Fatalf("delta = %v, want wisdom 2 empathy 2", result.StatDelta)
	}
	if profile.Stats.Wisdom != 12 || profile.Stats.Empathy != 12 {
		t.Fatalf("stats = %+v", profile.Stats)
	}
	if result.EmotionalStateAfter != "content" {
		t.Fatalf("state after = %q", result.EmotionalStateAfter)
	}
	found := false
	for _, in := range result.Insights {
		if in == "Demonstrated good understanding and effort" {
			found = true
		}
	}
	if !found {
		t.Fatalf("insights = %v", result.Insights)
	}
	if sm.Active() {
		t.Fatal("session should be torn down")
	}
}

func TestExercise_LowEffortQuality(t *testing.T) {
	sm := NewSessionManager(NewMemorySystem("s1", nil))
	clock := newSteppedClock()
	sm.SetClock(clock.Now)

	profile := testProfile()
	if err := sm.Start(context.Background(), thoughtJournal(t), profile); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var result *ExerciseResult
	for i := 0; i < 4; i++ {
		clock.Advance(10 * time.Second)
		result, _ = sm.SubmitStep(context.Background(), "ok")
	}

	// responseQuality 2/50, timeQuality 40s/10m.
	if result.CompletionQuality > 20 {
		t.Fatalf("quality = %.2f, want low", result.CompletionQuality)
	}
	found := false
	for _, in := range result.Insights {
		if in == "Could benefit from more detailed responses" {
			found = true
		}
	}
	if !found {
		t.Fatalf("insights = %v", result.Insights)
	}
}

func TestExercise_Cancel(t *testing.T) {
	sm := NewSessionManager(NewMemorySystem("s1", nil))
	profile := testProfile()
	wisdomBefore := profile.Stats.Wisdom

	if err := sm.Start(context.Background(), thoughtJournal(t), profile); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := sm.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if sm.Active() {
		t.Fatal("session should be gone")
	}
	if profile.Stats.Wisdom != wisdomBefore {
		t.Fatal("cancel must not change stats")
	}
	if err := sm.Cancel(); err == nil {
		t.Fatal("second cancel should fail")
	}
}

func TestExercise_TimeoutViaWatcher(t *testing.T) {
	ms := NewMemorySystem("s1", nil)
	sm := NewSessionManager(ms)
	clock := newSteppedClock()
	sm.SetClock(clock.Now)
	sm.SetPollInterval(2 * time.Millisecond)

	done := make(chan *ExerciseResult, 1)
	sm.OnComplete = func(r *ExerciseResult) { done <- r }

	profile := testProfile()
	if err := sm.Start(context.Background(), thoughtJournal(t), profile); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clock.Advance(30 * time.Second)
	if _, err := sm.SubmitStep(context.Background(), "a partial answer with some real substance to it"); err != nil {
		t.Fatalf("SubmitStep: %v", err)
	}

	// Blow past the 10 minute limit; the watcher should finish the session.
	clock.Advance(15 * time.Minute)

	select {
	case result := <-done:
		if result.Completed {
			t.Fatal("timed-out session must not count as completed")
		}
		if result.Insights[0] != "Exercise was not completed within the time limit" {
			t.Fatalf("insights = %v", result.Insights)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never fired")
	}

	if sm.Active() {
		t.Fatal("session should be torn down after timeout")
	}
	if _, err := sm.SubmitStep(context.Background(), "late"); err == nil {
		t.Fatal("submit after timeout should fail")
	}
}

func TestExercise_ProgressTracking(t *testing.T) {
	sm := NewSessionManager(NewMemorySystem("s1", nil))
	profile := testProfile()

	if sm.CurrentStep() != -1 || sm.Progress() != 0 {
		t.Fatal("idle manager should report no progress")
	}
	if err := sm.Start(context.Background(), thoughtJournal(t), profile); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sm.Cancel()

	sm.SubmitStep(context.Background(), "step one")
	if sm.CurrentStep() != 1 {
		t.Fatalf("step = %d, want 1", sm.CurrentStep())
	}
	if sm.Progress() != 25 {
		t.Fatalf("progress = %d, want 25", sm.Progress())
	}
}
