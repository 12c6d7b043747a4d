package companion

import (
	"errors"
	"fmt"
	"time"
)

// ──────────────────────────────────────────────
// Error taxonomy — admission results vs collaborator failures
// ──────────────────────────────────────────────

// Admission failures are expected, recoverable outcomes: the engine rejected
// a request without mutating any state. Collaborator failures wrap an
// underlying cause from an external service (store, text generation, speech
// synthesis); they are isolated to the call that triggered them.

// CooldownError reports an activity rejected because its type is still
// cooling down. Remaining is the wait left before the next attempt.
type CooldownError struct {
	ActivityID string
	Type       ActivityType
	Remaining  time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("activity %s on cooldown: %s remaining", e.ActivityID, e.Remaining.Round(time.Second))
}

// InsufficientEnergyError reports an activity rejected for lack of energy.
type InsufficientEnergyError struct {
	ActivityID string
	Required   float64
	Available  float64
}

func (e *InsufficientEnergyError) Error() string {
	return fmt.Sprintf("activity %s needs %.0f energy, have %.0f", e.ActivityID, e.Required, e.Available)
}

// SessionActiveError reports an exercise start rejected because another
// session is already in progress.
type SessionActiveError struct {
	ActiveExerciseID string
}

func (e *SessionActiveError) Error() string {
	return fmt.Sprintf("exercise session already active: %s", e.ActiveExerciseID)
}

// IneligibleError reports an exercise start rejected because the profile
// does not meet a required stat minimum.
type IneligibleError struct {
	ExerciseID string
	Stat       string
	Required   float64
	Actual     float64
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("exercise %s requires %s >= %.0f, have %.0f", e.ExerciseID, e.Stat, e.Required, e.Actual)
}

// NotEligibleError reports a trait unlock rejected by the eligibility rules.
type NotEligibleError struct {
	TraitID string
	Reason  string
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("trait %s not eligible: %s", e.TraitID, e.Reason)
}

// NotFoundError reports a catalog lookup miss.
type NotFoundError struct {
	Kind string // "activity", "exercise", "trait"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// NoActiveSessionError reports a step submission or cancellation with no
// exercise in progress.
type NoActiveSessionError struct{}

func (e *NoActiveSessionError) Error() string { return "no active exercise session" }

// StorageError wraps a long-term store failure. The local short-term state
// is never lost when this is returned.
type StorageError struct {
	Op  string // "persist", "search", "purge"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("long-term store %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// GenerationError wraps a text-generation collaborator failure.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("text generation failed: %v", e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }

// SynthesisError wraps a speech-synthesis collaborator failure.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string { return fmt.Sprintf("speech synthesis failed: %v", e.Err) }
func (e *SynthesisError) Unwrap() error { return e.Err }

var (
	errNoGenerator   = errors.New("no text generator configured")
	errNoSynthesizer = errors.New("no speech synthesizer configured")
)
