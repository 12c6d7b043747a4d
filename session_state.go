package companion

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ──────────────────────────────────────────────
// Interaction State Tracker — automatic dialogue metadata
// ──────────────────────────────────────────────

// InteractionState holds automatically computed dialogue metadata. All
// fields derive from the tracker's own bookkeeping plus the current
// message, zero model cost.
type InteractionState struct {
	TurnIndex           int           `json:"turn_index"`
	IsFollowUp          bool          `json:"is_followup"`
	IsFirstConversation bool          `json:"is_first_conversation"`
	SessionDuration     time.Duration `json:"session_duration"`
	DaysSinceLast       int           `json:"days_since_last"` // -1 = first conversation
	TotalSessions       int           `json:"total_sessions"`
	TimeOfDay           string        `json:"time_of_day"`     // morning/afternoon/evening/late_night
	UserMsgLength       string        `json:"user_msg_length"` // short/medium/long
	LocalTime           string        `json:"local_time"`      // RFC3339 with timezone
}

// InteractionStateTracker computes InteractionState per incoming message.
// Not safe for concurrent use; the engine serializes calls.
type InteractionStateTracker struct {
	followUpWindow time.Duration
	timezone       *time.Location

	turnIndex     int
	sessionStart  time.Time
	lastMsgAt     time.Time
	totalSessions int
	lastSessionAt time.Time
}

// NewInteractionStateTracker creates a tracker. Timezone defaults to UTC.
func NewInteractionStateTracker(timezone ...string) *InteractionStateTracker {
	loc := time.UTC
	if len(timezone) > 0 && timezone[0] != "" {
		if l, err := time.LoadLocation(timezone[0]); err == nil {
			loc = l
		}
	}
	return &InteractionStateTracker{
		followUpWindow: 60 * time.Second,
		timezone:       loc,
	}
}

// Track computes the InteractionState for the current user message and
// advances the tracker's bookkeeping.
func (t *InteractionStateTracker) Track(userInput string, now time.Time) *InteractionState {
	localNow := now.In(t.timezone)

	t.turnIndex++
	if t.sessionStart.IsZero() {
		t.sessionStart = now
	}

	isFollowUp := !t.lastMsgAt.IsZero() && now.Sub(t.lastMsgAt) <= t.followUpWindow
	t.lastMsgAt = now

	daysSinceLast := -1
	if !t.lastSessionAt.IsZero() {
		days := int(now.Sub(t.lastSessionAt).Hours() / 24)
		if days < 0 {
			days = 0
		}
		daysSinceLast = days
	}

	return &InteractionState{
		TurnIndex:           t.turnIndex,
		IsFollowUp:          isFollowUp,
		IsFirstConversation: daysSinceLast == -1,
		SessionDuration:     now.Sub(t.sessionStart),
		DaysSinceLast:       daysSinceLast,
		TotalSessions:       t.totalSessions,
		TimeOfDay:           classifyTimeOfDay(localNow.Hour()),
		UserMsgLength:       classifyMsgLength(utf8.RuneCountInString(userInput)),
		LocalTime:           localNow.Format(time.RFC3339),
	}
}

// TouchSession increments TotalSessions and marks the session boundary.
// Call once per session, after the first message.
func (t *InteractionStateTracker) TouchSession(now time.Time) {
	t.totalSessions++
	t.lastSessionAt = now
}

// FormatForPrompt returns a strategy prompt segment for model injection.
func (s *InteractionState) FormatForPrompt() string {
	lines := []string{"[conversation state]"}

	if s.IsFirstConversation {
		lines = append(lines, "- This is your first conversation together")
	} else {
		lines = append(lines, fmt.Sprintf("- Conversation %d together, turn %d of this session", s.TotalSessions, s.TurnIndex))
		if s.DaysSinceLast > 0 {
			lines = append(lines, fmt.Sprintf("- %d days since you last spoke", s.DaysSinceLast))
		}
	}

	if s.IsFollowUp {
		lines = append(lines, "- The user is following up; respond directly, skip pleasantries")
	}

	switch s.TimeOfDay {
	case "late_night":
		lines = append(lines, "- Current time: late at night")
	case "morning":
		lines = append(lines, "- Current time: morning")
	case "evening":
		lines = append(lines, "- Current time: evening")
	}

	switch s.UserMsgLength {
	case "short":
		lines = append(lines, "- The user's message is short; keep the reply brief")
	case "long":
		lines = append(lines, "- The user's message is long; a detailed reply is fine")
	}

	return strings.Join(lines, "\n")
}

// ToKV returns structured key-value pairs for the session context map.
func (s *InteractionState) ToKV() map[string]interface{} {
	return map[string]interface{}{
		"conversation.days_since_last": s.DaysSinceLast,
		"conversation.total_sessions":  s.TotalSessions,
		"conversation.is_first":        s.IsFirstConversation,
		"session.turn_index":           s.TurnIndex,
		"session.duration_sec":         int(s.SessionDuration.Seconds()),
		"user.is_followup":             s.IsFollowUp,
		"user.msg_length":              s.UserMsgLength,
		"runtime.time_of_day":          s.TimeOfDay,
		"runtime.local_time":           s.LocalTime,
	}
}

func classifyTimeOfDay(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 23:
		return "evening"
	default:
		return "late_night"
	}
}

func classifyMsgLength(runeCount int) string {
	switch {
	case runeCount < 20:
		return "short"
	case runeCount <= 120:
		return "medium"
	default:
		return "long"
	}
}
