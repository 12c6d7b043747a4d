package companion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────
// Activity Scheduler — free-slot planning over energy patterns
// ──────────────────────────────────────────────

// TimeRange is an hour-granular daily window, [Start, End).
type TimeRange struct {
	Start int `json:"start"` // 0-23
	End   int `json:"end"`
}

// TimeCommitment is a fixed daily obligation that blocks scheduling.
type TimeCommitment struct {
	Name     string    `json:"name"`
	TimeSlot TimeRange `json:"time_slot"`
}

// SchedulePreferences describes the user's availability profile.
// EnergyLevels maps hour-of-day (0-23) to a 0-100 energy estimate; hours at
// or below the viability floor are never scheduled.
type SchedulePreferences struct {
	EnergyLevels  map[int]int `json:"energy_levels"`
	SupportSystem []string    `json:"support_system,omitempty"`
}

// energyFloor is the minimum hourly energy for a slot to be schedulable.
const energyFloor = 30

// ScheduledActivity is one planned slot in a generated schedule.
type ScheduledActivity struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"` // pleasure/mastery/social/self-care
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Duration    int       `json:"duration"` // minutes
	TimeSlot    TimeRange `json:"time_slot"`
	Preparation []string  `json:"preparation,omitempty"`
}

// ScheduleResult is a full generated daily schedule.
type ScheduleResult struct {
	Activities  []ScheduledActivity `json:"activities"`
	Conflicts   []string            `json:"conflicts,omitempty"`
	Suggestions []string            `json:"suggestions,omitempty"`
}

// scheduleTemplates are the default activity mix, in placement order.
var scheduleTemplates = []struct {
	kind     string
	name     string
	duration int
}{
	{"pleasure", "Nature Walk", 30},
	{"mastery", "Skill Practice", 45},
	{"social", "Friend Meetup", 60},
	{"self-care", "Meditation", 20},
}

// Scheduler plans behavioral-activation slots around commitments and the
// user's energy pattern.
type Scheduler struct{}

// NewScheduler creates a scheduler.
func NewScheduler() *Scheduler { return &Scheduler{} }

// AvailableSlots returns the continuous hour ranges not blocked by a
// commitment and above the energy floor, in day order.
func (s *Scheduler) AvailableSlots(commitments []TimeCommitment, prefs SchedulePreferences) []TimeRange {
	occupied := map[int]bool{}
	for _, c := range commitments {
		for h := c.TimeSlot.Start; h < c.TimeSlot.End; h++ {
			occupied[h] = true
		}
	}

	var slots []TimeRange
	var cur *TimeRange
	for hour := 0; hour < 24; hour++ {
		if !occupied[hour] && prefs.EnergyLevels[hour] > energyFloor {
			if cur == nil {
				cur = &TimeRange{Start: hour, End: hour + 1}
			} else {
				cur.End = hour + 1
			}
			continue
		}
		if cur != nil {
			slots = append(slots, *cur)
			cur = nil
		}
	}
	if cur != nil {
		slots = append(slots, *cur)
	}
	return slots
}

// GenerateSchedule fills available slots with the default activity mix, one
// activity per slot in day order. Missing slots surface as conflicts with a
// rearrangement suggestion.
func (s *Scheduler) GenerateSchedule(commitments []TimeCommitment, prefs SchedulePreferences) *ScheduleResult {
	slots := s.AvailableSlots(commitments, prefs)

	result := &ScheduleResult{}
	for i, slot := range slots {
		if i >= len(scheduleTemplates) {
			break
		}
		tpl := scheduleTemplates[i]
		result.Activities = append(result.Activities, ScheduledActivity{
			ID:          uuid.NewString(),
			Kind:        tpl.kind,
			Name:        tpl.name,
			Description: fmt.Sprintf("Scheduled %s activity", strings.ToLower(tpl.name)),
			Duration:    tpl.duration,
			TimeSlot:    slot,
			Preparation: []string{"Set reminder", "Prepare necessary items"},
		})
	}

	if len(result.Activities) < len(scheduleTemplates) {
		result.Conflicts = append(result.Conflicts, "Not enough available time slots for all activities")
		result.Suggestions = append(result.Suggestions, "Consider rearranging commitments to create more available slots")
	}
	return result
}

// Briefing renders the schedule as a short spoken-style summary, suitable
// for a SpeechSynthesizer.
func (s *Scheduler) Briefing(result *ScheduleResult) string {
	var b strings.Builder
	b.WriteString("Here's your activity schedule:\n")
	for _, a := range result.Activities {
		fmt.Fprintf(&b, "%s at %s.\n", a.Name, formatTimeRange(a.TimeSlot))
	}
	if len(result.Suggestions) > 0 {
		b.WriteString("\nSuggestions:\n")
		b.WriteString(strings.Join(result.Suggestions, "\n"))
	}
	return b.String()
}

// EnergyCurve builds a full-day hourly energy map from a named curve, for
// callers without measured energy data. Known curves: "night_low",
// "morning_high", anything else is flat 60.
func EnergyCurve(curve string) map[int]int {
	levels := make(map[int]int, 24)
	for hour := 0; hour < 24; hour++ {
		levels[hour] = energyAt(curve, hour)
	}
	return levels
}

func energyAt(curve string, hour int) int {
	switch curve {
	case "night_low":
		// Peak at 10-14, low at 22-06.
		switch {
		case hour >= 6 && hour < 10:
			return 60 + (hour-6)*5
		case hour >= 10 && hour < 14:
			return 80
		case hour >= 14 && hour < 18:
			return 70
		case hour >= 18 && hour < 22:
			return 50 - (hour-18)*5
		default:
			return 25
		}
	case "morning_high":
		switch {
		case hour >= 5 && hour < 10:
			return 90
		case hour >= 10 && hour < 14:
			return 70
		case hour >= 14 && hour < 20:
			return 50
		default:
			return 30
		}
	default:
		return 60
	}
}

// PeakEnergyHours returns the n highest-energy hours, best first.
func PeakEnergyHours(prefs SchedulePreferences, n int) []int {
	hours := make([]int, 0, len(prefs.EnergyLevels))
	for h := range prefs.EnergyLevels {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if prefs.EnergyLevels[hours[i]] != prefs.EnergyLevels[hours[j]] {
			return prefs.EnergyLevels[hours[i]] > prefs.EnergyLevels[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > n {
		hours = hours[:n]
	}
	return hours
}

func formatTimeRange(r TimeRange) string {
	return fmt.Sprintf("%s to %s", formatHour(r.Start), formatHour(r.End))
}

func formatHour(hour int) string {
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d%s", display, period)
}
