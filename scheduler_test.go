package companion

import (
	"strings"
	"testing"
)

// ══════════════════════════════════════════════
// Scheduler
// ══════════════════════════════════════════════

func flatEnergy(level int) map[int]int {
	levels := make(map[int]int, 24)
	for h := 0; h < 24; h++ {
		levels[h] = level
	}
	return levels
}

func TestScheduler_AvailableSlots(t *testing.T) {
	s := NewScheduler()
	prefs := SchedulePreferences{EnergyLevels: flatEnergy(60)}
	commitments := []TimeCommitment{
		{Name: "work", TimeSlot: TimeRange{Start: 9, End: 17}},
	}

	slots := s.AvailableSlots(commitments, prefs)
	if len(slots) != 2 {
		t.Fatalf("slots = %v, want 2 ranges", slots)
	}
	if slots[0].Start != 0 || slots[0].End != 9 {
		t.Fatalf("morning slot = %+v", slots[0])
	}
	if slots[1].Start != 17 || slots[1].End != 24 {
		t.Fatalf("evening slot = %+v", slots[1])
	}
}

func TestScheduler_EnergyFloorBlocksHours(t *testing.T) {
	s := NewScheduler()
	levels := flatEnergy(60)
	for h := 0; h < 12; h++ {
		levels[h] = 20 // below the floor
	}
	slots := s.AvailableSlots(nil, SchedulePreferences{EnergyLevels: levels})
	if len(slots) != 1 || slots[0].Start != 12 {
		t.Fatalf("slots = %v", slots)
	}
}

func TestScheduler_GenerateScheduleFillsSlots(t *testing.T) {
	s := NewScheduler()
	prefs := SchedulePreferences{EnergyLevels: flatEnergy(60)}
	commitments := []TimeCommitment{
		{Name: "work", TimeSlot: TimeRange{Start: 9, End: 17}},
		{Name: "sleep", TimeSlot: TimeRange{Start: 0, End: 7}},
	}

	result := s.GenerateSchedule(commitments, prefs)
	if len(result.Activities) != 2 {
		t.Fatalf("activities = %d, want 2 (one per free slot)", len(result.Activities))
	}
	if result.Activities[0].Kind != "pleasure" {
		t.Fatalf("first kind = %q", result.Activities[0].Kind)
	}
	if len(result.Conflicts) == 0 {
		t.Fatal("unfilled template slots should surface as a conflict")
	}
}

func TestScheduler_Briefing(t *testing.T) {
	s := NewScheduler()
	result := s.GenerateSchedule(nil, SchedulePreferences{EnergyLevels: flatEnergy(60)})

	briefing := s.Briefing(result)
	if !strings.Contains(briefing, "Nature Walk") {
		t.Fatalf("briefing = %q", briefing)
	}
	if !strings.Contains(briefing, "12AM to 12AM") && !strings.Contains(briefing, "AM") {
		t.Fatalf("briefing missing times: %q", briefing)
	}
}

func TestEnergyCurve(t *testing.T) {
	nightLow := EnergyCurve("night_low")
	if nightLow[12] != 80 {
		t.Fatalf("night_low midday = %d, want 80", nightLow[12])
	}
	if nightLow[23] != 25 {
		t.Fatalf("night_low late night = %d, want 25", nightLow[23])
	}

	morning := EnergyCurve("morning_high")
	if morning[7] != 90 || morning[22] != 30 {
		t.Fatalf("morning_high = %d/%d", morning[7], morning[22])
	}

	if flat := EnergyCurve("unknown"); flat[3] != 60 {
		t.Fatalf("unknown curve should be flat 60, got %d", flat[3])
	}
}

func TestPeakEnergyHours(t *testing.T) {
	levels := flatEnergy(40)
	levels[10] = 90
	levels[15] = 80

	peaks := PeakEnergyHours(SchedulePreferences{EnergyLevels: levels}, 2)
	if len(peaks) != 2 || peaks[0] != 10 || peaks[1] != 15 {
		t.Fatalf("peaks = %v", peaks)
	}
}
