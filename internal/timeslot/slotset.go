package timeslot

import (
	"fmt"
	"time"
)

// idLayout is the canonical slot identifier format. Lexicographic order of
// identifiers matches chronological order, which callers rely on for
// deterministic tie-breaking.
const idLayout = "2006-01-02T15:04"

// Window describes the enumerable grid of candidate slots for a meeting: a
// date range crossed with a daily hour range divided into fixed-length slots.
type Window struct {
	StartDate           time.Time
	EndDate             time.Time
	StartHour           int
	EndHour             int
	SlotDurationMinutes int
}

// Slot is one discrete proposed meeting time. Slots are derived values,
// regenerated from the window on every read and never stored.
type Slot struct {
	ID              string
	Start           time.Time
	DurationMinutes int
}

// ID derives the canonical slot identifier for a start instant. All slot id
// derivation in the codebase goes through this function so identifiers stay
// stable across regenerations of the same window.
func ID(start time.Time) string {
	return start.Format(idLayout)
}

// ParseID recovers the slot start instant from a canonical identifier.
func ParseID(id string) (time.Time, error) {
	start, err := time.Parse(idLayout, id)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeslot: invalid slot id %q: %w", id, err)
	}
	return start, nil
}

// Generate enumerates the ordered slot set for the window. Every day in
// [StartDate, EndDate] inclusive contributes slots starting at StartHour:00
// and stepping by SlotDurationMinutes while the start remains strictly before
// EndHour:00. The result is deterministic: identical windows always yield
// identical ordered id lists.
//
// A window with StartHour == EndHour yields an empty, non-nil set so callers
// can distinguish "no slots" from "not loaded".
func Generate(w Window) []Slot {
	slots := make([]Slot, 0)
	if w.SlotDurationMinutes <= 0 {
		return slots
	}

	step := time.Duration(w.SlotDurationMinutes) * time.Minute
	first := dateOnly(w.StartDate)
	last := dateOnly(w.EndDate)

	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		dayStart := day.Add(time.Duration(w.StartHour) * time.Hour)
		dayEnd := day.Add(time.Duration(w.EndHour) * time.Hour)
		for start := dayStart; start.Before(dayEnd); start = start.Add(step) {
			slots = append(slots, Slot{
				ID:              ID(start),
				Start:           start,
				DurationMinutes: w.SlotDurationMinutes,
			})
		}
	}

	return slots
}

// Contains reports whether the identifier names a slot of the window without
// materialising the full set.
func (w Window) Contains(id string) bool {
	start, err := ParseID(id)
	if err != nil {
		return false
	}
	if w.SlotDurationMinutes <= 0 {
		return false
	}

	day := dateOnly(start)
	if day.Before(dateOnly(w.StartDate)) || day.After(dateOnly(w.EndDate)) {
		return false
	}

	dayStart := day.Add(time.Duration(w.StartHour) * time.Hour)
	dayEnd := day.Add(time.Duration(w.EndHour) * time.Hour)
	if start.Before(dayStart) || !start.Before(dayEnd) {
		return false
	}

	offset := start.Sub(dayStart)
	step := time.Duration(w.SlotDurationMinutes) * time.Minute
	return offset%step == 0
}

// IDs returns the ordered identifier list for the window.
func IDs(w Window) []string {
	slots := Generate(w)
	ids := make([]string, len(slots))
	for i, slot := range slots {
		ids[i] = slot.ID
	}
	return ids
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
