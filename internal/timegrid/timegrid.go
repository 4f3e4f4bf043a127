// Package timegrid generates the bookable slot grid for an availability
// window. Everything here is pure time-of-day arithmetic; dates, storage and
// occupancy live elsewhere.
package timegrid

import (
	"fmt"
	"time"
)

const (
	// MinSlotDuration and MaxSlotDuration bound the grid granularity, in minutes.
	MinSlotDuration = 15
	MaxSlotDuration = 120
)

// TimeOfDay is a minute-resolution point within a day, counted from midnight.
type TimeOfDay int

// Parse converts an "HH:MM" string into a TimeOfDay.
func Parse(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM: %w", s, err)
	}
	return FromTime(t), nil
}

// FromTime extracts the time-of-day component of t.
func FromTime(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// GenerateSlots returns the ascending slot start times between start and end,
// advancing by duration minutes. A point is emitted only while strictly less
// than end, so a partial trailing remainder is dropped rather than rounded.
func GenerateSlots(start, end TimeOfDay, durationMinutes int) []TimeOfDay {
	if durationMinutes <= 0 {
		return nil
	}
	var slots []TimeOfDay
	for t := start; t < end; t += TimeOfDay(durationMinutes) {
		slots = append(slots, t)
	}
	return slots
}

// GenerateSlotStrings is GenerateSlots with "HH:MM" formatted output, the
// shape the stores and the API work with.
func GenerateSlotStrings(start, end TimeOfDay, durationMinutes int) []string {
	slots := GenerateSlots(start, end, durationMinutes)
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.String())
	}
	return out
}
