package interval

import (
	"time"
)

// TimeInterval is a half-open time range [Start, End) expressed in the
// configured target time zone. Start must be strictly before End.
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

func (iv TimeInterval) Valid() bool {
	return iv.Start.Before(iv.End)
}

// Overlaps reports whether two half-open intervals share any instant.
func (iv TimeInterval) Overlaps(other TimeInterval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

func (iv TimeInterval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// BusySet is unavailable time gathered from one or more calendars for a
// query window. Intervals are unordered and may overlap each other.
type BusySet []TimeInterval

// AnyOverlap reports whether iv collides with any busy interval.
func (b BusySet) AnyOverlap(iv TimeInterval) bool {
	for _, busy := range b {
		if iv.Overlaps(busy) {
			return true
		}
	}
	return false
}

// Slot is a candidate meeting interval on the daily work-window grid.
type Slot struct {
	TimeInterval
}

// Label renders the slot start as shown to the client.
func (s Slot) Label() string {
	return s.Start.Format("15:04")
}

// DayAvailability pairs a calendar day with its bookable slots. The day
// counts as available iff Slots is non-empty.
type DayAvailability struct {
	Day   time.Time
	Slots []Slot
}

// Grid holds the fixed slot layout inside the daily work window. Slots
// are anchored to the work-window start, never to the query time, so
// start times stay deterministic across the day.
type Grid struct {
	WorkStartHour int
	WorkEndHour   int
	SlotDuration  time.Duration
	Gap           time.Duration
	MaxPerDay     int
}

// SlotsFor generates the full candidate grid for a day, in ascending
// start order. Slots that would end past the work-window end are cut.
func (g Grid) SlotsFor(day time.Time, loc *time.Location) []Slot {
	start := time.Date(day.Year(), day.Month(), day.Day(), g.WorkStartHour, 0, 0, 0, loc)
	windowEnd := time.Date(day.Year(), day.Month(), day.Day(), g.WorkEndHour, 0, 0, 0, loc)

	var slots []Slot
	cursor := start
	for i := 0; i < g.MaxPerDay; i++ {
		end := cursor.Add(g.SlotDuration)
		if end.After(windowEnd) {
			break
		}
		slots = append(slots, Slot{TimeInterval{Start: cursor, End: end}})
		cursor = end.Add(g.Gap)
	}
	return slots
}

// Window returns the span covered by the whole grid for a day, used to
// issue a single batched busy query instead of one per candidate slot.
func (g Grid) Window(day time.Time, loc *time.Location) TimeInterval {
	return TimeInterval{
		Start: time.Date(day.Year(), day.Month(), day.Day(), g.WorkStartHour, 0, 0, 0, loc),
		End:   time.Date(day.Year(), day.Month(), day.Day(), g.WorkEndHour, 0, 0, 0, loc),
	}
}

// Day normalizes t to midnight in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// IsWeekend reports whether the day never receives slots.
func IsWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
