package availability

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bogdankol/telrgam-bot-calendar/internal/errors"
	"github.com/bogdankol/telrgam-bot-calendar/internal/interval"
)

// fakeBusySource serves canned busy intervals keyed by day and tracks
// call volume and concurrency.
type fakeBusySource struct {
	mu        sync.Mutex
	busy      map[string]interval.BusySet
	failDays  map[string]bool
	calls     int
	inFlight  int32
	maxUsed   int32
	callDelay time.Duration
}

func newFakeBusySource() *fakeBusySource {
	return &fakeBusySource{
		busy:     make(map[string]interval.BusySet),
		failDays: make(map[string]bool),
	}
}

func (f *fakeBusySource) addBusy(day string, iv interval.TimeInterval) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy[day] = append(f.busy[day], iv)
}

func (f *fakeBusySource) QueryBusy(ctx context.Context, calendarIDs []string, window interval.TimeInterval) (interval.BusySet, error) {
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxUsed)
		if current <= max || atomic.CompareAndSwapInt32(&f.maxUsed, max, current) {
			break
		}
	}

	if f.callDelay > 0 {
		time.Sleep(f.callDelay)
	}

	day := window.Start.Format("2006-01-02")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failDays[day] {
		return nil, errors.ErrCalendarQuery
	}
	return f.busy[day], nil
}

func testEngine(busy *fakeBusySource, now time.Time) *Engine {
	e := NewEngine(busy, Config{
		CalendarIDs: []string{"primary", "work"},
		Grid: interval.Grid{
			WorkStartHour: 11,
			WorkEndHour:   19,
			SlotDuration:  time.Hour,
			MaxPerDay:     8,
		},
		Location:       time.UTC,
		DaysAhead:      30,
		MinDays:        10,
		MaxConcurrency: 5,
	})
	e.now = func() time.Time { return now }
	return e
}

// Tuesday.
var anchor = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

func TestFreeSlotsForDay_ExcludesOverlaps(t *testing.T) {
	busy := newFakeBusySource()
	day := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	// Straddles the 12:00 and 13:00 slots.
	busySpan := interval.TimeInterval{
		Start: time.Date(2026, 9, 2, 12, 30, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 2, 13, 30, 0, 0, time.UTC),
	}
	busy.addBusy("2026-09-02", busySpan)

	engine := testEngine(busy, anchor)
	slots, err := engine.FreeSlotsForDay(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, slots, 6)

	for _, slot := range slots {
		assert.False(t, slot.Overlaps(busySpan), "slot %s overlaps busy time", slot.Label())
	}
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].Start.Before(slots[i].Start), "ascending order")
	}
}

func TestFreeSlotsForDay_AllDayBusyMeansEmpty(t *testing.T) {
	busy := newFakeBusySource()
	busy.addBusy("2026-09-02", interval.TimeInterval{
		Start: time.Date(2026, 9, 2, 11, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 2, 19, 0, 0, 0, time.UTC),
	})

	engine := testEngine(busy, anchor)
	slots, err := engine.FreeSlotsForDay(context.Background(), time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestFreeSlotsForDay_SingleBatchedQuery(t *testing.T) {
	busy := newFakeBusySource()
	engine := testEngine(busy, anchor)

	_, err := engine.FreeSlotsForDay(context.Background(), time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// One query for the whole work window, not one per grid slot.
	assert.Equal(t, 1, busy.calls)
}

func TestAvailableDays_SkipsWeekendsAndStopsAtMinDays(t *testing.T) {
	busy := newFakeBusySource()
	engine := testEngine(busy, anchor)

	days, err := engine.AvailableDays(context.Background())
	require.NoError(t, err)
	require.Len(t, days, 10)

	horizon := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 30)
	prev := time.Time{}
	for _, day := range days {
		assert.False(t, interval.IsWeekend(day), "weekend day %s offered", day.Format("2006-01-02"))
		assert.True(t, day.After(anchor), "day must be in the future")
		assert.False(t, day.After(horizon), "day beyond scan horizon")
		assert.True(t, day.After(prev), "days must be chronological")
		prev = day
	}
}

func TestAvailableDays_FailedDayIsSkipped(t *testing.T) {
	busy := newFakeBusySource()
	busy.failDays["2026-09-02"] = true // tomorrow

	engine := testEngine(busy, anchor)
	days, err := engine.AvailableDays(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, days)

	for _, day := range days {
		assert.NotEqual(t, "2026-09-02", day.Format("2006-01-02"), "failed day must be treated as full")
	}
}

func TestAvailableDays_FullyBookedDaysAreSkipped(t *testing.T) {
	busy := newFakeBusySource()
	busy.addBusy("2026-09-02", interval.TimeInterval{
		Start: time.Date(2026, 9, 2, 11, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 2, 19, 0, 0, 0, time.UTC),
	})

	engine := testEngine(busy, anchor)
	days, err := engine.AvailableDays(context.Background())
	require.NoError(t, err)

	for _, day := range days {
		assert.NotEqual(t, "2026-09-02", day.Format("2006-01-02"))
	}
}

func TestAvailableDays_BoundedConcurrency(t *testing.T) {
	busy := newFakeBusySource()
	busy.callDelay = 10 * time.Millisecond

	engine := testEngine(busy, anchor)
	_, err := engine.AvailableDays(context.Background())
	require.NoError(t, err)

	assert.LessOrEqual(t, atomic.LoadInt32(&busy.maxUsed), int32(5), "concurrency cap exceeded")
}

func TestHasSlot(t *testing.T) {
	busy := newFakeBusySource()
	engine := testEngine(busy, anchor)

	slot := interval.Slot{TimeInterval: interval.TimeInterval{
		Start: time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 2, 15, 0, 0, 0, time.UTC),
	}}

	ok, err := engine.HasSlot(context.Background(), slot)
	require.NoError(t, err)
	assert.True(t, ok)

	busy.addBusy("2026-09-02", slot.TimeInterval)
	ok, err = engine.HasSlot(context.Background(), slot)
	require.NoError(t, err)
	assert.False(t, ok)
}
