// Package availability computes bookable time windows from calendar
// busy evidence and the fixed slot grid.
package availability

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bogdankol/telrgam-bot-calendar/internal/calendar"
	"github.com/bogdankol/telrgam-bot-calendar/internal/errors"
	"github.com/bogdankol/telrgam-bot-calendar/internal/interval"
)

type Config struct {
	CalendarIDs    []string
	Grid           interval.Grid
	Location       *time.Location
	DaysAhead      int
	MinDays        int
	MaxConcurrency int
}

// Engine owns the availability computation. It never reads or writes
// booking sessions.
type Engine struct {
	busy calendar.BusySource
	cfg  Config
	now  func() time.Time
}

func NewEngine(busy calendar.BusySource, cfg Config) *Engine {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Engine{
		busy: busy,
		cfg:  cfg,
		now:  time.Now,
	}
}

// FreeSlotsForDay returns the bookable slots for a day in ascending
// start order. It issues a single busy query covering the whole work
// window across every configured calendar, unions the responses, then
// keeps each grid slot that collides with nothing.
func (e *Engine) FreeSlotsForDay(ctx context.Context, day time.Time) ([]interval.Slot, error) {
	candidates := e.cfg.Grid.SlotsFor(day, e.cfg.Location)
	if len(candidates) == 0 {
		return nil, nil
	}

	busySet, err := e.busy.QueryBusy(ctx, e.cfg.CalendarIDs, e.cfg.Grid.Window(day, e.cfg.Location))
	if err != nil {
		return nil, errors.Wrap(err, "busy query for "+day.Format("2006-01-02"))
	}

	free := make([]interval.Slot, 0, len(candidates))
	for _, slot := range candidates {
		if !busySet.AnyOverlap(slot.TimeInterval) {
			free = append(free, slot)
		}
	}
	return free, nil
}

// HasSlot reports whether a slot with the given start is still free on
// its day, using a fresh busy query. Both re-validation points of the
// booking flow go through here.
func (e *Engine) HasSlot(ctx context.Context, slot interval.Slot) (bool, error) {
	day := interval.Day(slot.Start, e.cfg.Location)
	free, err := e.FreeSlotsForDay(ctx, day)
	if err != nil {
		return false, err
	}
	for _, s := range free {
		if s.Start.Equal(slot.Start) {
			return true, nil
		}
	}
	return false, nil
}

// AvailableDays scans forward from tomorrow for up to DaysAhead calendar
// days, skipping weekends, and returns the first MinDays days that have
// at least one free slot, chronologically ordered. Days are checked in
// bounded concurrent waves so the remote calendar API is never hit with
// more than MaxConcurrency requests at once; a failed busy query marks
// only that day as full and the scan continues.
func (e *Engine) AvailableDays(ctx context.Context) ([]time.Time, error) {
	today := interval.Day(e.now(), e.cfg.Location)

	var candidates []time.Time
	for i := 1; i <= e.cfg.DaysAhead; i++ {
		day := today.AddDate(0, 0, i)
		if interval.IsWeekend(day) {
			continue
		}
		candidates = append(candidates, day)
	}

	var available []time.Time
	for offset := 0; offset < len(candidates) && len(available) < e.cfg.MinDays; offset += e.cfg.MaxConcurrency {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := offset + e.cfg.MaxConcurrency
		if end > len(candidates) {
			end = len(candidates)
		}
		wave := candidates[offset:end]

		hasSlots := make([]bool, len(wave))
		var g errgroup.Group
		for idx, day := range wave {
			idx, day := idx, day
			g.Go(func() error {
				slots, err := e.FreeSlotsForDay(ctx, day)
				if err != nil {
					// Fail closed: an unreadable day offers no slots.
					slog.Warn("Busy query failed, skipping day",
						"day", day.Format("2006-01-02"),
						"error", err)
					return nil
				}
				hasSlots[idx] = len(slots) > 0
				return nil
			})
		}
		g.Wait()

		// Wave results land in candidate order, so chronological order
		// survives regardless of goroutine completion order.
		for idx, ok := range hasSlots {
			if ok && len(available) < e.cfg.MinDays {
				available = append(available, wave[idx])
			}
		}
	}
	return available, nil
}
