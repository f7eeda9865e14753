// Package calendar defines the narrow surface the booking core consumes
// from the external calendar service: list busy intervals, create an
// event, list events. Provider specifics stay behind these interfaces.
package calendar

import (
	"context"
	"time"

	"github.com/bogdankol/telrgam-bot-calendar/internal/interval"
)

// EventInput carries everything the booking embeds into the calendar
// event. Description holds the collected client fields plus the
// machine-readable correlation tag for later lookup.
type EventInput struct {
	Start          time.Time
	End            time.Time
	Title          string
	Description    string
	WithConference bool
}

type EventRef struct {
	ID       string
	JoinLink string
}

// Event is a read-back calendar entry, used by the upcoming-meetings
// listing.
type Event struct {
	ID          string
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
}

// BusySource answers one batched busy query for a window across several
// calendars. One call per day, never one per candidate slot.
type BusySource interface {
	QueryBusy(ctx context.Context, calendarIDs []string, window interval.TimeInterval) (interval.BusySet, error)
}

type EventWriter interface {
	CreateEvent(ctx context.Context, calendarID string, in EventInput) (EventRef, error)
}

type EventLister interface {
	ListEvents(ctx context.Context, calendarID string, window interval.TimeInterval) ([]Event, error)
}
