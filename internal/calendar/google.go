package calendar

import (
	"context"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/bogdankol/telrgam-bot-calendar/internal/errors"
	"github.com/bogdankol/telrgam-bot-calendar/internal/interval"
)

// GoogleClient talks to the Google Calendar API with service-account
// credentials. It implements BusySource, EventWriter and EventLister.
type GoogleClient struct {
	svc      *gcal.Service
	timezone string
	loc      *time.Location
}

func NewGoogleClient(ctx context.Context, clientEmail, privateKey, timezone string) (*GoogleClient, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, errors.Wrap(err, "load calendar timezone")
	}

	jwtCfg := &jwt.Config{
		Email:      clientEmail,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{gcal.CalendarScope},
		TokenURL:   google.JWTTokenURL,
	}

	svc, err := gcal.NewService(ctx, option.WithTokenSource(jwtCfg.TokenSource(ctx)))
	if err != nil {
		return nil, errors.Wrap(err, "init google calendar service")
	}

	return &GoogleClient{
		svc:      svc,
		timezone: timezone,
		loc:      loc,
	}, nil
}

func (g *GoogleClient) QueryBusy(ctx context.Context, calendarIDs []string, window interval.TimeInterval) (interval.BusySet, error) {
	items := make([]*gcal.FreeBusyRequestItem, 0, len(calendarIDs))
	for _, id := range calendarIDs {
		items = append(items, &gcal.FreeBusyRequestItem{Id: id})
	}

	resp, err := g.svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin:  window.Start.Format(time.RFC3339),
		TimeMax:  window.End.Format(time.RFC3339),
		TimeZone: g.timezone,
		Items:    items,
	}).Context(ctx).Do()
	if err != nil {
		return nil, errors.MapCalendarError(err)
	}

	var busy interval.BusySet
	for _, id := range calendarIDs {
		cal, ok := resp.Calendars[id]
		if !ok {
			continue
		}
		for _, period := range cal.Busy {
			start, err := time.Parse(time.RFC3339, period.Start)
			if err != nil {
				return nil, errors.Wrap(err, "parse busy start")
			}
			end, err := time.Parse(time.RFC3339, period.End)
			if err != nil {
				return nil, errors.Wrap(err, "parse busy end")
			}
			busy = append(busy, interval.TimeInterval{
				Start: start.In(g.loc),
				End:   end.In(g.loc),
			})
		}
	}
	return busy, nil
}

func (g *GoogleClient) CreateEvent(ctx context.Context, calendarID string, in EventInput) (EventRef, error) {
	event := &gcal.Event{
		Summary:     in.Title,
		Description: in.Description,
		Start: &gcal.EventDateTime{
			DateTime: in.Start.Format(time.RFC3339),
			TimeZone: g.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: in.End.Format(time.RFC3339),
			TimeZone: g.timezone,
		},
	}

	call := g.svc.Events.Insert(calendarID, event).Context(ctx)
	if in.WithConference {
		event.ConferenceData = &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{RequestId: newRequestID()},
		}
		call = call.ConferenceDataVersion(1)
	}

	created, err := call.Do()
	if err != nil {
		return EventRef{}, errors.MapCalendarError(err)
	}

	return EventRef{ID: created.Id, JoinLink: created.HangoutLink}, nil
}

func (g *GoogleClient) ListEvents(ctx context.Context, calendarID string, window interval.TimeInterval) ([]Event, error) {
	resp, err := g.svc.Events.List(calendarID).
		TimeMin(window.Start.Format(time.RFC3339)).
		TimeMax(window.End.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, errors.MapCalendarError(err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		start, end, ok := eventTimes(item, g.loc)
		if !ok {
			continue
		}
		events = append(events, Event{
			ID:          item.Id,
			Start:       start,
			End:         end,
			Summary:     item.Summary,
			Description: item.Description,
		})
	}
	return events, nil
}

func eventTimes(item *gcal.Event, loc *time.Location) (time.Time, time.Time, bool) {
	if item == nil || item.Start == nil || item.End == nil {
		return time.Time{}, time.Time{}, false
	}

	parse := func(dt *gcal.EventDateTime) (time.Time, bool) {
		if dt.DateTime != "" {
			t, err := time.Parse(time.RFC3339, dt.DateTime)
			if err != nil {
				return time.Time{}, false
			}
			return t.In(loc), true
		}
		if dt.Date != "" {
			t, err := time.ParseInLocation("2006-01-02", dt.Date, loc)
			if err != nil {
				return time.Time{}, false
			}
			return t, true
		}
		return time.Time{}, false
	}

	start, ok := parse(item.Start)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok := parse(item.End)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
