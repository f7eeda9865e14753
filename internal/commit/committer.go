// Package commit performs the final, race-checked write of a chosen
// slot into the calendar. No distributed transaction exists between
// "check free" and "write event"; the re-validation here narrows the
// race window left open by the availability engine.
package commit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bogdankol/telrgam-bot-calendar/internal/availability"
	"github.com/bogdankol/telrgam-bot-calendar/internal/calendar"
	"github.com/bogdankol/telrgam-bot-calendar/internal/concurrency"
	"github.com/bogdankol/telrgam-bot-calendar/internal/errors"
	"github.com/bogdankol/telrgam-bot-calendar/internal/record"
	"github.com/bogdankol/telrgam-bot-calendar/internal/session"
)

// Notifier pings the admin after a successful commit. Failures are
// logged and never affect the booking outcome.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Recorder appends a completed booking to the local audit log.
type Recorder interface {
	Record(b record.Booking) error
}

type Config struct {
	PrimaryCalendarID string
	OfficeAddress     string
}

type Committer struct {
	engine   *availability.Engine
	writer   calendar.EventWriter
	notifier Notifier
	recorder Recorder
	cfg      Config
}

func NewCommitter(engine *availability.Engine, writer calendar.EventWriter, notifier Notifier, recorder Recorder, cfg Config) *Committer {
	return &Committer{
		engine:   engine,
		writer:   writer,
		notifier: notifier,
		recorder: recorder,
		cfg:      cfg,
	}
}

// Commit re-confirms the chosen slot immediately before the event
// write, creates the calendar event with every collected field embedded
// for audit purposes, then fans out the admin notification. A conflict
// found by the re-check is recoverable; a failed write is not retried.
func (c *Committer) Commit(ctx context.Context, s *session.Session) (calendar.EventRef, error) {
	free, err := c.engine.HasSlot(ctx, s.Slot)
	if err != nil {
		// Cannot prove the slot is still free, so refuse to write it.
		return calendar.EventRef{}, fmt.Errorf("slot re-check failed: %v: %w", err, errors.ErrSlotConflict)
	}
	if !free {
		return calendar.EventRef{}, errors.SlotConflict("slot taken before commit")
	}

	ref, err := c.writer.CreateEvent(ctx, c.cfg.PrimaryCalendarID, calendar.EventInput{
		Start:          s.Slot.Start,
		End:            s.Slot.End,
		Title:          "Зустріч: " + s.Name,
		Description:    c.description(s),
		WithConference: s.Format == session.FormatRemote,
	})
	if err != nil {
		return calendar.EventRef{}, fmt.Errorf("create event: %v: %w", err, errors.ErrCommit)
	}

	slog.Info("Booking committed",
		"client_id", s.ClientID,
		"event_id", ref.ID,
		"start", s.Slot.Start)

	c.notifyAdmin(s, ref)
	c.recordBooking(s, ref)

	return ref, nil
}

// description embeds the collected client fields plus the correlation
// tag into the event body.
func (c *Committer) description(s *session.Session) string {
	return "Ім'я: " + s.Name + "\n" +
		"Телефон: " + s.Phone + "\n" +
		"Email: " + s.Email + "\n" +
		"Причина зустрічі: " + s.Reason + "\n" +
		"Формат зустрічі: " + s.Format.Message(c.cfg.OfficeAddress) + "\n" +
		session.ClientTag(s.ClientID)
}

// notifyAdmin is fire-and-forget: the booking already stands, so the
// ping must not block or fail it.
func (c *Committer) notifyAdmin(s *session.Session, ref calendar.EventRef) {
	if c.notifier == nil {
		return
	}

	text := "Нове бронювання!\n" +
		"📅 " + s.Slot.Start.Format("02.01.2006 15:04") + "\n" +
		c.description(s)

	concurrency.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.notifier.Notify(ctx, text); err != nil {
			slog.Warn("Admin notification failed",
				"client_id", s.ClientID,
				"event_id", ref.ID,
				"error", errors.Wrap(err, errors.ErrNotification.Error()))
		}
	}, nil)
}

func (c *Committer) recordBooking(s *session.Session, ref calendar.EventRef) {
	if c.recorder == nil {
		return
	}
	err := c.recorder.Record(record.Booking{
		EventID:   ref.ID,
		ClientID:  s.ClientID,
		Start:     s.Slot.Start,
		End:       s.Slot.End,
		Name:      s.Name,
		Phone:     s.Phone,
		Email:     s.Email,
		Reason:    s.Reason,
		Format:    string(s.Format),
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.Warn("Booking record write failed", "client_id", s.ClientID, "error", err)
	}
}
