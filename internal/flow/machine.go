// Package flow drives the conversational booking state machine. It owns
// every BookingSession mutation and is the only component that talks to
// both the availability engine and the commit coordinator.
package flow

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bogdankol/telrgam-bot-calendar/internal/availability"
	"github.com/bogdankol/telrgam-bot-calendar/internal/calendar"
	"github.com/bogdankol/telrgam-bot-calendar/internal/concurrency"
	"github.com/bogdankol/telrgam-bot-calendar/internal/errors"
	"github.com/bogdankol/telrgam-bot-calendar/internal/interval"
	"github.com/bogdankol/telrgam-bot-calendar/internal/session"
)

// Choice is one interactive button offered to the client. Data carries
// the kind_sessionID_data payload back through the transport.
type Choice struct {
	Label string
	Data  string
}

// Sender is the narrow outbound capability the machine needs from the
// messaging transport.
type Sender interface {
	Send(ctx context.Context, clientID, text string) error
	SendChoices(ctx context.Context, clientID, text string, rows [][]Choice) error
	RequestContact(ctx context.Context, clientID, text string) error
}

// Committer performs the final race-checked calendar write.
type Committer interface {
	Commit(ctx context.Context, s *session.Session) (calendar.EventRef, error)
}

type Config struct {
	PrimaryCalendarID string
	OfficeAddress     string
	UpcomingHorizon   time.Duration
	Location          *time.Location
}

// Machine consumes normalized inbound events and advances booking
// sessions. One invocation per event; events for the same client are
// serialized by the per-client lock, events for different clients run
// in parallel.
type Machine struct {
	registry  *session.Registry
	locks     *concurrency.ClientLockManager
	engine    *availability.Engine
	committer Committer
	sender    Sender
	lister    calendar.EventLister
	cfg       Config
}

func NewMachine(registry *session.Registry, engine *availability.Engine, committer Committer, sender Sender, lister calendar.EventLister, cfg Config) *Machine {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Machine{
		registry:  registry,
		locks:     concurrency.NewClientLockManager(),
		engine:    engine,
		committer: committer,
		sender:    sender,
		lister:    lister,
		cfg:       cfg,
	}
}

// HandleEvent runs one transition to completion under the client's
// lock. Failures are contained per event: validation problems turn into
// re-prompts, infrastructure problems into apology replies, and nothing
// escapes to crash the transport loop.
func (m *Machine) HandleEvent(ctx context.Context, evt Event) error {
	if evt.ClientID == "" {
		return errors.InvalidInput("event without client id")
	}

	m.locks.Lock(evt.ClientID)
	defer m.locks.Unlock(evt.ClientID)

	switch evt.Kind {
	case KindCommand:
		return m.handleCommand(ctx, evt)
	case KindCallback:
		return m.handleCallback(ctx, evt)
	case KindContact:
		return m.handleContact(ctx, evt)
	case KindText:
		return m.handleText(ctx, evt)
	default:
		return errors.InvalidInput("unknown event kind: " + string(evt.Kind))
	}
}

func (m *Machine) handleCommand(ctx context.Context, evt Event) error {
	switch evt.Command {
	case "start":
		return m.sender.Send(ctx, evt.ClientID, msgGreeting)
	case "book":
		return m.startBooking(ctx, evt.ClientID)
	case "get_meetings":
		return m.sendUpcoming(ctx, evt.ClientID)
	default:
		return m.sender.Send(ctx, evt.ClientID, msgDidntUnderstand)
	}
}

// startBooking replaces any prior session for the client with a fresh
// one, so stale buttons from the old flow die immediately.
func (m *Machine) startBooking(ctx context.Context, clientID string) error {
	sess := session.New(clientID)
	m.registry.Put(sess)

	days, err := m.engine.AvailableDays(ctx)
	if err != nil {
		slog.Error("Day scan failed", "client_id", clientID, "error", err)
		return m.sender.Send(ctx, clientID, msgNoDays)
	}
	if len(days) == 0 {
		return m.sender.Send(ctx, clientID, msgNoDays)
	}

	rows := make([][]Choice, 0, len(days))
	for _, day := range days {
		rows = append(rows, []Choice{{
			Label: day.Format("02.01.2006"),
			Data:  EncodeCallback(CallbackDay, sess.ID, day.Format("2006-01-02")),
		}})
	}
	return m.sender.SendChoices(ctx, clientID, msgChooseDay, rows)
}

func (m *Machine) handleCallback(ctx context.Context, evt Event) error {
	cb, err := ParseCallback(evt.Callback)
	if err != nil {
		slog.Warn("Malformed callback", "client_id", evt.ClientID, "payload", evt.Callback)
		return m.sender.Send(ctx, evt.ClientID, msgStale)
	}

	sess := m.registry.Get(evt.ClientID)
	if sess == nil || sess.ID != cb.SessionID || sess.Completed {
		return m.sender.Send(ctx, evt.ClientID, msgStale)
	}
	sess.Touch()

	switch cb.Kind {
	case CallbackDay:
		return m.chooseDay(ctx, sess, cb.Data)
	case CallbackSlot:
		return m.chooseSlot(ctx, sess, cb.Data)
	case CallbackFormat:
		return m.chooseFormat(ctx, sess, cb.Data)
	default:
		return m.sender.Send(ctx, evt.ClientID, msgStale)
	}
}

func (m *Machine) chooseDay(ctx context.Context, sess *session.Session, data string) error {
	if sess.State != session.StateAwaitingDay {
		return m.sender.Send(ctx, sess.ClientID, msgStale)
	}

	day, err := time.ParseInLocation("2006-01-02", data, m.cfg.Location)
	if err != nil {
		return m.sender.Send(ctx, sess.ClientID, msgStale)
	}

	slots, err := m.engine.FreeSlotsForDay(ctx, day)
	if err != nil {
		// Fail closed: an unreadable day offers nothing.
		slog.Warn("Slot query failed on day choice", "client_id", sess.ClientID, "error", err)
		slots = nil
	}
	if len(slots) == 0 {
		return m.sender.Send(ctx, sess.ClientID, msgNoSlotsThatDay)
	}

	sess.Day = day
	sess.State = session.StateAwaitingSlot
	return m.sendSlotChoices(ctx, sess, slots)
}

func (m *Machine) sendSlotChoices(ctx context.Context, sess *session.Session, slots []interval.Slot) error {
	rows := make([][]Choice, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, []Choice{{
			Label: slot.Label(),
			Data:  EncodeCallback(CallbackSlot, sess.ID, strconv.FormatInt(slot.Start.Unix(), 10)),
		}})
	}
	return m.sender.SendChoices(ctx, sess.ClientID, msgChooseSlot, rows)
}

// chooseSlot re-validates the slot against a fresh busy query before
// accepting it: another client may have committed it between offer and
// selection.
func (m *Machine) chooseSlot(ctx context.Context, sess *session.Session, data string) error {
	if sess.State != session.StateAwaitingSlot {
		return m.sender.Send(ctx, sess.ClientID, msgStale)
	}

	unix, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return m.sender.Send(ctx, sess.ClientID, msgStale)
	}
	start := time.Unix(unix, 0).In(m.cfg.Location)

	fresh, err := m.engine.FreeSlotsForDay(ctx, interval.Day(start, m.cfg.Location))
	if err != nil {
		slog.Warn("Slot re-validation query failed", "client_id", sess.ClientID, "error", err)
		fresh = nil
	}

	var chosen *interval.Slot
	for i := range fresh {
		if fresh[i].Start.Equal(start) {
			chosen = &fresh[i]
			break
		}
	}
	if chosen == nil {
		// Taken in the meantime; stay in slot choice with a fresh list.
		if err := m.sender.Send(ctx, sess.ClientID, msgSlotTaken); err != nil {
			return err
		}
		if len(fresh) == 0 {
			return m.sender.Send(ctx, sess.ClientID, msgNoSlotsThatDay)
		}
		return m.sendSlotChoices(ctx, sess, fresh)
	}

	sess.Slot = *chosen
	sess.State = session.StateAwaitingName
	return m.sender.Send(ctx, sess.ClientID, msgAskName)
}

func (m *Machine) chooseFormat(ctx context.Context, sess *session.Session, data string) error {
	if sess.State != session.StateAwaitingFormat {
		return m.sender.Send(ctx, sess.ClientID, msgStale)
	}

	switch session.MeetingFormat(data) {
	case session.FormatInPerson:
		sess.Format = session.FormatInPerson
	case session.FormatRemote:
		sess.Format = session.FormatRemote
	default:
		return m.sender.Send(ctx, sess.ClientID, msgStale)
	}

	sess.State = session.StateAwaitingPhone
	return m.sender.RequestContact(ctx, sess.ClientID, msgAskPhone)
}

func (m *Machine) handleContact(ctx context.Context, evt Event) error {
	sess := m.registry.Get(evt.ClientID)
	if sess == nil || sess.Completed || sess.State != session.StateAwaitingPhone {
		return m.sender.Send(ctx, evt.ClientID, msgDidntUnderstand)
	}
	sess.Touch()

	if strings.TrimSpace(evt.ContactPhone) == "" {
		// Shared contact without a number: fall back to manual entry.
		return m.sender.Send(ctx, evt.ClientID, msgContactNoPhone)
	}

	sess.Phone = strings.TrimSpace(evt.ContactPhone)
	sess.State = session.StateAwaitingEmail
	return m.sender.Send(ctx, evt.ClientID, msgAskEmail)
}

func (m *Machine) handleText(ctx context.Context, evt Event) error {
	sess := m.registry.Get(evt.ClientID)
	if sess == nil || sess.Completed {
		return m.sender.Send(ctx, evt.ClientID, msgDidntUnderstand)
	}
	sess.Touch()

	text := strings.TrimSpace(evt.Text)

	switch sess.State {
	case session.StateAwaitingName:
		if !ValidName(text) {
			return m.sender.Send(ctx, evt.ClientID, msgNameTooShort)
		}
		sess.Name = text
		sess.State = session.StateAwaitingReason
		return m.sender.Send(ctx, evt.ClientID, msgAskReason)

	case session.StateAwaitingReason:
		if !ValidReason(text) {
			return m.sender.Send(ctx, evt.ClientID, msgReasonLength)
		}
		sess.Reason = text
		sess.State = session.StateAwaitingFormat
		return m.sender.SendChoices(ctx, evt.ClientID, msgChooseFormat, [][]Choice{{
			{Label: labelInPerson, Data: EncodeCallback(CallbackFormat, sess.ID, string(session.FormatInPerson))},
			{Label: labelRemote, Data: EncodeCallback(CallbackFormat, sess.ID, string(session.FormatRemote))},
		}})

	case session.StateAwaitingPhone:
		if !ValidPhone(text) {
			return m.sender.Send(ctx, evt.ClientID, msgPhoneFormat)
		}
		sess.Phone = text
		sess.State = session.StateAwaitingEmail
		return m.sender.Send(ctx, evt.ClientID, msgAskEmail)

	case session.StateAwaitingEmail:
		if !ValidEmail(text) {
			return m.sender.Send(ctx, evt.ClientID, msgEmailInvalid)
		}
		sess.Email = text
		return m.commit(ctx, sess)

	default:
		// Callback-only states accept no free text.
		return m.sender.Send(ctx, evt.ClientID, msgDidntUnderstand)
	}
}

// commit hands the session to the commit coordinator. A slot conflict
// discovered at the final re-validation is recoverable and returns the
// client to slot choice; a write failure ends the session for good.
func (m *Machine) commit(ctx context.Context, sess *session.Session) error {
	sess.State = session.StateCommitting

	ref, err := m.committer.Commit(ctx, sess)
	if err != nil {
		if errors.IsCategory(err, errors.ErrSlotConflict) {
			sess.State = session.StateAwaitingSlot
			if sendErr := m.sender.Send(ctx, sess.ClientID, msgSlotTaken); sendErr != nil {
				return sendErr
			}
			fresh, slotsErr := m.engine.FreeSlotsForDay(ctx, sess.Day)
			if slotsErr != nil || len(fresh) == 0 {
				return m.sender.Send(ctx, sess.ClientID, msgNoSlotsThatDay)
			}
			return m.sendSlotChoices(ctx, sess, fresh)
		}

		slog.Error("Commit failed", "client_id", sess.ClientID, "error", err)
		sess.Completed = true
		sess.State = session.StateCompleted
		return m.sender.Send(ctx, sess.ClientID, msgCommitFailed)
	}

	sess.Completed = true
	sess.State = session.StateCompleted

	summary := msgBooked + "\n📅 " + sess.Slot.Start.Format("02.01.2006 15:04") +
		"\n" + sess.Format.Message(m.cfg.OfficeAddress)
	if ref.JoinLink != "" {
		summary += "\nПосилання: " + ref.JoinLink
	}
	return m.sender.Send(ctx, sess.ClientID, summary)
}

var formatLine = regexp.MustCompile(`Формат зустрічі: (.*)`)

// sendUpcoming lists the client's bookings inside the configured
// horizon by filtering calendar events on the correlation tag.
func (m *Machine) sendUpcoming(ctx context.Context, clientID string) error {
	now := time.Now().In(m.cfg.Location)
	events, err := m.lister.ListEvents(ctx, m.cfg.PrimaryCalendarID, interval.TimeInterval{
		Start: now,
		End:   now.Add(m.cfg.UpcomingHorizon),
	})
	if err != nil {
		slog.Error("Upcoming lookup failed", "client_id", clientID, "error", err)
		return m.sender.Send(ctx, clientID, msgUpcomingFailed)
	}

	var lines []string
	for _, ev := range events {
		if !session.HasClientTag(ev.Description, clientID) {
			continue
		}
		line := "📅 " + ev.Start.Format("02.01.2006 15:04")
		if match := formatLine.FindStringSubmatch(ev.Description); match != nil {
			line += "\n" + match[1]
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return m.sender.Send(ctx, clientID, msgNoUpcoming)
	}
	return m.sender.Send(ctx, clientID, msgUpcomingHeader+"\n\n"+strings.Join(lines, "\n\n"))
}
