package session

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bogdankol/telrgam-bot-calendar/internal/interval"
)

// State tags the conversation position of a booking session.
type State string

const (
	StateAwaitingDay    State = "awaiting_day"
	StateAwaitingSlot   State = "awaiting_slot"
	StateAwaitingName   State = "awaiting_name"
	StateAwaitingReason State = "awaiting_reason"
	StateAwaitingFormat State = "awaiting_format"
	StateAwaitingPhone  State = "awaiting_phone"
	StateAwaitingEmail  State = "awaiting_email"
	StateCommitting     State = "committing"
	StateCompleted      State = "completed"
)

type MeetingFormat string

const (
	FormatInPerson MeetingFormat = "offline"
	FormatRemote   MeetingFormat = "online"
)

// Session tracks one client's progress through the booking conversation.
// It is owned exclusively by the conversation state machine; every
// mutation happens under that client's lock.
//
// ID is a single-use token minted when the flow (re)starts. It is
// embedded in every outbound interactive choice so stale buttons from a
// superseded flow can be detected and rejected.
type Session struct {
	ClientID string
	ID       string
	State    State

	Day    time.Time
	Slot   interval.Slot
	Name   string
	Reason string
	Format MeetingFormat
	Phone  string
	Email  string

	// Completed sessions are inert: they are retained only to reject
	// replay of their stale buttons until eviction or replacement.
	Completed bool

	CreatedAt time.Time

	// Last-activity time as unix nanos. Written by event handlers under
	// the client lock, read by the idle sweeper without it, so it must
	// stay atomic.
	updatedAt atomic.Int64
}

// New mints a fresh session for a client, replacing any prior flow.
func New(clientID string) *Session {
	now := time.Now()
	s := &Session{
		ClientID:  clientID,
		ID:        ulid.Make().String(),
		State:     StateAwaitingDay,
		CreatedAt: now,
	}
	s.updatedAt.Store(now.UnixNano())
	return s
}

// Touch records activity so the idle sweeper keeps the session alive.
func (s *Session) Touch() {
	s.updatedAt.Store(time.Now().UnixNano())
}

// IdleFor reports how long the session has gone without activity.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.updatedAt.Load()))
}

// Message renders the client-facing description of the meeting format.
// The same line goes into the calendar event body, so the upcoming
// listing can read it back.
func (f MeetingFormat) Message(officeAddress string) string {
	if f == FormatInPerson {
		return "Зустріч в офісі, за адресою: " + officeAddress
	}
	return "Онлайн зустріч. Посилання буде надіслано пізніше на вказаний вами email"
}

// ClientTag is the machine-readable correlation line embedded in every
// created event body. Upcoming-meeting lookups filter on it, so no
// separate booking database is needed.
func ClientTag(clientID string) string {
	return "clientId: " + clientID
}

// HasClientTag reports whether an event description carries the exact
// correlation line for a client. The tag is matched as a whole line:
// numeric Telegram ids of different lengths share prefixes, so a
// substring match would surface client 55's bookings to client 5.
func HasClientTag(description, clientID string) bool {
	tag := ClientTag(clientID)
	for _, line := range strings.Split(description, "\n") {
		if strings.TrimSpace(line) == tag {
			return true
		}
	}
	return false
}
