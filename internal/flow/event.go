package flow

import (
	"strings"

	"github.com/bogdankol/telrgam-bot-calendar/internal/errors"
)

type EventKind string

const (
	KindCommand  EventKind = "command"
	KindText     EventKind = "text"
	KindCallback EventKind = "callback"
	KindContact  EventKind = "contact"
)

// Event is the normalized inbound payload from the messaging transport.
// The state machine never sees transport-specific update types.
type Event struct {
	ClientID string
	Kind     EventKind

	Command      string // without the leading slash
	Text         string
	Callback     string // raw kind_sessionID_data payload
	ContactPhone string
}

// Callback kinds embedded in interactive choices.
const (
	CallbackDay    = "day"
	CallbackSlot   = "slot"
	CallbackFormat = "fmt"
)

// Callback is a parsed interactive-choice payload. Every choice carries
// the session id it was rendered for, so superseded buttons are caught.
type Callback struct {
	Kind      string
	SessionID string
	Data      string
}

// EncodeCallback packs a choice payload as kind_sessionID_data.
func EncodeCallback(kind, sessionID, data string) string {
	return kind + "_" + sessionID + "_" + data
}

// ParseCallback splits a kind_sessionID_data payload. The data segment
// may itself contain underscores.
func ParseCallback(raw string) (Callback, error) {
	parts := strings.SplitN(raw, "_", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Callback{}, errors.InvalidInput("malformed callback payload")
	}
	return Callback{Kind: parts[0], SessionID: parts[1], Data: parts[2]}, nil
}
