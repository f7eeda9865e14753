package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrValidation - malformed client input (name/reason/phone/email); always recoverable, re-prompt in place
	ErrValidation = errors.New("validation failed")

	// ErrStaleSession - callback references a superseded or completed session; recoverable, client must restart
	ErrStaleSession = errors.New("stale session")

	// ErrSlotConflict - chosen slot was taken between offer and selection; recoverable, back to slot choice
	ErrSlotConflict = errors.New("slot conflict")

	// ErrCalendarQuery - busy-interval lookup failed; degrade that day to "no slots", keep scanning others
	ErrCalendarQuery = errors.New("calendar query failed")

	// ErrCommit - event write failed at the final step; terminal for that session, client must restart
	ErrCommit = errors.New("commit failed")

	// ErrNotification - admin ping failed; logged, never surfaced to the client
	ErrNotification = errors.New("notification failed")

	// ErrTransient - transient infrastructure error (rate limit, network), safe to retry later
	ErrTransient = errors.New("transient error")

	// ErrInvalidInput - malformed internal input (bad callback payload, nil event)
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal - internal error, generic fallback
	ErrInternal = errors.New("internal error")
)
