package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

// MapCalendarError maps failures from the Google Calendar API surface
// into the booking error taxonomy. Context errors propagate as-is.
func MapCalendarError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("calendar request timeout: %w", ErrTransient)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429 || apiErr.Code >= 500:
			return fmt.Errorf("calendar api %d: %w", apiErr.Code, ErrTransient)
		case apiErr.Code == 409:
			return fmt.Errorf("calendar api conflict: %w", ErrSlotConflict)
		default:
			return fmt.Errorf("calendar api %d: %w", apiErr.Code, ErrCalendarQuery)
		}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "rate limit"), strings.Contains(errStr, "quota"), strings.Contains(errStr, "too many requests"):
		return fmt.Errorf("rate limited: %w", ErrTransient)
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return fmt.Errorf("calendar request timeout: %w", ErrTransient)
	case strings.Contains(errStr, "network"), strings.Contains(errStr, "connection"), strings.Contains(errStr, "unreachable"):
		return fmt.Errorf("network error: %w", ErrTransient)
	default:
		return fmt.Errorf("calendar error: %w", ErrCalendarQuery)
	}
}

// IsRetryable checks if an error is transient, indicating a later retry may succeed
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrTransient)
}

// IsRecoverable reports whether the client can fix the failure within the
// current conversation instead of restarting.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrSlotConflict)
}

// IsCategory checks if error belongs to specific category
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Validation wraps a message as a validation error
func Validation(message string) error {
	return fmt.Errorf("%s: %w", message, ErrValidation)
}

// StaleSession wraps a message as a stale session error
func StaleSession(message string) error {
	return fmt.Errorf("%s: %w", message, ErrStaleSession)
}

// SlotConflict wraps a message as a slot conflict
func SlotConflict(message string) error {
	return fmt.Errorf("%s: %w", message, ErrSlotConflict)
}

// InvalidInput wraps a message as invalid input
func InvalidInput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidInput)
}

// Transient wraps a message as transient
func Transient(message string) error {
	return fmt.Errorf("%s: %w", message, ErrTransient)
}

// Internal wraps a message as internal
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}
