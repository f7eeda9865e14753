package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestMapCalendarError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil passes through", nil, nil},
		{"rate limited api", &googleapi.Error{Code: 429}, ErrTransient},
		{"server error", &googleapi.Error{Code: 503}, ErrTransient},
		{"conflict", &googleapi.Error{Code: 409}, ErrSlotConflict},
		{"forbidden", &googleapi.Error{Code: 403}, ErrCalendarQuery},
		{"not found", &googleapi.Error{Code: 404}, ErrCalendarQuery},
		{"quota string", fmt.Errorf("user quota exceeded"), ErrTransient},
		{"timeout string", fmt.Errorf("dial timeout"), ErrTransient},
		{"connection string", fmt.Errorf("connection refused"), ErrTransient},
		{"unknown", fmt.Errorf("something else"), ErrCalendarQuery},
		{"deadline", context.DeadlineExceeded, ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapCalendarError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			require.Error(t, got)
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestMapCalendarErrorKeepsCancellation(t *testing.T) {
	got := MapCalendarError(context.Canceled)
	assert.ErrorIs(t, got, context.Canceled)
	assert.False(t, IsRetryable(got))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Transient("busy")))
	assert.False(t, IsRetryable(SlotConflict("taken")))
	assert.False(t, IsRetryable(nil))
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(Validation("bad phone")))
	assert.True(t, IsRecoverable(SlotConflict("taken")))
	assert.False(t, IsRecoverable(Internal("boom")))
}

func TestWrapKeepsCategory(t *testing.T) {
	err := Wrap(SlotConflict("taken"), "commit")
	assert.True(t, IsCategory(err, ErrSlotConflict))
	assert.Contains(t, err.Error(), "commit")
	assert.NoError(t, Wrap(nil, "commit"))
}
