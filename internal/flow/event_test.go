package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bogdankol/telrgam-bot-calendar/internal/errors"
)

func TestCallbackRoundTrip(t *testing.T) {
	raw := EncodeCallback(CallbackDay, "01K4ABCDEF", "2026-09-02")

	cb, err := ParseCallback(raw)
	require.NoError(t, err)
	assert.Equal(t, CallbackDay, cb.Kind)
	assert.Equal(t, "01K4ABCDEF", cb.SessionID)
	assert.Equal(t, "2026-09-02", cb.Data)
}

func TestParseCallbackDataKeepsUnderscores(t *testing.T) {
	cb, err := ParseCallback("slot_01K4ABCDEF_part_one_two")
	require.NoError(t, err)
	assert.Equal(t, "part_one_two", cb.Data)
}

func TestParseCallbackMalformed(t *testing.T) {
	for _, raw := range []string{"", "day", "day_01K4", "__", "day__data", "_id_data"} {
		_, err := ParseCallback(raw)
		require.Error(t, err, "payload %q", raw)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	}
}
