package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceLockExcludesSecondInstance(t *testing.T) {
	dir := t.TempDir()
	cfg := InstanceLockConfig{
		Timeout:  200 * time.Millisecond,
		Retry:    10 * time.Millisecond,
		MaxRetry: 3,
	}

	first, err := NewInstanceLock(dir, cfg)
	require.NoError(t, err)
	defer first.Unlock()

	_, err = NewInstanceLock(dir, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another bookingbot instance")
}

func TestInstanceLockReacquireAfterUnlock(t *testing.T) {
	dir := t.TempDir()
	cfg := InstanceLockConfig{
		Timeout:  200 * time.Millisecond,
		Retry:    10 * time.Millisecond,
		MaxRetry: 3,
	}

	first, err := NewInstanceLock(dir, cfg)
	require.NoError(t, err)
	first.Unlock()

	second, err := NewInstanceLock(dir, cfg)
	require.NoError(t, err)
	second.Unlock()

	// Unlock is idempotent.
	second.Unlock()
}

func TestInstanceLockRetriesUntilReleased(t *testing.T) {
	dir := t.TempDir()

	first, err := NewInstanceLock(dir, InstanceLockConfig{Timeout: time.Second, Retry: 10 * time.Millisecond, MaxRetry: 3})
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		first.Unlock()
	}()

	second, err := NewInstanceLock(dir, InstanceLockConfig{
		Timeout:  time.Second,
		Retry:    20 * time.Millisecond,
		MaxRetry: 50,
	})
	require.NoError(t, err)
	second.Unlock()
}
