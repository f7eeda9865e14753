package record

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// InstanceLockConfig bounds how long a starting bot waits for a
// previous instance to release the data dir.
type InstanceLockConfig struct {
	Timeout  time.Duration
	Retry    time.Duration
	MaxRetry int
}

// InstanceLock guards the data dir so only one poller runs per bot
// token. Two pollers on one token would split conversations between
// processes.
type InstanceLock struct {
	fileLock   *flock.Flock
	lockPath   string
	acquiredAt time.Time
}

// NewInstanceLock acquires the lock, retrying a crashed-and-restarting
// predecessor's hold until the configured timeout.
func NewInstanceLock(dataDir string, cfg InstanceLockConfig) (*InstanceLock, error) {
	if cfg.Retry <= 0 {
		cfg.Retry = 100 * time.Millisecond
	}
	if cfg.MaxRetry <= 0 {
		cfg.MaxRetry = 1
	}

	lockPath := filepath.Join(dataDir, "bookingbot.lock")
	il := &InstanceLock{
		fileLock: flock.New(lockPath),
		lockPath: lockPath,
	}

	deadline := time.Now().Add(cfg.Timeout)
	for i := 0; i < cfg.MaxRetry; i++ {
		if cfg.Timeout > 0 && time.Now().After(deadline) {
			break
		}

		locked, err := il.fileLock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("attempt instance lock: %w", err)
		}
		if locked {
			il.acquiredAt = time.Now()
			slog.Info("Instance lock acquired", "path", lockPath)
			return il, nil
		}

		if i < cfg.MaxRetry-1 {
			time.Sleep(cfg.Retry)
		}
	}

	return nil, fmt.Errorf("another bookingbot instance holds %s (gave up after %v)", lockPath, cfg.Timeout)
}

func (il *InstanceLock) Unlock() {
	if il.fileLock == nil {
		return
	}

	held := time.Since(il.acquiredAt)
	if err := il.fileLock.Unlock(); err != nil {
		slog.Error("Instance lock release failed", "path", il.lockPath, "error", err)
	} else {
		slog.Info("Instance lock released", "path", il.lockPath, "held_ms", held.Milliseconds())
	}
	il.fileLock = nil
}
