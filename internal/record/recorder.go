// Package record keeps a local audit log of completed bookings. The
// calendar stays the source of truth; this log only backs support
// lookups when the calendar API is unreachable.
package record

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"github.com/bogdankol/telrgam-bot-calendar/internal/errors"
)

type Booking struct {
	EventID   string    `json:"event_id"`
	ClientID  string    `json:"client_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Reason    string    `json:"reason"`
	Format    string    `json:"format"`
	CreatedAt time.Time `json:"created_at"`
}

// Log is a JSON file of completed bookings, rewritten atomically on
// every append so a crash never leaves a torn file behind.
type Log struct {
	path string
	mu   sync.Mutex
}

func NewLog(dataDir string) (*Log, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}
	return &Log{path: filepath.Join(dataDir, "bookings.json")}, nil
}

func (l *Log) Record(b Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	bookings, err := l.load()
	if err != nil {
		return err
	}
	bookings = append(bookings, b)

	buf, err := json.MarshalIndent(bookings, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal bookings")
	}
	if err := atomic.WriteFile(l.path, bytes.NewReader(buf)); err != nil {
		return errors.Wrap(err, "write bookings file")
	}
	return nil
}

func (l *Log) All() ([]Booking, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *Log) load() ([]Booking, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read bookings file")
	}

	var bookings []Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		return nil, errors.Wrap(err, "decode bookings file")
	}
	return bookings, nil
}
