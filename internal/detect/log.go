package detect

import (
	"fmt"
	"os"
	"time"
)

// Log appends one unix timestamp line per fired trigger. Each record is
// synced to disk before Record returns.
type Log struct {
	f *os.File
}

// OpenLog opens path for appending, creating it if needed.
func OpenLog(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open detection log: %w", err)
	}
	return &Log{f: f}, nil
}

// Record writes the trigger time in whole seconds.
func (l *Log) Record(at time.Time) error {
	if _, err := fmt.Fprintf(l.f, "%d\n", at.Unix()); err != nil {
		return fmt.Errorf("failed to write detection log: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("failed to sync detection log: %w", err)
	}
	return nil
}

// Path is the file the log writes to.
func (l *Log) Path() string {
	return l.f.Name()
}

func (l *Log) Close() error {
	return l.f.Close()
}
