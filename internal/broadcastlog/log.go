// Package broadcastlog appends broadcast reports to a durable
// append-only log. The log is never read back by the service.
package broadcastlog

import (
	"fmt"
	"os"
	"sync"
)

// Appender is the log interface consumed by the lifecycle engine
type Appender interface {
	Append(report string) error
}

// FileLog appends reports to a local file
type FileLog struct {
	path string
	mu   sync.Mutex
}

// NewFileLog creates an append-only file log at the given path.
// The file is created on first append.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// Append writes one report to the log
func (l *FileLog) Append(report string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(report); err != nil {
		return fmt.Errorf("append report: %w", err)
	}
	return nil
}
