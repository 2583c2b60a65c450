package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// AuditLog is the persistent, append-only record of everything the
// orchestrator attempted. One newline-terminated line per chunk.
type AuditLog struct {
	mu   sync.Mutex
	f    *os.File
	path string
	now  func() time.Time
}

// OpenAuditLog opens path for appending, creating it and its directory.
func OpenAuditLog(path string) (*AuditLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &AuditLog{f: f, path: path, now: time.Now}, nil
}

// Path returns the file the log appends to.
func (a *AuditLog) Path() string {
	return a.path
}

// Append writes chunk verbatim, adding the trailing newline if missing.
func (a *AuditLog) Append(chunk string) error {
	if !strings.HasSuffix(chunk, "\n") {
		chunk += "\n"
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := a.f.WriteString(chunk)
	return err
}

// Record writes a line prefixed with an RFC3339 timestamp.
func (a *AuditLog) Record(format string, args ...interface{}) error {
	line := fmt.Sprintf(format, args...)
	return a.Append(fmt.Sprintf("[%s] %s", a.now().Format(time.RFC3339), line))
}

// Close closes the underlying file.
func (a *AuditLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.f.Close()
}
