package chatlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/bowerhall/carydes/internal/sanitize"
)

const timeLayout = "2006-01-02 15:04:05"

// Logger appends conversation transcripts to per-user, per-day text files
// under dir. Files are append-only as far as this process is concerned;
// rotation and backup happen elsewhere. Paths are derived from the numeric
// user ID and the calendar day only, never from message content.
type Logger struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

func New(dir string) *Logger {
	return &Logger{dir: dir, now: time.Now}
}

// Record appends one sanitized transcript line for the user. The caller
// treats a failure as a warning: a lost transcript line never blocks the
// reply.
func (l *Logger) Record(userID int64, role, text string) error {
	return l.append(userID, role, sanitize.ForLog(text))
}

// RecordBoundary appends a marker line separating conversation sessions.
// Only the /new flow writes these.
func (l *Logger) RecordBoundary(userID int64, label string) error {
	return l.append(userID, "system", "--- "+sanitize.ForLog(label)+" ---")
}

func (l *Logger) append(userID int64, role, line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	userDir := filepath.Join(l.dir, strconv.FormatInt(userID, 10))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return fmt.Errorf("create chatlog dir: %w", err)
	}

	path := filepath.Join(userDir, now.Format("2006-01-02")+".txt")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open chatlog: %w", err)
	}
	defer f.Close()

	entry := fmt.Sprintf("[%s] [%s] %s\n", now.Format(timeLayout), role, line)
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("write chatlog: %w", err)
	}

	return nil
}
