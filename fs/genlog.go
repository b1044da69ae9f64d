package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

const genLogTimeFormat = "2006-01-02 15:04:05"

// GenerationLog is an append-only record of every artifact produced by a build.
// A nil *GenerationLog discards everything.
type GenerationLog struct {
	fs   afero.Fs
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewGenerationLog returns nil when path is empty, which disables logging.
func NewGenerationLog(fs afero.Fs, path string) *GenerationLog {
	if path == "" {
		return nil
	}
	return &GenerationLog{fs: fs, path: path, now: time.Now}
}

func (l *GenerationLog) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes one timestamped record for the named artifact.
func (l *GenerationLog) Append(name, content string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := l.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating log directory %s: %w", dir, err)
		}
	}

	f, err := l.fs.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("error opening generation log %s: %w", l.path, err)
	}
	defer f.Close()

	record := fmt.Sprintf("=== Generating %s at %s ===\n%s\n\n", name, l.now().Format(genLogTimeFormat), content)
	if _, err := f.WriteString(record); err != nil {
		return fmt.Errorf("error writing generation log %s: %w", l.path, err)
	}
	return nil
}
