package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Journal is the append-only line log of every transmitted query and every
// classified or unknown reply. The journal owns timestamp formatting;
// callers hand it plain text.
type Journal struct {
	mu    sync.Mutex
	file  *os.File
	path  string
	lines int
}

// Config holds journal configuration.
type Config struct {
	Dir  string `yaml:"dir" json:"dir"`
	File string `yaml:"file" json:"file"`
}

// Rotate before a long-running bridge fills the disk.
const maxLinesPerFile = 500_000

// Open creates or appends to the journal file, creating the directory if
// needed. The file stays open for the process lifetime.
func Open(cfg Config) (*Journal, error) {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.File == "" {
		cfg.File = "obd_bridge_log.txt"
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("journal: mkdir %s: %w", cfg.Dir, err)
	}
	path := filepath.Join(cfg.Dir, cfg.File)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	log.Printf("[journal] logging to %s", path)
	return &Journal{file: f, path: path}, nil
}

// Log appends one timestamped line. A nil journal discards the entry,
// which keeps dispatch paths testable without a log file.
func (j *Journal) Log(line string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return
	}
	if _, err := fmt.Fprintf(j.file, "%s %s\n", time.Now().Format(time.RFC3339), line); err != nil {
		log.Printf("[journal] write failed: %v", err)
		return
	}
	j.lines++
	if j.lines >= maxLinesPerFile {
		j.rotate()
	}
}

// Logf formats and appends one timestamped line.
func (j *Journal) Logf(format string, args ...interface{}) {
	if j == nil {
		return
	}
	j.Log(fmt.Sprintf(format, args...))
}

// rotate renames the full journal aside and starts a fresh file.
// Callers hold the mutex.
func (j *Journal) rotate() {
	j.file.Close()
	rotated := fmt.Sprintf("%s.%s", j.path, time.Now().Format("2006-01-02_150405"))
	if err := os.Rename(j.path, rotated); err != nil {
		log.Printf("[journal] rotate failed: %v", err)
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Printf("[journal] reopen failed: %v", err)
		j.file = nil
		return
	}
	log.Printf("[journal] rotated to %s", rotated)
	j.file = f
	j.lines = 0
}

// Close closes the journal file.
func (j *Journal) Close() {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file != nil {
		j.file.Close()
		j.file = nil
	}
}
