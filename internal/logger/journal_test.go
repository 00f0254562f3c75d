package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestJournal_WritesTimestampedLines(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(Config{Dir: dir, File: "test_log.txt"})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}

	j.Log("TXD: 0100")
	j.Logf("RXD: %s", "41 00 BE 3E A1")
	j.Close()

	data, err := os.ReadFile(filepath.Join(dir, "test_log.txt"))
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), lines)
	}

	for _, line := range lines {
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			t.Fatalf("malformed line: %q", line)
		}
		if _, err := time.Parse(time.RFC3339, fields[0]); err != nil {
			t.Fatalf("bad timestamp in %q: %v", line, err)
		}
	}
	if !strings.HasSuffix(lines[0], "TXD: 0100") {
		t.Fatalf("first line = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "RXD: 41 00 BE 3E A1") {
		t.Fatalf("second line = %q", lines[1])
	}
}

func TestJournal_AppendsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Dir: dir, File: "test_log.txt"}

	j, err := Open(cfg)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	j.Log("first")
	j.Close()

	j, err = Open(cfg)
	if err != nil {
		t.Fatalf("reopen journal: %v", err)
	}
	j.Log("second")
	j.Close()

	data, err := os.ReadFile(filepath.Join(dir, "test_log.txt"))
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected both runs' lines, got %d", len(lines))
	}
}

func TestJournal_NilSafe(t *testing.T) {
	var j *Journal
	j.Log("discarded")
	j.Logf("discarded %d", 1)
	j.Close()
}
