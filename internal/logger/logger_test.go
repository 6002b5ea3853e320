package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_AutoFormatIsJSONForNonTerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New(&buf, Config{Level: "info", Format: FormatAuto})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Info().Int("page", 3).Msg("clip built")
	l.Debug().Msg("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line at info level, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected json line: %v", err)
	}
	if rec["message"] != "clip built" || rec["page"] != float64(3) {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNew_Console(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := New(&buf, Config{Level: "DEBUG", Format: "console"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Debug().Msg("state transition")
	if !strings.Contains(buf.String(), "state transition") || strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected console output, got %q", buf.String())
	}
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := New(&bytes.Buffer{}, Config{Level: "loud"}); err == nil {
		t.Fatalf("expected invalid level error")
	}
	if _, err := New(&bytes.Buffer{}, Config{Format: "xml"}); err == nil {
		t.Fatalf("expected invalid format error")
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	if IsTerminal(&bytes.Buffer{}) {
		t.Fatalf("a buffer is not a terminal")
	}
	f, err := os.Create(filepath.Join(t.TempDir(), "log.txt"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Fatalf("a regular file is not a terminal")
	}
}
