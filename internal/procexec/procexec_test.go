package procexec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRequireArtifact(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	full := filepath.Join(tmp, "full.mp4")
	empty := filepath.Join(tmp, "empty.mp4")
	if err := os.WriteFile(full, []byte("data"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if err := RequireArtifact(full); err != nil {
		t.Fatalf("expected non-empty artifact to pass, got %v", err)
	}
	if err := RequireArtifact(empty); !errors.Is(err, ErrEmptyArtifact) {
		t.Fatalf("expected ErrEmptyArtifact, got %v", err)
	}
	if err := RequireArtifact(filepath.Join(tmp, "missing.mp4")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if err := RequireArtifact(tmp); err == nil {
		t.Fatalf("expected directory to be rejected")
	}
}

func TestErrorIsSingleLine(t *testing.T) {
	t.Parallel()

	err := &Error{
		Tool:   "ffmpeg",
		Op:     "encode clip",
		Err:    errors.New("exit status 1"),
		Output: "ffmpeg version 6\nInput #0 ...\n\npage_001.png: No such file or directory\n\n",
	}
	got := err.Error()
	if strings.Contains(got, "\n") {
		t.Fatalf("expected single line, got %q", got)
	}
	want := "ffmpeg encode clip: exit status 1: page_001.png: No such file or directory"
	if got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if Output(err) != err.Output {
		t.Fatalf("Output did not return captured stderr")
	}
}

func TestRunMissingBinary(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), "probe", filepath.Join(t.TempDir(), "no-such-tool"))
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if pe.Op != "probe" {
		t.Fatalf("unexpected op %q", pe.Op)
	}
}
