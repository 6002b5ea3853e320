// Package procexec runs external tools with checked exit status and verifies
// the artifacts they are expected to leave behind.
package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Error is returned when a tool exits non-zero or cannot be started.
// Error() is a single line; Output keeps the full stderr for logs.
type Error struct {
	Tool   string
	Op     string
	Args   []string
	Err    error
	Output string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Tool, e.Op, e.Err)
	if last := lastLine(e.Output); last != "" {
		msg += ": " + last
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Run executes bin with args and returns stdout.
func Run(ctx context.Context, op, bin string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &Error{
			Tool:   bin,
			Op:     op,
			Args:   append([]string(nil), args...),
			Err:    err,
			Output: stderr.String(),
		}
	}
	return stdout.Bytes(), nil
}

// ErrEmptyArtifact reports an artifact that exists but has zero size.
var ErrEmptyArtifact = errors.New("artifact is empty")

// RequireArtifact checks that path exists, is a regular file and is non-empty.
func RequireArtifact(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("artifact %s is not a regular file", path)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("%s: %w", path, ErrEmptyArtifact)
	}
	return nil
}

// Output returns the captured stderr of a failed tool run, if any.
func Output(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Output
	}
	return ""
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
