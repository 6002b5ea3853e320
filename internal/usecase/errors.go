package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrSourceUnavailable   = errors.New("source unavailable")
	ErrScriptInvalid       = errors.New("script invalid")
	ErrPageCountMismatch   = errors.New("page count mismatch")
	ErrSynthesisFailed     = errors.New("synthesis failed")
	ErrProbeFailed         = errors.New("probe failed")
	ErrEncodingFailed      = errors.New("encoding failed")
	ErrIncompatibleSegment = errors.New("incompatible segment")
	ErrMetadataWriteFailed = errors.New("metadata write failed")
)

// PageError attributes a stage failure to one page.
type PageError struct {
	Page  int
	Stage string
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %s: %v", e.Page, e.Stage, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// RunError is the Failed state: the state the run was in when it stopped
// and the reason.
type RunError struct {
	State State
	Err   error
}

func (e *RunError) Error() string {
	return e.Err.Error()
}

func (e *RunError) Unwrap() error { return e.Err }

// wrap tags err with a taxonomy sentinel while keeping err matchable.
func wrap(sentinel, err error) error {
	return fmt.Errorf("%w: %w", sentinel, err)
}
