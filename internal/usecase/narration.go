package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/forPelevin/pdfnarrate/internal/ports"
	"github.com/forPelevin/pdfnarrate/internal/procexec"
	"github.com/forPelevin/pdfnarrate/internal/types"
)

// SilentFallback is the length of the audio written for pages without
// narration text. Every page gets audio; a blank line never means a missing file.
const SilentFallback = 2 * time.Second

// Narration is a synthesized audio artifact.
type Narration struct {
	Path   string
	Silent bool
}

// Synthesizer produces page audio. Calls for the same output path are
// collapsed so at most one synthesis per target is in flight.
type Synthesizer struct {
	speech ports.SpeechBackend
	media  ports.MediaTool
	group  singleflight.Group
}

func NewSynthesizer(speech ports.SpeechBackend, media ports.MediaTool) *Synthesizer {
	return &Synthesizer{speech: speech, media: media}
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string, voice types.Voice, outPath string) (Narration, error) {
	v, err, _ := s.group.Do(outPath, func() (any, error) {
		return s.synthesize(ctx, text, voice, outPath)
	})
	if err != nil {
		return Narration{}, err
	}
	return v.(Narration), nil
}

func (s *Synthesizer) synthesize(ctx context.Context, text string, voice types.Voice, outPath string) (Narration, error) {
	if err := clearArtifact(outPath); err != nil {
		return Narration{}, wrap(ErrSynthesisFailed, err)
	}

	n := Narration{Path: outPath}
	if strings.TrimSpace(text) == "" {
		n.Silent = true
		if err := s.media.Silence(ctx, SilentFallback, outPath); err != nil {
			return Narration{}, wrap(ErrSynthesisFailed, err)
		}
	} else {
		if s.speech == nil {
			return Narration{}, wrap(ErrSynthesisFailed, errors.New("no speech backend configured"))
		}
		if err := s.speech.Speak(ctx, text, voice, outPath); err != nil {
			return Narration{}, wrap(ErrSynthesisFailed, err)
		}
	}

	if err := procexec.RequireArtifact(outPath); err != nil {
		return Narration{}, wrap(ErrSynthesisFailed, err)
	}
	return n, nil
}

// DurationProbe measures audio artifacts. Its result is the length the page
// clip is held for.
type DurationProbe struct {
	media ports.MediaTool
}

func NewDurationProbe(media ports.MediaTool) DurationProbe {
	return DurationProbe{media: media}
}

func (p DurationProbe) Probe(ctx context.Context, path string) (time.Duration, error) {
	if err := procexec.RequireArtifact(path); err != nil {
		return 0, wrap(ErrProbeFailed, err)
	}
	d, err := p.media.ProbeDuration(ctx, path)
	if err != nil {
		return 0, wrap(ErrProbeFailed, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: negative duration %s", ErrProbeFailed, d)
	}
	return d, nil
}

// NarrationDuration is the authoritative duration of n. Silent pages carry
// the fallback length exactly; the artifact is still probed so a corrupt
// file fails here rather than in the encoder.
func (p DurationProbe) NarrationDuration(ctx context.Context, n Narration) (time.Duration, error) {
	d, err := p.Probe(ctx, n.Path)
	if err != nil {
		return 0, err
	}
	if n.Silent {
		return SilentFallback, nil
	}
	if d == 0 {
		return 0, fmt.Errorf("%w: %s has zero duration", ErrProbeFailed, n.Path)
	}
	return d, nil
}

// clearArtifact removes a previous run's output so post-condition checks
// only ever see files written by this run.
func clearArtifact(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove previous artifact: %w", err)
	}
	return nil
}
