package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/pdfnarrate/internal/ports"
	"github.com/forPelevin/pdfnarrate/internal/procexec"
	"github.com/forPelevin/pdfnarrate/internal/types"
)

// Assembly is the outcome of a successful concat. MetadataErr is set when the
// final video exists but metadata.json could not be written.
type Assembly struct {
	Metadata     types.Metadata
	MetadataPath string
	MetadataErr  error
}

// Assembler concatenates page clips losslessly and records the run.
type Assembler struct {
	media ports.MediaTool
	log   zerolog.Logger
}

func NewAssembler(media ports.MediaTool, log zerolog.Logger) Assembler {
	return Assembler{media: media, log: log}
}

func (a Assembler) Assemble(ctx context.Context, run types.Run, metadataPath string) (Assembly, error) {
	if len(run.Pages) == 0 {
		return Assembly{}, fmt.Errorf("%w: no segments", ErrEncodingFailed)
	}
	segments := make([]string, len(run.Pages))
	for i, p := range run.Pages {
		if p.VideoPath == "" {
			return Assembly{}, fmt.Errorf("%w: page %d has no clip", ErrEncodingFailed, p.Index)
		}
		segments[i] = p.VideoPath
	}

	if err := a.checkCompatible(ctx, run.Pages); err != nil {
		return Assembly{}, err
	}

	if err := clearArtifact(run.FinalVideoPath); err != nil {
		return Assembly{}, wrap(ErrEncodingFailed, err)
	}
	if err := a.media.Concat(ctx, segments, run.FinalVideoPath); err != nil {
		return Assembly{}, wrap(ErrEncodingFailed, err)
	}
	if err := procexec.RequireArtifact(run.FinalVideoPath); err != nil {
		return Assembly{}, wrap(ErrEncodingFailed, err)
	}
	a.checkDrift(ctx, run)

	res := Assembly{Metadata: BuildMetadata(run), MetadataPath: metadataPath}
	if err := WriteMetadata(metadataPath, res.Metadata); err != nil {
		res.MetadataErr = wrap(ErrMetadataWriteFailed, err)
		a.log.Error().Err(res.MetadataErr).Str("path", metadataPath).Msg("metadata not saved")
	} else {
		a.log.Info().Str("path", metadataPath).Msg("metadata saved")
	}
	return res, nil
}

// checkCompatible fails on the first segment whose stream parameters differ
// from page 1. Stream copy over mismatched segments yields a broken file.
func (a Assembler) checkCompatible(ctx context.Context, pages []types.Page) error {
	var ref types.SegmentParams
	for i, p := range pages {
		params, err := a.media.Inspect(ctx, p.VideoPath)
		if err != nil {
			return wrap(ErrProbeFailed, &PageError{Page: p.Index, Stage: "inspect", Err: err})
		}
		if i == 0 {
			ref = params
			continue
		}
		if field, got, want := diffParams(params, ref); field != "" {
			return fmt.Errorf("%w: page %d %s is %q, page %d has %q",
				ErrIncompatibleSegment, p.Index, field, got, pages[0].Index, want)
		}
	}
	return nil
}

func diffParams(got, want types.SegmentParams) (field, g, w string) {
	checks := []struct {
		name      string
		got, want string
	}{
		{"video codec", got.VideoCodec, want.VideoCodec},
		{"resolution", fmt.Sprintf("%dx%d", got.Width, got.Height), fmt.Sprintf("%dx%d", want.Width, want.Height)},
		{"pixel format", got.PixelFormat, want.PixelFormat},
		{"frame rate", got.FrameRate, want.FrameRate},
		{"time base", got.TimeBase, want.TimeBase},
		{"audio codec", got.AudioCodec, want.AudioCodec},
		{"sample rate", got.SampleRate, want.SampleRate},
		{"channels", fmt.Sprint(got.Channels), fmt.Sprint(want.Channels)},
	}
	for _, c := range checks {
		if c.got != c.want {
			return c.name, c.got, c.want
		}
	}
	return "", "", ""
}

// checkDrift compares the concatenated length with the page durations. Stream
// copy adds no time of its own, so drift points at a clip problem; it is
// logged, not fatal, because every clip already passed its own check.
func (a Assembler) checkDrift(ctx context.Context, run types.Run) {
	got, err := a.media.ProbeDuration(ctx, run.FinalVideoPath)
	if err != nil {
		a.log.Warn().Err(err).Msg("could not probe final video")
		return
	}
	limit := time.Duration(len(run.Pages)) * ClipTolerance
	if drift := got - run.TotalDuration; drift > limit || drift < -limit {
		a.log.Warn().
			Float64("final_s", got.Seconds()).
			Float64("pages_s", run.TotalDuration.Seconds()).
			Msg("final video length differs from page durations")
	}
}

// BuildMetadata renders the persisted record of a run.
func BuildMetadata(run types.Run) types.Metadata {
	m := types.Metadata{
		PDFFile:       run.PDFSource,
		TotalPages:    len(run.Pages),
		TotalDuration: seconds(run.TotalDuration),
		OutputVideo:   run.FinalVideoPath,
		Pages:         make([]types.MetadataPage, 0, len(run.Pages)),
	}
	for _, p := range run.Pages {
		m.Pages = append(m.Pages, types.MetadataPage{
			Page:        p.Index,
			Image:       p.ImagePath,
			Audio:       p.AudioPath,
			Video:       p.VideoPath,
			Duration:    seconds(p.Duration),
			TextPreview: p.TextPreview,
		})
	}
	return m
}

// WriteMetadata writes m as indented JSON. Non-ASCII text is kept verbatim.
func WriteMetadata(path string, m types.Metadata) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// seconds rounds to microseconds so float noise from Duration division does
// not leak into the JSON.
func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1e6) / 1e6
}
