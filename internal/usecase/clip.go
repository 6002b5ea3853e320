package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/forPelevin/pdfnarrate/internal/ports"
	"github.com/forPelevin/pdfnarrate/internal/procexec"
	"github.com/forPelevin/pdfnarrate/internal/types"
)

// ClipTolerance is the encoder rounding allowed between a clip and its audio.
const ClipTolerance = 50 * time.Millisecond

// ClipBuilder encodes a page image held for the length of its narration.
type ClipBuilder struct {
	media ports.MediaTool
	probe DurationProbe
}

func NewClipBuilder(media ports.MediaTool) ClipBuilder {
	return ClipBuilder{media: media, probe: NewDurationProbe(media)}
}

// Build writes page.VideoPath and returns the clip's probed duration. The
// exit status alone is not trusted: the clip must exist, be non-empty and
// match the audio length within ClipTolerance.
func (b ClipBuilder) Build(ctx context.Context, page types.Page) (time.Duration, error) {
	for _, in := range []string{page.ImagePath, page.AudioPath} {
		if err := procexec.RequireArtifact(in); err != nil {
			return 0, wrap(ErrEncodingFailed, err)
		}
	}
	if err := clearArtifact(page.VideoPath); err != nil {
		return 0, wrap(ErrEncodingFailed, err)
	}
	if err := b.media.EncodeStill(ctx, page.ImagePath, page.AudioPath, page.VideoPath, page.Duration); err != nil {
		return 0, wrap(ErrEncodingFailed, err)
	}
	if err := procexec.RequireArtifact(page.VideoPath); err != nil {
		return 0, wrap(ErrEncodingFailed, err)
	}

	got, err := b.probe.Probe(ctx, page.VideoPath)
	if err != nil {
		return 0, wrap(ErrEncodingFailed, err)
	}
	if got < page.Duration-ClipTolerance || got > page.Duration+ClipTolerance {
		return 0, fmt.Errorf("%w: clip %s is %.3fs, audio is %.3fs",
			ErrEncodingFailed, page.VideoPath, got.Seconds(), page.Duration.Seconds())
	}
	return got, nil
}
