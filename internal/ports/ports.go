package ports

import (
	"context"
	"time"

	"github.com/forPelevin/pdfnarrate/internal/types"
)

// PageRenderer rasterizes every page of a PDF into outDir and returns the
// image paths ordered by page.
type PageRenderer interface {
	Render(ctx context.Context, pdfPath, outDir string, dpi int) ([]string, error)
}

// SpeechBackend turns text into an audio file at outPath.
type SpeechBackend interface {
	Name() string
	Speak(ctx context.Context, text string, voice types.Voice, outPath string) error
}

type MediaTool interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
	Silence(ctx context.Context, d time.Duration, outPath string) error
	EncodeStill(ctx context.Context, imagePath, audioPath, outPath string, d time.Duration) error
	Inspect(ctx context.Context, path string) (types.SegmentParams, error)
	Concat(ctx context.Context, segments []string, outPath string) error
}
