package usecase

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/pdfnarrate/internal/domain/script"
	"github.com/forPelevin/pdfnarrate/internal/ports"
	"github.com/forPelevin/pdfnarrate/internal/types"
)

const DefaultDPI = 300

type Deps struct {
	Renderer ports.PageRenderer
	Speech   ports.SpeechBackend
	Media    ports.MediaTool
	Logger   zerolog.Logger
}

type Usecase struct {
	d     Deps
	synth *Synthesizer
	probe DurationProbe
	clips ClipBuilder
	asm   Assembler
}

func New(d Deps) *Usecase {
	return &Usecase{
		d:     d,
		synth: NewSynthesizer(d.Speech, d.Media),
		probe: NewDurationProbe(d.Media),
		clips: NewClipBuilder(d.Media),
		asm:   NewAssembler(d.Media, d.Logger),
	}
}

type Input struct {
	PDFPath    string
	ScriptPath string
	Layout     Layout
	DPI        int
	Voice      types.Voice
	// Jobs > 1 processes that many pages at once. Results are still placed
	// by page index.
	Jobs int
}

type Result struct {
	Run          types.Run
	Metadata     types.Metadata
	MetadataPath string
	// MetadataErr is set when the video was produced but metadata.json was not.
	MetadataErr error
	State       State
}

// Run converts the PDF and script into one narrated video. Any page failure
// aborts the run; no video is assembled from a partial page set.
func (u *Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := u.d.Logger
	m := newMachine(log)

	// A failed run must not leave an earlier run's video behind as its output.
	for _, p := range []string{in.Layout.FinalVideo(), in.Layout.Metadata()} {
		if err := clearArtifact(p); err != nil {
			return Result{State: StateFailed}, m.fail(wrap(ErrEncodingFailed, err))
		}
	}

	if fi, err := os.Stat(in.PDFPath); err != nil {
		return Result{State: StateFailed}, m.fail(wrap(ErrSourceUnavailable, err))
	} else if fi.IsDir() {
		return Result{State: StateFailed}, m.fail(fmt.Errorf("%w: %s is a directory", ErrSourceUnavailable, in.PDFPath))
	}
	entries, err := script.ReadFile(in.ScriptPath)
	if err != nil {
		return Result{State: StateFailed}, m.fail(wrap(ErrScriptInvalid, err))
	}
	texts := script.Texts(entries)
	log.Info().Int("lines", len(texts)).Str("script", in.ScriptPath).Msg("script loaded")

	m.advance(StateRenderingPages)
	dpi := in.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	started := time.Now()
	images, err := u.d.Renderer.Render(ctx, in.PDFPath, in.Layout.ImagesDir(), dpi)
	if err != nil {
		return Result{State: StateFailed}, m.fail(wrap(ErrSourceUnavailable, err))
	}
	if len(images) == 0 {
		return Result{State: StateFailed}, m.fail(fmt.Errorf("%w: no pages rendered", ErrSourceUnavailable))
	}
	log.Info().Int("pages", len(images)).Int("dpi", dpi).Dur("took", time.Since(started)).Msg("pages rendered")

	// Pairing is positional, so a count mismatch is never repaired.
	if len(images) != len(texts) {
		return Result{State: StateFailed}, m.fail(fmt.Errorf("%w: pdf has %d pages, script has %d lines",
			ErrPageCountMismatch, len(images), len(texts)))
	}

	pages := make([]types.Page, len(images))
	for i := range pages {
		idx := i + 1
		pages[i] = types.Page{
			Index:       idx,
			Text:        texts[i],
			TextPreview: script.Preview(texts[i]),
			ImagePath:   images[i],
			AudioPath:   in.Layout.AudioPath(idx),
			VideoPath:   in.Layout.VideoPath(idx),
		}
	}

	m.advance(StateSynthesizingNarration)
	if err := u.processPages(ctx, pages, in, m); err != nil {
		return Result{State: StateFailed}, m.fail(err)
	}

	run := types.Run{
		PDFSource:      in.PDFPath,
		OutputRoot:     in.Layout.Root,
		Pages:          pages,
		TotalPages:     len(pages),
		FinalVideoPath: in.Layout.FinalVideo(),
	}
	for _, p := range pages {
		run.TotalDuration += p.Duration
	}

	m.advance(StateAssembling)
	asm, err := u.asm.Assemble(ctx, run, in.Layout.Metadata())
	if err != nil {
		return Result{State: StateFailed}, m.fail(err)
	}
	m.advance(StateDone)
	log.Info().
		Int("pages", run.TotalPages).
		Float64("total_s", run.TotalDuration.Seconds()).
		Str("video", run.FinalVideoPath).
		Msg("final video created")

	return Result{
		Run:          run,
		Metadata:     asm.Metadata,
		MetadataPath: asm.MetadataPath,
		MetadataErr:  asm.MetadataErr,
		State:        m.current(),
	}, nil
}

func (u *Usecase) processPages(ctx context.Context, pages []types.Page, in Input, m *machine) error {
	if in.Jobs <= 1 {
		for i := range pages {
			if err := u.processPage(ctx, &pages[i], len(pages), in.Voice, m); err != nil {
				return err
			}
		}
		return nil
	}

	// Each goroutine owns pages[i] and writes only page-unique paths.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.Jobs)
	for i := range pages {
		g.Go(func() error {
			return u.processPage(gctx, &pages[i], len(pages), in.Voice, m)
		})
	}
	return g.Wait()
}

func (u *Usecase) processPage(ctx context.Context, p *types.Page, total int, voice types.Voice, m *machine) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := u.d.Logger.With().Int("page", p.Index).Int("of", total).Logger()

	n, err := u.synth.Synthesize(ctx, p.Text, voice, p.AudioPath)
	if err != nil {
		return &PageError{Page: p.Index, Stage: "synthesize", Err: err}
	}
	d, err := u.probe.NarrationDuration(ctx, n)
	if err != nil {
		return &PageError{Page: p.Index, Stage: "probe", Err: err}
	}
	p.Duration = d
	log.Info().Bool("silent", n.Silent).Float64("duration_s", d.Seconds()).Msg("narration ready")

	m.advance(StateBuildingClips)
	clip, err := u.clips.Build(ctx, *p)
	if err != nil {
		p.VideoPath = ""
		return &PageError{Page: p.Index, Stage: "build clip", Err: err}
	}
	log.Info().Float64("clip_s", clip.Seconds()).Str("video", p.VideoPath).Msg("clip built")
	return nil
}
