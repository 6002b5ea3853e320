package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/forPelevin/pdfnarrate/internal/ports"
	"github.com/forPelevin/pdfnarrate/internal/ports/adapters/edgetts"
	"github.com/forPelevin/pdfnarrate/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/pdfnarrate/internal/ports/adapters/gtts"
	"github.com/forPelevin/pdfnarrate/internal/ports/adapters/poppler"
	"github.com/forPelevin/pdfnarrate/internal/storage"
	"github.com/forPelevin/pdfnarrate/internal/storagefactory"
	"github.com/forPelevin/pdfnarrate/internal/types"
	"github.com/forPelevin/pdfnarrate/internal/usecase"
)

const (
	DefaultOutputDir  = "outputs"
	DefaultScriptPath = "inputs/script.jsonl"
	LockFile          = ".pdfnarrate.lock"

	maxDPI = 1200
)

// ErrOutputLocked is returned when another run holds the output directory.
var ErrOutputLocked = errors.New("output directory is in use by another run")

type Config struct {
	PDFPath    string
	ScriptPath string
	OutputDir  string

	// TTS selects the speech backend: edge_tts or gtts.
	TTS   string
	Voice types.Voice

	DPI           int
	Jobs          int
	RenderWorkers int

	FFmpegPath   string
	FFprobePath  string
	PdftoppmPath string
	PdfinfoPath  string
	EdgeTTSPath  string
	GTTSPath     string

	Publish storage.Config

	Logger zerolog.Logger
}

func (c Config) Validate() error {
	if c.PDFPath == "" {
		return errors.New("pdf path is empty")
	}
	fi, err := os.Stat(c.PDFPath)
	if err != nil {
		return fmt.Errorf("pdf not found: %s", c.PDFPath)
	}
	if fi.IsDir() {
		return fmt.Errorf("pdf path is a directory: %s", c.PDFPath)
	}
	if c.ScriptPath == "" {
		return errors.New("script path is empty")
	}
	switch c.TTS {
	case edgetts.Name, gtts.Name:
	default:
		return fmt.Errorf("unknown tts engine %q (want %s or %s)", c.TTS, edgetts.Name, gtts.Name)
	}
	if c.DPI < 0 || c.DPI > maxDPI {
		return fmt.Errorf("dpi must be between 1 and %d", maxDPI)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must be >= 1")
	}
	if c.RenderWorkers < 0 {
		return fmt.Errorf("render workers must be >= 1")
	}
	switch storage.StorageType(c.Publish.Type) {
	case "", storage.StorageTypeNone, storage.StorageTypeLocal, storage.StorageTypeOSS:
	default:
		return fmt.Errorf("unknown publish type %q (want none, local or oss)", c.Publish.Type)
	}
	return nil
}

// Published names one uploaded artifact.
type Published struct {
	Name     string
	Location string
}

type Result struct {
	RunID     string
	Output    usecase.Result
	Published []Published
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	runID := uuid.NewString()
	log := cfg.Logger.With().Str("run_id", runID).Logger()

	// Publishing is configured up front so a bad backend fails before any
	// page is rendered.
	var store storage.Storage
	if cfg.Publish.Enabled() {
		s, err := storagefactory.NewStorage(cfg.Publish)
		if err != nil {
			return Result{}, fmt.Errorf("publish: %w", err)
		}
		store = s
		log.Info().Str("storage", s.GetStorageType()).Msg("publishing enabled")
	}

	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = DefaultOutputDir
	}
	layout := usecase.Layout{Root: outDir}
	log.Info().Str("output", outDir).Msg("preparing workspace")
	for _, d := range layout.Dirs() {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return Result{}, fmt.Errorf("create output dir: %w", err)
		}
	}

	lock := flock.New(filepath.Join(outDir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrOutputLocked, outDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn().Err(err).Msg("failed to release output lock")
		}
	}()

	speech, voice := speechBackend(cfg)
	media := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	uc := usecase.New(usecase.Deps{
		Renderer: poppler.New(cfg.PdftoppmPath, cfg.PdfinfoPath, cfg.RenderWorkers),
		Speech:   speech,
		Media:    media,
		Logger:   log,
	})
	log.Info().
		Str("pdf", cfg.PDFPath).
		Str("script", cfg.ScriptPath).
		Str("tts", speech.Name()).
		Str("voice", voiceLabel(speech.Name(), voice)).
		Msg("starting")

	out, err := uc.Run(ctx, usecase.Input{
		PDFPath:    cfg.PDFPath,
		ScriptPath: cfg.ScriptPath,
		Layout:     layout,
		DPI:        cfg.DPI,
		Voice:      voice,
		Jobs:       cfg.Jobs,
	})
	res := Result{RunID: runID, Output: out}
	if err != nil {
		return res, err
	}

	if store != nil {
		published, err := publish(ctx, store, cfg.Publish.Prefix, out, log)
		res.Published = published
		if err != nil {
			return res, fmt.Errorf("publish: %w", err)
		}
	}
	return res, nil
}

func speechBackend(cfg Config) (ports.SpeechBackend, types.Voice) {
	voice := cfg.Voice
	if cfg.TTS == gtts.Name {
		if voice.Lang == "" {
			voice.Lang = gtts.DefaultLang
		}
		return gtts.New(cfg.GTTSPath), voice
	}
	if voice.Name == "" {
		voice.Name = edgetts.DefaultVoice
	}
	return edgetts.New(cfg.EdgeTTSPath), voice
}

// voiceLabel names the voice the engine actually uses. gTTS only takes a
// language; the edge voice flags are ignored there.
func voiceLabel(engine string, v types.Voice) string {
	if engine == gtts.Name {
		return v.Lang
	}
	return v.Name
}

// publish uploads the final video and, when it was written, metadata.json
// under <prefix>/<pdf-stem>/.
func publish(ctx context.Context, store storage.Storage, prefix string, out usecase.Result, log zerolog.Logger) ([]Published, error) {
	base := publishKey(prefix, out.Run.PDFSource)
	uploads := []struct {
		name, path, contentType string
	}{
		{"final_video.mp4", out.Run.FinalVideoPath, "video/mp4"},
	}
	if out.MetadataErr == nil && out.MetadataPath != "" {
		uploads = append(uploads, struct{ name, path, contentType string }{"metadata.json", out.MetadataPath, "application/json"})
	}

	var published []Published
	for _, u := range uploads {
		loc, err := uploadFile(ctx, store, path.Join(base, u.name), u.path, u.contentType)
		if err != nil {
			return published, err
		}
		log.Info().Str("storage", store.GetStorageType()).Str("location", loc).Msg("artifact published")
		published = append(published, Published{Name: u.name, Location: loc})
	}
	return published, nil
}

func uploadFile(ctx context.Context, store storage.Storage, key, file, contentType string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return store.Upload(ctx, key, f, contentType)
}

func publishKey(prefix, pdfPath string) string {
	name := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	name = normalizePathSegment(name)
	if name == "" {
		name = "document"
	}
	var parts []string
	for _, p := range strings.Split(prefix, "/") {
		if p = normalizePathSegment(p); p != "" {
			parts = append(parts, p)
		}
	}
	return path.Join(append(parts, name)...)
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.Is(unicode.Mn, r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// ensure adapters implement ports
var _ ports.PageRenderer = (*poppler.Adapter)(nil)
var _ ports.MediaTool = (*ffmpeg.Adapter)(nil)
var _ ports.SpeechBackend = (*edgetts.Adapter)(nil)
var _ ports.SpeechBackend = (*gtts.Adapter)(nil)
