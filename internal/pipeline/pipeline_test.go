package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/forPelevin/pdfnarrate/internal/storage/local"
	"github.com/forPelevin/pdfnarrate/internal/types"
	"github.com/forPelevin/pdfnarrate/internal/usecase"
)

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "slides.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4\n"), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	valid := Config{PDFPath: pdf, ScriptPath: "script.jsonl", TTS: "edge_tts"}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid"},
		{name: "gtts", mutate: func(c *Config) { c.TTS = "gtts" }},
		{name: "empty pdf", mutate: func(c *Config) { c.PDFPath = "" }, wantErr: "pdf path is empty"},
		{name: "missing pdf", mutate: func(c *Config) { c.PDFPath = filepath.Join(dir, "nope.pdf") }, wantErr: "pdf not found"},
		{name: "pdf is dir", mutate: func(c *Config) { c.PDFPath = dir }, wantErr: "is a directory"},
		{name: "no script", mutate: func(c *Config) { c.ScriptPath = "" }, wantErr: "script path"},
		{name: "unknown tts", mutate: func(c *Config) { c.TTS = "espeak" }, wantErr: "unknown tts engine"},
		{name: "dpi too high", mutate: func(c *Config) { c.DPI = 5000 }, wantErr: "dpi"},
		{name: "negative jobs", mutate: func(c *Config) { c.Jobs = -1 }, wantErr: "jobs"},
		{name: "unknown publish", mutate: func(c *Config) { c.Publish.Type = "s3" }, wantErr: "publish type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			if tt.mutate != nil {
				tt.mutate(&c)
			}
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
			if strings.Contains(err.Error(), "\n") {
				t.Fatalf("expected one-line error, got %q", err.Error())
			}
		})
	}
}

func TestRun_OutputLocked(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "slides.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4\n"), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	held := flock.New(filepath.Join(out, LockFile))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("take lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	_, err = Run(context.Background(), Config{
		PDFPath:    pdf,
		ScriptPath: filepath.Join(dir, "script.jsonl"),
		OutputDir:  out,
		TTS:        "edge_tts",
		Logger:     zerolog.Nop(),
	})
	if !errors.Is(err, ErrOutputLocked) {
		t.Fatalf("expected output locked, got %v", err)
	}
}

func TestSpeechBackendDefaults(t *testing.T) {
	s, v := speechBackend(Config{TTS: "edge_tts"})
	if s.Name() != "edge_tts" || v.Name != "th-TH-PremwadeeNeural" {
		t.Fatalf("unexpected edge defaults: %s %+v", s.Name(), v)
	}
	s, v = speechBackend(Config{TTS: "gtts"})
	if s.Name() != "gtts" || v.Lang != "th" {
		t.Fatalf("unexpected gtts defaults: %s %+v", s.Name(), v)
	}
	_, v = speechBackend(Config{TTS: "edge_tts", Voice: types.Voice{Name: "en-US-AriaNeural", Rate: "+10%"}})
	if v.Name != "en-US-AriaNeural" || v.Rate != "+10%" {
		t.Fatalf("explicit voice overridden: %+v", v)
	}
}

func TestVoiceLabel(t *testing.T) {
	cfg := Config{TTS: "gtts", Voice: types.Voice{Name: "th-TH-PremwadeeNeural", Lang: "en"}}
	s, v := speechBackend(cfg)
	if got := voiceLabel(s.Name(), v); got != "en" {
		t.Fatalf("gtts label = %q, want the language", got)
	}
	cfg.TTS = "edge_tts"
	s, v = speechBackend(cfg)
	if got := voiceLabel(s.Name(), v); got != "th-TH-PremwadeeNeural" {
		t.Fatalf("edge label = %q, want the voice name", got)
	}
}

func TestPublish_UploadsVideoAndMetadata(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "final_video.mp4")
	meta := filepath.Join(dir, "metadata.json")
	for _, f := range []string{video, meta} {
		if err := os.WriteFile(f, []byte(filepath.Base(f)), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	base := filepath.Join(dir, "pub")
	store, err := local.NewLocalStorage(base, "")
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	out := usecase.Result{
		Run:          types.Run{PDFSource: "/in/Quarterly Report.pdf", FinalVideoPath: video},
		MetadataPath: meta,
	}
	got, err := publish(context.Background(), store, "team/q3", out, zerolog.Nop())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(got))
	}
	for _, name := range []string{"final_video.mp4", "metadata.json"} {
		p := filepath.Join(base, "team", "q3", "quarterly-report", name)
		b, err := os.ReadFile(p)
		if err != nil || string(b) != name {
			t.Fatalf("expected %s published, got %q err=%v", p, b, err)
		}
	}

	out.MetadataErr = errors.New("disk full")
	got, err = publish(context.Background(), store, "", out, zerolog.Nop())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 1 || got[0].Name != "final_video.mp4" {
		t.Fatalf("metadata must be skipped when it was not written: %+v", got)
	}
}

func TestPublishKey(t *testing.T) {
	tests := []struct {
		prefix, pdf, want string
	}{
		{"", "/tmp/My Slides.pdf", "my-slides"},
		{"runs/2026", "deck.PDF", "runs/2026/deck"},
		{"/a//b/", "x.pdf", "a/b/x"},
		{"", "___.pdf", "document"},
	}
	for _, tt := range tests {
		if got := publishKey(tt.prefix, tt.pdf); got != tt.want {
			t.Fatalf("publishKey(%q, %q) = %q, want %q", tt.prefix, tt.pdf, got, tt.want)
		}
	}
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
		"สไลด์ ที่ 1":       "สไลด์-ที่-1",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := normalizePathSegment(in); got != want {
				t.Fatalf("normalizePathSegment(%q) = %q, want %q", in, got, want)
			}
		})
	}
}
