package edgetts

import (
	"context"
	"strings"

	"github.com/forPelevin/pdfnarrate/internal/procexec"
	"github.com/forPelevin/pdfnarrate/internal/types"
)

const (
	Name         = "edge_tts"
	DefaultVoice = "th-TH-PremwadeeNeural"
)

// Adapter drives the edge-tts command line client.
type Adapter struct {
	bin string
}

func New(binPath string) *Adapter {
	if binPath == "" {
		binPath = "edge-tts"
	}
	return &Adapter{bin: binPath}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Speak(ctx context.Context, text string, voice types.Voice, outPath string) error {
	_, err := procexec.Run(ctx, "synthesize", a.bin, args(text, voice, outPath)...)
	return err
}

func args(text string, voice types.Voice, outPath string) []string {
	name := strings.TrimSpace(voice.Name)
	if name == "" {
		name = DefaultVoice
	}
	out := []string{"--voice", name}
	// --flag=value keeps signed values like "-10%" and text starting with "-"
	// from being read as flags.
	if v := strings.TrimSpace(voice.Rate); v != "" {
		out = append(out, "--rate="+v)
	}
	if v := strings.TrimSpace(voice.Pitch); v != "" {
		out = append(out, "--pitch="+v)
	}
	if v := strings.TrimSpace(voice.Volume); v != "" {
		out = append(out, "--volume="+v)
	}
	return append(out, "--text="+text, "--write-media", outPath)
}
