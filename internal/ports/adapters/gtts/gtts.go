package gtts

import (
	"context"
	"strings"

	"github.com/forPelevin/pdfnarrate/internal/procexec"
	"github.com/forPelevin/pdfnarrate/internal/types"
)

const (
	Name        = "gtts"
	DefaultLang = "th"
)

// Adapter drives gtts-cli. Google TTS has no rate/pitch/volume controls, so
// only the language of the voice is used.
type Adapter struct {
	bin string
}

func New(binPath string) *Adapter {
	if binPath == "" {
		binPath = "gtts-cli"
	}
	return &Adapter{bin: binPath}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Speak(ctx context.Context, text string, voice types.Voice, outPath string) error {
	_, err := procexec.Run(ctx, "synthesize", a.bin, args(text, voice, outPath)...)
	return err
}

func args(text string, voice types.Voice, outPath string) []string {
	lang := strings.TrimSpace(voice.Lang)
	if lang == "" {
		lang = DefaultLang
	}
	// "--" ends option parsing so narration starting with "-" is read as text.
	return []string{"--lang", lang, "--output", outPath, "--", text}
}
