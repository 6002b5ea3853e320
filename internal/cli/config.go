package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/forPelevin/pdfnarrate/internal/pipeline"
	"github.com/forPelevin/pdfnarrate/internal/ports/adapters/edgetts"
	"github.com/forPelevin/pdfnarrate/internal/ports/adapters/gtts"
	"github.com/forPelevin/pdfnarrate/internal/storage"
	"github.com/forPelevin/pdfnarrate/internal/usecase"
)

const envPrefix = "PDFNARRATE"

type settings struct {
	Output     string `mapstructure:"output"`
	ScriptPath string `mapstructure:"script_path"`

	TTS           string `mapstructure:"tts"`
	EdgeVoice     string `mapstructure:"edge_voice"`
	EdgeRate      string `mapstructure:"edge_rate"`
	EdgePitch     string `mapstructure:"edge_pitch"`
	EdgeVolume    string `mapstructure:"edge_volume"`
	GTTSLang      string `mapstructure:"gtts_lang"`
	DPI           int    `mapstructure:"dpi"`
	Jobs          int    `mapstructure:"jobs"`
	RenderWorkers int    `mapstructure:"render_workers"`
	FFmpegPath    string `mapstructure:"ffmpeg_path"`
	FFprobePath   string `mapstructure:"ffprobe_path"`
	PdftoppmPath  string `mapstructure:"pdftoppm_path"`
	PdfinfoPath   string `mapstructure:"pdfinfo_path"`
	EdgeTTSPath   string `mapstructure:"edge_tts_path"`
	GTTSPath      string `mapstructure:"gtts_path"`

	Log     logSettings     `mapstructure:"log"`
	Publish publishSettings `mapstructure:"publish"`
}

type logSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type publishSettings struct {
	Type   string `mapstructure:"type"`
	Prefix string `mapstructure:"prefix"`
	Local  struct {
		BasePath string `mapstructure:"base_path"`
		BaseURL  string `mapstructure:"base_url"`
	} `mapstructure:"local"`
	OSS struct {
		Endpoint        string   `mapstructure:"endpoint"`
		Bucket          string   `mapstructure:"bucket"`
		AccessKeyID     string   `mapstructure:"access_key_id"`
		AccessKeySecret string   `mapstructure:"access_key_secret"`
		AllowedHosts    []string `mapstructure:"allowed_hosts"`
	} `mapstructure:"oss"`
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"output":      "output",
	"script_path": "script_path",
	"tts":         "tts",
	"edge-voice":  "edge_voice",
	"edge-rate":   "edge_rate",
	"edge-pitch":  "edge_pitch",
	"edge-volume": "edge_volume",
	"gtts-lang":   "gtts_lang",
	"dpi":         "dpi",
	"jobs":        "jobs",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

// binaryEnv lists the unprefixed variables that locate external tools.
var binaryEnv = map[string]string{
	"ffmpeg_path":   "FFMPEG_PATH",
	"ffprobe_path":  "FFPROBE_PATH",
	"pdftoppm_path": "PDFTOPPM_PATH",
	"pdfinfo_path":  "PDFINFO_PATH",
	"edge_tts_path": "EDGE_TTS_PATH",
	"gtts_path":     "GTTS_PATH",
}

func addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output", "o", pipeline.DefaultOutputDir, "Output directory")
	f.StringP("script_path", "s", pipeline.DefaultScriptPath, "Narration script (JSON lines)")
	f.String("tts", edgetts.Name, "Speech engine: edge_tts or gtts")
	f.String("edge-voice", edgetts.DefaultVoice, "edge-tts voice")
	f.String("edge-rate", "+0%", "edge-tts speaking rate")
	f.String("edge-pitch", "+0Hz", "edge-tts pitch")
	f.String("edge-volume", "+0%", "edge-tts volume")
	f.String("gtts-lang", gtts.DefaultLang, "gTTS language")
	f.Int("dpi", usecase.DefaultDPI, "Page render resolution")
	f.Int("jobs", 1, "Pages processed concurrently")
	f.String("config", "", "Config file (yaml, toml or json)")
	f.String("log-level", "info", "Log level")
	f.String("log-format", "auto", "Log format: auto, console or json")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("render_workers", 0)
	for key := range binaryEnv {
		v.SetDefault(key, "")
	}
	v.SetDefault("publish.type", string(storage.StorageTypeNone))
	v.SetDefault("publish.prefix", "")
	v.SetDefault("publish.local.base_path", "")
	v.SetDefault("publish.local.base_url", "")
	v.SetDefault("publish.oss.endpoint", "")
	v.SetDefault("publish.oss.bucket", "")
	v.SetDefault("publish.oss.access_key_id", "")
	v.SetDefault("publish.oss.access_key_secret", "")
	v.SetDefault("publish.oss.allowed_hosts", []string{})
}

// loadSettings merges flags, PDFNARRATE_* variables and an optional config
// file. Explicit flags win over the environment, which wins over the file.
func loadSettings(cmd *cobra.Command) (settings, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return settings{}, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	for key, env := range binaryEnv {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(key), env); err != nil {
			return settings{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pdfnarrate")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("parse config: %w", err)
	}
	return s, nil
}

func (s settings) pipelineConfig(pdfPath string) pipeline.Config {
	cfg := pipeline.Config{
		PDFPath:       pdfPath,
		ScriptPath:    s.ScriptPath,
		OutputDir:     s.Output,
		TTS:           strings.ToLower(strings.TrimSpace(s.TTS)),
		DPI:           s.DPI,
		Jobs:          s.Jobs,
		RenderWorkers: s.RenderWorkers,
		FFmpegPath:    s.FFmpegPath,
		FFprobePath:   s.FFprobePath,
		PdftoppmPath:  s.PdftoppmPath,
		PdfinfoPath:   s.PdfinfoPath,
		EdgeTTSPath:   s.EdgeTTSPath,
		GTTSPath:      s.GTTSPath,
		Publish: storage.Config{
			Type:   strings.ToLower(s.Publish.Type),
			Prefix: s.Publish.Prefix,
			Local: storage.LocalConfig{
				BasePath: s.Publish.Local.BasePath,
				BaseURL:  s.Publish.Local.BaseURL,
			},
			OSS: storage.OSSConfig{
				Endpoint:        s.Publish.OSS.Endpoint,
				Bucket:          s.Publish.OSS.Bucket,
				AccessKeyID:     s.Publish.OSS.AccessKeyID,
				AccessKeySecret: s.Publish.OSS.AccessKeySecret,
				AllowedHosts:    s.Publish.OSS.AllowedHosts,
			},
		},
	}
	cfg.Voice.Name = s.EdgeVoice
	cfg.Voice.Rate = s.EdgeRate
	cfg.Voice.Pitch = s.EdgePitch
	cfg.Voice.Volume = s.EdgeVolume
	cfg.Voice.Lang = s.GTTSLang
	return cfg
}
