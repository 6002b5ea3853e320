package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forPelevin/pdfnarrate/internal/procexec"
	"github.com/forPelevin/pdfnarrate/internal/types"
)

// Fixed delivery settings. Every page clip is encoded with the same values so
// the clips can be concatenated with stream copy.
const (
	FrameRate    = "25"
	AudioBitrate = "192k"
	SampleRate   = "44100"
	Channels     = "2"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	out, err := procexec.Run(ctx, "probe duration", a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}
	return parseDuration(string(out))
}

// Silence writes a mono MP3 of silence lasting exactly d.
func (a *Adapter) Silence(ctx context.Context, d time.Duration, outPath string) error {
	_, err := procexec.Run(ctx, "generate silence", a.ffmpeg,
		"-y",
		"-f", "lavfi",
		"-i", "anullsrc=r=44100:cl=mono",
		"-t", fmtSeconds(d),
		"-q:a", "9",
		"-acodec", "libmp3lame",
		outPath,
	)
	return err
}

// EncodeStill loops imagePath under audioPath for d. The image stream is
// unbounded; -shortest ends the clip with the audio and -t caps it at d.
func (a *Adapter) EncodeStill(ctx context.Context, imagePath, audioPath, outPath string, d time.Duration) error {
	_, err := procexec.Run(ctx, "encode clip", a.ffmpeg, stillArgs(imagePath, audioPath, outPath, d)...)
	return err
}

func stillArgs(imagePath, audioPath, outPath string, d time.Duration) []string {
	args := []string{
		"-y",
		"-loop", "1",
		"-i", imagePath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-r", FrameRate,
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", AudioBitrate,
		"-ar", SampleRate,
		"-ac", Channels,
		"-shortest",
	}
	if d > 0 {
		args = append(args, "-t", fmtSeconds(d))
	}
	return append(args, "-movflags", "+faststart", outPath)
}

// Concat joins segments in order without re-encoding. The concat list is
// written next to outPath and removed afterwards.
func (a *Adapter) Concat(ctx context.Context, segments []string, outPath string) error {
	if len(segments) == 0 {
		return errors.New("no segments to concat")
	}
	list, err := concatList(segments)
	if err != nil {
		return err
	}
	listPath := filepath.Join(filepath.Dir(outPath), fmt.Sprintf("concat_list_%s.txt", uuid.NewString()))
	if err := os.WriteFile(listPath, []byte(list), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	_, err = procexec.Run(ctx, "concat", a.ffmpeg,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-movflags", "+faststart",
		outPath,
	)
	return err
}

func (a *Adapter) Inspect(ctx context.Context, path string) (types.SegmentParams, error) {
	out, err := procexec.Run(ctx, "inspect", a.ffprobe,
		"-v", "error",
		"-show_streams",
		"-of", "json",
		path,
	)
	if err != nil {
		return types.SegmentParams{}, err
	}
	return parseStreams(out)
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	PixFmt     string `json:"pix_fmt"`
	RFrameRate string `json:"r_frame_rate"`
	TimeBase   string `json:"time_base"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

func parseStreams(b []byte) (types.SegmentParams, error) {
	var res struct {
		Streams []probeStream `json:"streams"`
	}
	if err := json.Unmarshal(b, &res); err != nil {
		return types.SegmentParams{}, fmt.Errorf("parse ffprobe streams: %w", err)
	}
	var p types.SegmentParams
	var haveVideo, haveAudio bool
	for _, s := range res.Streams {
		switch {
		case strings.EqualFold(s.CodecType, "video") && !haveVideo:
			haveVideo = true
			p.VideoCodec = s.CodecName
			p.Width = s.Width
			p.Height = s.Height
			p.PixelFormat = s.PixFmt
			p.FrameRate = s.RFrameRate
			p.TimeBase = s.TimeBase
		case strings.EqualFold(s.CodecType, "audio") && !haveAudio:
			haveAudio = true
			p.AudioCodec = s.CodecName
			p.SampleRate = s.SampleRate
			p.Channels = s.Channels
		}
	}
	if !haveVideo {
		return p, errors.New("no video stream")
	}
	if !haveAudio {
		return p, errors.New("no audio stream")
	}
	return p, nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(math.Round(sec * float64(time.Second))), nil
}

func concatList(segments []string) (string, error) {
	var b strings.Builder
	for _, seg := range segments {
		abs, err := filepath.Abs(seg)
		if err != nil {
			return "", fmt.Errorf("absolute path: %w", err)
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String(), nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
