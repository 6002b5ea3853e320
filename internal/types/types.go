package types

import "time"

// ScriptEntry is one line of the narration script. Page is informational;
// narration order is the line order.
type ScriptEntry struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// Voice carries the speech backend parameters. Rate, Pitch and Volume are
// passed through untouched (e.g. "+20%", "-5Hz").
type Voice struct {
	Name   string
	Lang   string
	Rate   string
	Pitch  string
	Volume string
}

type Page struct {
	Index       int
	Text        string
	TextPreview string
	ImagePath   string
	AudioPath   string
	VideoPath   string
	Duration    time.Duration
}

// Run is the aggregate of one invocation.
type Run struct {
	PDFSource      string
	OutputRoot     string
	Pages          []Page
	TotalPages     int
	TotalDuration  time.Duration
	FinalVideoPath string
}

// SegmentParams are the stream parameters that must match across segments
// for a stream-copy concat to be valid.
type SegmentParams struct {
	VideoCodec  string
	Width       int
	Height      int
	PixelFormat string
	FrameRate   string
	TimeBase    string
	AudioCodec  string
	SampleRate  string
	Channels    int
}

type Metadata struct {
	PDFFile       string         `json:"pdf_file"`
	TotalPages    int            `json:"total_pages"`
	TotalDuration float64        `json:"total_duration"`
	OutputVideo   string         `json:"output_video"`
	Pages         []MetadataPage `json:"pages"`
}

type MetadataPage struct {
	Page        int     `json:"page"`
	Image       string  `json:"image"`
	Audio       string  `json:"audio"`
	Video       string  `json:"video"`
	Duration    float64 `json:"duration"`
	TextPreview string  `json:"text_preview"`
}
