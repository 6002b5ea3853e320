package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/forPelevin/pdfnarrate/internal/types"
)

func TestAssembler(t *testing.T) {
	Convey("Assembler", t, func() {
		dir := t.TempDir()
		media := newFakeMedia()
		l := Layout{Root: dir}
		for _, d := range l.Dirs() {
			So(os.MkdirAll(d, 0o755), ShouldBeNil)
		}

		run := types.Run{PDFSource: "doc.pdf", OutputRoot: dir, FinalVideoPath: l.FinalVideo()}
		for i, d := range []time.Duration{time.Second, SilentFallback} {
			p := types.Page{Index: i + 1, VideoPath: l.VideoPath(i + 1), Duration: d}
			So(media.write(p.VideoPath, d), ShouldBeNil)
			run.Pages = append(run.Pages, p)
			run.TotalDuration += d
		}
		asm := NewAssembler(media, zerolog.Nop())

		Convey("concatenates segments in page order and writes metadata", func() {
			res, err := asm.Assemble(context.Background(), run, l.Metadata())
			So(err, ShouldBeNil)
			So(res.MetadataErr, ShouldBeNil)
			So(media.concats(), ShouldHaveLength, 1)
			So(media.concats()[0], ShouldResemble, []string{l.VideoPath(1), l.VideoPath(2)})
			So(res.Metadata.TotalDuration, ShouldEqual, 3.0)

			_, err = os.Stat(l.Metadata() + ".tmp")
			So(os.IsNotExist(err), ShouldBeTrue)
		})

		Convey("refuses a page without a clip", func() {
			run.Pages[1].VideoPath = ""
			_, err := asm.Assemble(context.Background(), run, l.Metadata())
			So(errors.Is(err, ErrEncodingFailed), ShouldBeTrue)
			So(media.concats(), ShouldBeEmpty)
		})

		Convey("refuses segments whose audio differs from page 1", func() {
			p := defaultParams()
			p.SampleRate = "24000"
			media.params = map[string]types.SegmentParams{filepath.Base(l.VideoPath(2)): p}

			_, err := asm.Assemble(context.Background(), run, l.Metadata())
			So(errors.Is(err, ErrIncompatibleSegment), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "sample rate")
			So(media.concats(), ShouldBeEmpty)
		})
	})
}

func TestWriteMetadata(t *testing.T) {
	Convey("WriteMetadata", t, func() {
		path := filepath.Join(t.TempDir(), "metadata.json")
		run := types.Run{
			PDFSource:      "slides.pdf",
			FinalVideoPath: "out/final_video.mp4",
			TotalDuration:  1234567 * time.Microsecond,
			Pages: []types.Page{{
				Index:       1,
				ImagePath:   "out/images/page_001.png",
				AudioPath:   "out/audio/page_001.mp3",
				VideoPath:   "out/videos/page_001_video.mp4",
				Duration:    1234567 * time.Microsecond,
				TextPreview: "สวัสดี <ครับ> & café",
			}},
		}

		So(WriteMetadata(path, BuildMetadata(run)), ShouldBeNil)
		b, err := os.ReadFile(path)
		So(err, ShouldBeNil)

		Convey("keeps non-ASCII and markup characters verbatim", func() {
			So(string(b), ShouldContainSubstring, "สวัสดี <ครับ> & café")
			So(string(b), ShouldNotContainSubstring, `\u`)
		})

		Convey("uses the documented field names", func() {
			var raw map[string]any
			So(json.Unmarshal(b, &raw), ShouldBeNil)
			for _, k := range []string{"pdf_file", "total_pages", "total_duration", "output_video", "pages"} {
				So(raw, ShouldContainKey, k)
			}
			page := raw["pages"].([]any)[0].(map[string]any)
			for _, k := range []string{"page", "image", "audio", "video", "duration", "text_preview"} {
				So(page, ShouldContainKey, k)
			}
			So(raw["total_duration"], ShouldEqual, 1.234567)
		})

		Convey("is indented", func() {
			So(strings.HasPrefix(string(b), "{\n  \""), ShouldBeTrue)
		})
	})
}
