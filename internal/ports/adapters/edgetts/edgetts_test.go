package edgetts

import (
	"reflect"
	"testing"

	"github.com/forPelevin/pdfnarrate/internal/types"
)

func TestArgs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		voice types.Voice
		want  []string
	}{
		{
			name:  "defaults",
			voice: types.Voice{},
			want:  []string{"--voice", DefaultVoice, "--text=hello", "--write-media", "out.mp3"},
		},
		{
			name:  "signed adjustments",
			voice: types.Voice{Name: "th-TH-NiwatNeural", Rate: "-10%", Pitch: "+5Hz", Volume: "+50%"},
			want: []string{
				"--voice", "th-TH-NiwatNeural",
				"--rate=-10%", "--pitch=+5Hz", "--volume=+50%",
				"--text=hello", "--write-media", "out.mp3",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := args("hello", tc.voice, "out.mp3")
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("args = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	if got := New("").Name(); got != "edge_tts" {
		t.Fatalf("Name() = %q", got)
	}
}
