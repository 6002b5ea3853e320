package script

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"

	"github.com/forPelevin/pdfnarrate/internal/types"
)

// PreviewLimit bounds TextPreview in runes, ellipsis included.
const PreviewLimit = 100

const ellipsis = "..."

// maxLine caps a single JSONL record; narration for one slide never gets near it.
const maxLine = 1 << 20

type line struct {
	Page *int    `json:"page"`
	Text *string `json:"text"`
}

// ReadFile parses a JSONL narration script.
func ReadFile(path string) ([]types.ScriptEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads one {"page": int, "text": string} object per line. Blank lines
// are skipped; entries keep file order.
func Parse(r io.Reader) ([]types.ScriptEntry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var out []types.ScriptEntry
	n := 0
	for sc.Scan() {
		n++
		raw := sc.Text()
		if n == 1 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		var l line
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if l.Page == nil {
			return nil, fmt.Errorf("line %d: missing field \"page\"", n)
		}
		if l.Text == nil {
			return nil, fmt.Errorf("line %d: missing field \"text\"", n)
		}
		out = append(out, types.ScriptEntry{
			Page: *l.Page,
			Text: norm.NFC.String(*l.Text),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("script has no entries")
	}
	return out, nil
}

// Texts returns the narration strings in line order.
func Texts(entries []types.ScriptEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

// Preview shortens text to at most PreviewLimit runes. Cuts land on grapheme
// cluster boundaries so combining marks stay with their base character.
func Preview(text string) string {
	text = norm.NFC.String(text)
	if utf8.RuneCountInString(text) <= PreviewLimit {
		return text
	}
	budget := PreviewLimit - utf8.RuneCountInString(ellipsis)
	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cluster := g.Str()
		n := utf8.RuneCountInString(cluster)
		if used+n > budget {
			break
		}
		b.WriteString(cluster)
		used += n
	}
	return b.String() + ellipsis
}
