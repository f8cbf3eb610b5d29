// Package subtitle renders and rebases SRT subtitles.
package subtitle

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/guiyumin/vclip/internal/core/timestamp"
)

// Cue is one subtitle entry.
type Cue struct {
	Start   time.Duration `json:"start"`
	End     time.Duration `json:"end"`
	Text    string        `json:"text"`
	Speaker string        `json:"speaker,omitempty"`
}

// FormatTime renders d as an SRT timestamp (00:00:01,000).
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// SRT renders cues numbered from 1. Speaker labels are shown as "[spk0] ".
func SRT(cues []Cue) string {
	var b strings.Builder
	for i, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n", i+1, FormatTime(c.Start), FormatTime(c.End))
		if c.Speaker != "" {
			b.WriteString("[" + c.Speaker + "] ")
		}
		b.WriteString(strings.TrimSpace(c.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// Parse reads SRT text back into cues. Blocks that do not carry a valid
// timing line are skipped.
func Parse(srt string) []Cue {
	srt = strings.ReplaceAll(srt, "\r\n", "\n")
	var cues []Cue
	for block := range strings.SplitSeq(srt, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) == 0 {
			continue
		}
		// Index line is optional.
		if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
			lines = lines[1:]
		}
		if len(lines) == 0 {
			continue
		}

		from, to, ok := strings.Cut(lines[0], "-->")
		if !ok {
			continue
		}
		start, err := timestamp.ParseClock(from)
		if err != nil {
			continue
		}
		end, err := timestamp.ParseClock(to)
		if err != nil {
			continue
		}

		c := Cue{Start: start, End: end, Text: strings.Join(lines[1:], "\n")}
		if rest, ok := strings.CutPrefix(c.Text, "["); ok {
			if spk, text, ok := strings.Cut(rest, "] "); ok && !strings.ContainsAny(spk, " \n") {
				c.Speaker, c.Text = spk, text
			}
		}
		cues = append(cues, c)
	}
	return cues
}

// Rebase maps cues onto the timeline of the given periods concatenated in
// order. Cues are trimmed to the period they overlap. A cue spanning two
// periods appears once in each.
func Rebase(cues []Cue, periods []timestamp.Range) []Cue {
	var out []Cue
	var offset time.Duration
	for _, p := range periods {
		for _, c := range cues {
			if c.End <= p.Start || c.Start >= p.End {
				continue
			}
			s, e := max(c.Start, p.Start), min(c.End, p.End)
			out = append(out, Cue{
				Start:   s - p.Start + offset,
				End:     e - p.Start + offset,
				Text:    c.Text,
				Speaker: c.Speaker,
			})
		}
		offset += p.Duration()
	}
	return out
}
