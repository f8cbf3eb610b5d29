// Package timestamp pulls clip periods out of free-form LLM answers such as
//
//  1. [00:01-00:05] opening remarks
//  2. [00:01:10,500 --> 00:01:20] the punchline
package timestamp

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Range is a [Start, End) span on the transcript timeline.
type Range struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
}

// Duration returns End - Start.
func (r Range) Duration() time.Duration {
	return r.End - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("[%s-%s]", FormatClock(r.Start), FormatClock(r.End))
}

const clock = `(?:(\d{1,2}):)?(\d{1,2}):(\d{2})(?:[.,](\d{1,3}))?`

var rangePattern = regexp.MustCompile(clock + `\s*(?:-->|-|–|—|~|至|到)\s*` + clock)

// Extract yields every well-formed range in text, line by line, in order of
// appearance. Lines are scanned only as the caller pulls, and each range over
// the returned sequence starts again from the first line.
func Extract(text string) iter.Seq[Range] {
	return func(yield func(Range) bool) {
		for line := range strings.Lines(text) {
			for _, m := range rangePattern.FindAllStringSubmatch(line, -1) {
				start, ok := parseClock(m[1:5])
				if !ok {
					continue
				}
				end, ok := parseClock(m[5:9])
				if !ok || end <= start {
					continue
				}
				if !yield(Range{Start: start, End: end}) {
					return
				}
			}
		}
	}
}

// Collect materialises a sequence.
func Collect(seq iter.Seq[Range]) []Range {
	var out []Range
	for r := range seq {
		out = append(out, r)
	}
	return out
}

// parseClock takes the hour, minute, second and fraction groups.
func parseClock(g []string) (time.Duration, bool) {
	var h, m int
	if g[0] != "" {
		h, _ = strconv.Atoi(g[0])
	}
	m, _ = strconv.Atoi(g[1])
	s, _ := strconv.Atoi(g[2])
	if s >= 60 || (g[0] != "" && m >= 60) {
		return 0, false
	}

	ms := 0
	if g[3] != "" {
		frac := g[3] + strings.Repeat("0", 3-len(g[3]))
		ms, _ = strconv.Atoi(frac)
	}

	d := time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond
	return d, true
}

// ParseClock parses a single HH:MM:SS[,fff] or MM:SS[.fff] value.
func ParseClock(s string) (time.Duration, error) {
	m := clockOnly.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	d, ok := parseClock(m[1:5])
	if !ok {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return d, nil
}

var clockOnly = regexp.MustCompile(`^` + clock + `$`)

// FormatClock renders d as HH:MM:SS.mmm.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}
