package clipper

import (
	"cmp"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/guiyumin/vclip/internal/core/asr"
	"github.com/guiyumin/vclip/internal/core/timestamp"
)

// splitTargets splits a '#'-joined selection and drops blanks.
func splitTargets(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, "#") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func normalize(s string) []rune {
	var out []rune
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, unicode.ToLower(r))
		}
	}
	return out
}

// timeline is the transcript flattened to normalised runes, each with an
// interpolated [start, end) inside its segment.
type timeline struct {
	runes  []rune
	starts []time.Duration
	ends   []time.Duration
}

func newTimeline(segs []asr.Segment) *timeline {
	tl := &timeline{}
	for _, s := range segs {
		rs := normalize(s.Text)
		if len(rs) == 0 {
			continue
		}
		step := (s.End - s.Start) / time.Duration(len(rs))
		for i, r := range rs {
			tl.runes = append(tl.runes, r)
			start := s.Start + time.Duration(i)*step
			end := start + step
			if i == len(rs)-1 {
				end = s.End
			}
			tl.starts = append(tl.starts, start)
			tl.ends = append(tl.ends, end)
		}
	}
	return tl
}

// find returns a period for every non-overlapping occurrence of target.
func (tl *timeline) find(target string) []timestamp.Range {
	needle := normalize(target)
	if len(needle) == 0 {
		return nil
	}
	var out []timestamp.Range
	for i := 0; i+len(needle) <= len(tl.runes); {
		if slices.Equal(tl.runes[i:i+len(needle)], needle) {
			out = append(out, timestamp.Range{Start: tl.starts[i], End: tl.ends[i+len(needle)-1]})
			i += len(needle)
			continue
		}
		i++
	}
	return out
}

// byText locates each '#'-separated sentence in the transcript.
func byText(segs []asr.Segment, text string) []timestamp.Range {
	tl := newTimeline(segs)
	var out []timestamp.Range
	for _, t := range splitTargets(text) {
		out = append(out, tl.find(t)...)
	}
	return mergeSorted(out)
}

// bySpeaker selects every segment spoken by one of the '#'-separated labels.
// Runs of consecutive selected segments become one period.
func bySpeaker(segs []asr.Segment, speakers string) []timestamp.Range {
	want := make(map[string]bool)
	for _, s := range splitTargets(speakers) {
		want[s] = true
	}

	var out []timestamp.Range
	prev := -2
	for i, s := range segs {
		if !want[s.Speaker] {
			continue
		}
		if prev == i-1 && len(out) > 0 {
			out[len(out)-1].End = s.End
		} else {
			out = append(out, timestamp.Range{Start: s.Start, End: s.End})
		}
		prev = i
	}
	return mergeSorted(out)
}

// mergeSorted orders periods by start and merges overlapping ones.
func mergeSorted(periods []timestamp.Range) []timestamp.Range {
	if len(periods) < 2 {
		return periods
	}
	slices.SortFunc(periods, func(a, b timestamp.Range) int {
		return cmp.Compare(a.Start, b.Start)
	})
	out := periods[:1]
	for _, p := range periods[1:] {
		last := &out[len(out)-1]
		if p.Start <= last.End {
			last.End = max(last.End, p.End)
			continue
		}
		out = append(out, p)
	}
	return out
}

// applyOffsets shifts every period, clamps it to [0, total] and drops the
// ones left empty. A zero total disables the upper clamp.
func applyOffsets(periods []timestamp.Range, startOffset, endOffset, total time.Duration) []timestamp.Range {
	var out []timestamp.Range
	for _, p := range periods {
		s := max(p.Start+startOffset, 0)
		e := max(p.End+endOffset, 0)
		if total > 0 {
			s, e = min(s, total), min(e, total)
		}
		if e > s {
			out = append(out, timestamp.Range{Start: s, End: e})
		}
	}
	return out
}
