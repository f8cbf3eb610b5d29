package clipper

import (
	"slices"
	"testing"

	"github.com/guiyumin/vclip/internal/core/asr"
	"github.com/guiyumin/vclip/internal/core/timestamp"
)

func TestByTextEnglish(t *testing.T) {
	segs := []asr.Segment{
		{Start: 0, End: sec(2), Text: "Hello, World!"},
		{Start: sec(2), End: sec(4), Text: "hello again"},
	}

	got := byText(segs, "hello")
	// "helloworld" is 10 runes over 2s, "helloagain" 10 runes over 2s.
	want := []timestamp.Range{{Start: 0, End: sec(1)}, {Start: sec(2), End: sec(3)}}
	if !slices.Equal(got, want) {
		t.Errorf("byText() = %v, want %v", got, want)
	}

	// Matches may span segments.
	got = byText(segs, "world hello")
	want = []timestamp.Range{{Start: sec(1), End: sec(3)}}
	if !slices.Equal(got, want) {
		t.Errorf("byText(span) = %v, want %v", got, want)
	}

	if got := byText(segs, " # ,,, "); len(got) != 0 {
		t.Errorf("byText(blank) = %v", got)
	}
}

func TestBySpeaker(t *testing.T) {
	got := bySpeaker(chineseSegments, "spk1")
	want := []timestamp.Range{{Start: sec(3), End: sec(8)}}
	if !slices.Equal(got, want) {
		t.Errorf("bySpeaker(spk1) = %v, want %v", got, want)
	}

	got = bySpeaker(chineseSegments, "spk0#spk1")
	want = []timestamp.Range{{Start: 0, End: sec(10)}}
	if !slices.Equal(got, want) {
		t.Errorf("bySpeaker(both) = %v, want %v", got, want)
	}
}

func TestMergeSorted(t *testing.T) {
	in := []timestamp.Range{
		{Start: sec(5), End: sec(6)},
		{Start: sec(1), End: sec(3)},
		{Start: sec(2), End: sec(4)},
	}
	want := []timestamp.Range{{Start: sec(1), End: sec(4)}, {Start: sec(5), End: sec(6)}}
	if got := mergeSorted(in); !slices.Equal(got, want) {
		t.Errorf("mergeSorted() = %v, want %v", got, want)
	}
}

func TestApplyOffsets(t *testing.T) {
	in := []timestamp.Range{
		{Start: ms(200), End: sec(1)},
		{Start: ms(9800), End: sec(10)},
		{Start: sec(5), End: ms(5300)},
	}

	got := applyOffsets(in, -ms(500), sec(1), sec(10))
	want := []timestamp.Range{
		{Start: 0, End: sec(2)},
		{Start: ms(9300), End: sec(10)},
		{Start: ms(4500), End: ms(6300)},
	}
	if !slices.Equal(got, want) {
		t.Errorf("applyOffsets() = %v, want %v", got, want)
	}

	// A negative end offset can empty short periods.
	got = applyOffsets(in, 0, -ms(500), sec(10))
	want = []timestamp.Range{{Start: ms(200), End: ms(500)}}
	if !slices.Equal(got, want) {
		t.Errorf("applyOffsets(shrink) = %v, want %v", got, want)
	}
}
