package clipper

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/guiyumin/vclip/internal/core/asr"
	"github.com/guiyumin/vclip/internal/core/logging"
	"github.com/guiyumin/vclip/internal/core/media"
	"github.com/guiyumin/vclip/internal/core/timestamp"
)

func init() {
	logging.SetOutput(io.Discard)
}

func sec(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// writeSilence writes a mono 16 kHz WAV of length d.
func writeSilence(t *testing.T, path string, d time.Duration) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	n := int(d * 16000 / time.Second)
	enc := wav.NewEncoder(f, 16000, 16, 1, 1)
	buf := &audio.IntBuffer{Data: make([]int, n), Format: &audio.Format{SampleRate: 16000, NumChannels: 1}, SourceBitDepth: 16}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

type fakeRecognizer struct {
	result *asr.Result
	err    error
	opts   asr.Options
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Recognize(ctx context.Context, wavPath string, opts asr.Options) (*asr.Result, error) {
	f.opts = opts
	return f.result, f.err
}

type renderCall struct {
	Range timestamp.Range
	Out   string
	Burn  *media.Burn
}

type fakeVideo struct {
	t        *testing.T
	duration time.Duration
	renders  []renderCall
	concats  [][]string
}

func (f *fakeVideo) ExtractAudio(ctx context.Context, in, outWav string) error {
	writeSilence(f.t, outWav, f.duration)
	return nil
}

func (f *fakeVideo) RenderClip(ctx context.Context, in string, r timestamp.Range, out string, burn *media.Burn) error {
	f.renders = append(f.renders, renderCall{Range: r, Out: out, Burn: burn})
	return os.WriteFile(out, []byte("mp4"), 0644)
}

func (f *fakeVideo) Concat(ctx context.Context, parts []string, out string) error {
	f.concats = append(f.concats, parts)
	return os.WriteFile(out, []byte("mp4"), 0644)
}

var chineseSegments = []asr.Segment{
	{Start: 0, End: sec(3), Text: "今天天气很好", Speaker: "spk0"},
	{Start: sec(3), End: sec(6), Text: "我们去公园吧", Speaker: "spk1"},
	{Start: sec(6), End: sec(8), Text: "好的", Speaker: "spk1"},
	{Start: sec(8), End: sec(10), Text: "走吧", Speaker: "spk0"},
}

func newState(t *testing.T, kind media.Kind) *State {
	t.Helper()
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "talk_16k.wav")
	writeSilence(t, wavPath, sec(10))
	return &State{
		Kind:     kind,
		Source:   filepath.Join(dir, "talk.mp4"),
		WAV:      wavPath,
		Dir:      dir,
		Duration: sec(10),
		Segments: chineseSegments,
	}
}

func TestRecognize(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "talk.mp4")
	os.WriteFile(src, []byte("video"), 0644)
	outDir := filepath.Join(dir, "out")

	rec := &fakeRecognizer{result: &asr.Result{Text: "今天天气很好 我们去公园吧", Segments: chineseSegments[:2], Language: "zh"}}
	video := &fakeVideo{t: t, duration: sec(6)}
	c := New(rec, video, dir)

	st, err := c.Recognize(context.Background(), src, RecognizeOptions{Hotwords: "公园", Diarize: true, OutputDir: "  " + outDir + "  "})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}

	if st.Kind != media.KindVideo || st.Duration != sec(6) {
		t.Errorf("state = %+v", st)
	}
	if rec.opts.Hotwords != "公园" || !rec.opts.Diarize {
		t.Errorf("recognizer options = %+v", rec.opts)
	}
	if !strings.Contains(st.SRT, "00:00:03,000 --> 00:00:06,000\n[spk1] 我们去公园吧") {
		t.Errorf("SRT = %q", st.SRT)
	}

	srt, err := os.ReadFile(filepath.Join(outDir, "talk.srt"))
	if err != nil || string(srt) != st.SRT {
		t.Errorf("srt file = %q, %v", srt, err)
	}

	loaded, err := LoadState(StatePath(outDir, src))
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if loaded.WAV != st.WAV || len(loaded.Segments) != 2 || loaded.Segments[1].Speaker != "spk1" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestRecognizeWithoutOutputDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "talk.mp3")
	os.WriteFile(src, []byte("audio"), 0644)

	rec := &fakeRecognizer{result: &asr.Result{Text: "hi", Segments: []asr.Segment{{End: sec(1), Text: "hi"}}}}
	c := New(rec, &fakeVideo{t: t, duration: sec(1)}, dir)

	st, err := c.Recognize(context.Background(), src, RecognizeOptions{OutputDir: "   "})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if st.Kind != media.KindAudio {
		t.Errorf("Kind = %s", st.Kind)
	}
	if _, err := os.Stat(filepath.Join(dir, "talk.srt")); err == nil {
		t.Error("SRT should not be written without an output directory")
	}
	if !strings.HasPrefix(st.Dir, dir) {
		t.Errorf("work dir %q not under %q", st.Dir, dir)
	}
}

func TestRecognizeErrors(t *testing.T) {
	dir := t.TempDir()
	c := New(&fakeRecognizer{err: errors.New("model crashed")}, &fakeVideo{t: t, duration: sec(1)}, dir)

	if _, err := c.Recognize(context.Background(), filepath.Join(dir, "missing.mp4"), RecognizeOptions{}); err == nil {
		t.Error("expected error for missing media")
	}

	src := filepath.Join(dir, "a.mp4")
	os.WriteFile(src, []byte("v"), 0644)
	_, err := c.Recognize(context.Background(), src, RecognizeOptions{})
	if err == nil || !strings.Contains(err.Error(), "model crashed") {
		t.Errorf("Recognize() error = %v", err)
	}
}

func TestClipNilState(t *testing.T) {
	c := New(&fakeRecognizer{}, &fakeVideo{t: t}, t.TempDir())
	_, err := c.Clip(context.Background(), nil, ClipRequest{Text: "x"})
	if !errors.Is(err, ErrNoRecognitionState) {
		t.Errorf("Clip(nil) error = %v, want ErrNoRecognitionState", err)
	}
}

func TestClipVideoByText(t *testing.T) {
	st := newState(t, media.KindVideo)
	video := &fakeVideo{t: t}
	c := New(&fakeRecognizer{}, video, t.TempDir())

	res, err := c.Clip(context.Background(), st, ClipRequest{Text: "天气很好#公园", EndOffset: 100})
	if err != nil {
		t.Fatalf("Clip() error = %v", err)
	}

	want := []timestamp.Range{{Start: sec(1), End: ms(3100)}, {Start: ms(4500), End: ms(5600)}}
	if !slices.Equal(res.Periods, want) {
		t.Errorf("Periods = %v, want %v", res.Periods, want)
	}
	if len(video.renders) != 2 || len(video.concats) != 1 {
		t.Fatalf("renders = %d, concats = %d", len(video.renders), len(video.concats))
	}
	if video.renders[0].Burn != nil {
		t.Error("no subtitles requested")
	}
	if res.Output != filepath.Join(st.Dir, "talk_clip.mp4") || len(res.Segments) != 2 {
		t.Errorf("Output = %q, Segments = %v", res.Output, res.Segments)
	}
	if !strings.HasPrefix(res.Message, "2 periods found") {
		t.Errorf("Message = %q", res.Message)
	}
	// Clip timeline: 0-2.1s from the first period, then 2.1-3.2s.
	if !strings.Contains(res.SRT, "00:00:00,000 --> 00:00:02,000\n[spk0] 今天天气很好") ||
		!strings.Contains(res.SRT, "00:00:02,100 --> 00:00:03,200\n[spk1] 我们去公园吧") {
		t.Errorf("SRT = %q", res.SRT)
	}
	if _, err := os.Stat(filepath.Join(st.Dir, "talk_clip.srt")); err != nil {
		t.Errorf("clip SRT not written: %v", err)
	}
}

func TestClipSingleSegmentSkipsConcat(t *testing.T) {
	st := newState(t, media.KindVideo)
	video := &fakeVideo{t: t}
	c := New(&fakeRecognizer{}, video, t.TempDir())

	res, err := c.Clip(context.Background(), st, ClipRequest{Text: "走吧"})
	if err != nil {
		t.Fatal(err)
	}
	if len(video.concats) != 0 || res.Output != res.Segments[0] {
		t.Errorf("concats = %d, output = %q", len(video.concats), res.Output)
	}
}

func TestClipWithSubtitles(t *testing.T) {
	st := newState(t, media.KindVideo)
	video := &fakeVideo{t: t}
	c := New(&fakeRecognizer{}, video, t.TempDir())

	_, err := c.Clip(context.Background(), st, ClipRequest{Speakers: "spk1", Subtitles: true, FontSize: 32, FontColor: "green"})
	if err != nil {
		t.Fatalf("Clip() error = %v", err)
	}
	if len(video.renders) != 1 {
		t.Fatalf("renders = %d", len(video.renders))
	}
	burn := video.renders[0].Burn
	if burn == nil || burn.ForceStyle != "FontSize=32,PrimaryColour=&H0000FF00" {
		t.Fatalf("burn = %+v", burn)
	}
	body, err := os.ReadFile(burn.SRTPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(body), "1\n00:00:00,000 --> 00:00:03,000\n[spk1] 我们去公园吧") {
		t.Errorf("segment SRT = %q", body)
	}

	_, err = c.Clip(context.Background(), st, ClipRequest{Speakers: "spk1", Subtitles: true, FontColor: "pink"})
	if err == nil {
		t.Error("expected error for unsupported colour")
	}
}

func TestClipPrecedence(t *testing.T) {
	st := newState(t, media.KindVideo)
	c := New(&fakeRecognizer{}, &fakeVideo{t: t}, t.TempDir())

	ts := []timestamp.Range{{Start: sec(7), End: sec(9)}}
	res, err := c.Clip(context.Background(), st, ClipRequest{Text: "今天", Speakers: "spk0", Timestamps: ts})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Periods, ts) {
		t.Errorf("timestamps should win, got %v", res.Periods)
	}

	res, err = c.Clip(context.Background(), st, ClipRequest{Text: "公园", Speakers: "spk0"})
	if err != nil {
		t.Fatal(err)
	}
	want := []timestamp.Range{{Start: 0, End: sec(3)}, {Start: sec(8), End: sec(10)}}
	if !slices.Equal(res.Periods, want) {
		t.Errorf("speakers should win over text, got %v", res.Periods)
	}
}

func TestClipAudio(t *testing.T) {
	st := newState(t, media.KindAudio)
	video := &fakeVideo{t: t}
	c := New(&fakeRecognizer{}, video, t.TempDir())
	out := t.TempDir()

	res, err := c.Clip(context.Background(), st, ClipRequest{Speakers: "spk1", OutputDir: out})
	if err != nil {
		t.Fatalf("Clip() error = %v", err)
	}
	if len(video.renders) != 0 {
		t.Error("audio clip must not render video")
	}
	if res.SampleRate != 16000 || res.Output != filepath.Join(out, "talk_clip.wav") {
		t.Errorf("result = %+v", res)
	}
	d, err := media.WAVDuration(res.Output)
	if err != nil || d != sec(5) {
		t.Errorf("clip duration = %v, %v", d, err)
	}
}

func TestClipNoPeriod(t *testing.T) {
	st := newState(t, media.KindVideo)
	video := &fakeVideo{t: t}
	c := New(&fakeRecognizer{}, video, t.TempDir())

	tests := []ClipRequest{
		{Text: "not in the transcript"},
		{Text: ""},
		{Speakers: "spk9"},
		{Timestamps: []timestamp.Range{{Start: sec(20), End: sec(30)}}},
	}
	for _, req := range tests {
		res, err := c.Clip(context.Background(), st, req)
		if err != nil {
			t.Fatalf("Clip(%+v) error = %v", req, err)
		}
		if !strings.HasPrefix(res.Message, "No period found") || res.Output != "" || len(res.Periods) != 0 {
			t.Errorf("Clip(%+v) = %+v", req, res)
		}
	}
	if len(video.renders) != 0 {
		t.Error("nothing should be rendered")
	}
}

func TestLoadStateRejectsEmpty(t *testing.T) {
	p := filepath.Join(t.TempDir(), "s.json")
	os.WriteFile(p, []byte(`{"text":"x"}`), 0644)
	if _, err := LoadState(p); !errors.Is(err, ErrNoRecognitionState) {
		t.Errorf("LoadState() error = %v", err)
	}
}

func TestSpeakers(t *testing.T) {
	st := &State{Segments: chineseSegments}
	if got := st.Speakers(); !slices.Equal(got, []string{"spk0", "spk1"}) {
		t.Errorf("Speakers() = %v", got)
	}
}
