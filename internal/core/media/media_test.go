package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/timestamp"
)

func TestKindOf(t *testing.T) {
	tests := map[string]Kind{
		"a.mp4":       KindVideo,
		"a.MKV":       KindVideo,
		"talk.mp3":    KindAudio,
		"talk.WAV":    KindAudio,
		"x.flac":      KindAudio,
		"no-ext":      KindVideo,
		"dir.d/a.m4a": KindAudio,
	}
	for in, want := range tests {
		if got := KindOf(in); got != want {
			t.Errorf("KindOf(%q) = %s, want %s", in, got, want)
		}
	}
}

// ramp writes n samples at rate whose values equal their index.
func ramp(t *testing.T, path string, n, rate int) {
	t.Helper()
	data := make([]int, n)
	for i := range data {
		data[i] = i % 30000
	}
	if err := writePCM(path, data, rate); err != nil {
		t.Fatalf("writePCM() error = %v", err)
	}
}

func TestClipWAV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")
	ramp(t, in, 16000, 16000) // one second

	spans := []timestamp.Range{
		{Start: 100 * time.Millisecond, End: 200 * time.Millisecond},
		{Start: 900 * time.Millisecond, End: 2 * time.Second}, // clamped
	}
	rate, err := ClipWAV(in, spans, out)
	if err != nil {
		t.Fatalf("ClipWAV() error = %v", err)
	}
	if rate != 16000 {
		t.Errorf("rate = %d", rate)
	}

	buf, err := readPCM(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(buf.Data) != 1600+1600 {
		t.Fatalf("samples = %d, want 3200", len(buf.Data))
	}
	if buf.Data[0] != 1600 || buf.Data[1599] != 3199 || buf.Data[1600] != 14400 {
		t.Errorf("unexpected samples %d %d %d", buf.Data[0], buf.Data[1599], buf.Data[1600])
	}

	d, err := WAVDuration(out)
	if err != nil || d != 200*time.Millisecond {
		t.Errorf("WAVDuration() = %v, %v", d, err)
	}
}

func TestClipWAVEmpty(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	ramp(t, in, 1600, 16000)

	_, err := ClipWAV(in, []timestamp.Range{{Start: 5 * time.Second, End: 6 * time.Second}}, filepath.Join(dir, "o.wav"))
	if err == nil {
		t.Error("expected error for spans past the end")
	}
}

func TestConvertToWAV16kResamples(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")
	ramp(t, in, 8000, 8000)

	if err := ConvertToWAV16k(context.Background(), in, out); err != nil {
		t.Fatalf("ConvertToWAV16k() error = %v", err)
	}

	buf, err := readPCM(out)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Format.SampleRate != SampleRate {
		t.Errorf("sample rate = %d", buf.Format.SampleRate)
	}
	if len(buf.Data) != 16000 {
		t.Errorf("samples = %d, want 16000", len(buf.Data))
	}
}

func TestResample(t *testing.T) {
	in := []float32{0, 1, 2, 3}
	out := resample(in, 8000, 16000)
	want := []float32{0, 0.5, 1, 1.5, 2, 2.5, 3, 3}
	if len(out) != len(want) {
		t.Fatalf("len = %d", len(out))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
	if got := resample(in, 16000, 16000); len(got) != 4 {
		t.Error("same rate should be a no-op")
	}
}

func TestFilterHelpers(t *testing.T) {
	if got := escapeFilterPath(`C:\clips\it's.srt`); got != `C\:\\clips\\it\'s.srt` {
		t.Errorf("escapeFilterPath() = %q", got)
	}
	if got := fmtSeconds(61500 * time.Millisecond); got != "61.500" {
		t.Errorf("fmtSeconds() = %q", got)
	}
}

func TestNewFFmpegDefaults(t *testing.T) {
	f := NewFFmpeg(config.FFmpegConfig{})
	if f.ffmpeg != "ffmpeg" || f.ffprobe != "ffprobe" {
		t.Errorf("NewFFmpeg() = %+v", f)
	}
	f = NewFFmpeg(config.FFmpegConfig{Path: "/opt/ff", ProbePath: "/opt/fp"})
	if f.ffmpeg != "/opt/ff" || f.ffprobe != "/opt/fp" {
		t.Errorf("NewFFmpeg() = %+v", f)
	}
}

func TestConcatEmpty(t *testing.T) {
	f := NewFFmpeg(config.FFmpegConfig{})
	if err := f.Concat(context.Background(), nil, filepath.Join(t.TempDir(), "o.mp4")); err == nil {
		t.Error("expected error")
	}
}

func TestSplitWAV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	ramp(t, in, 160000, 16000) // ten seconds

	opens := 0
	openWAV = func(name string) (*os.File, error) {
		opens++
		return os.Open(name)
	}
	t.Cleanup(func() { openWAV = os.Open })

	// Six seconds is more than one read buffer, so a chunk spans several reads.
	chunks, err := SplitWAV(in, 6*time.Second, dir)
	if err != nil {
		t.Fatalf("SplitWAV() error = %v", err)
	}

	if opens != 1 {
		t.Errorf("source opened %d times, want 1", opens)
	}
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	if chunks[0].End != 6*time.Second || chunks[1].Start != 6*time.Second || chunks[1].End != 10*time.Second {
		t.Errorf("chunks = %+v", chunks)
	}

	first, err := readPCM(chunks[0].Path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := readPCM(chunks[1].Path)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Data) != 96000 || len(second.Data) != 64000 {
		t.Fatalf("samples = %d, %d", len(first.Data), len(second.Data))
	}
	if first.Data[70000] != 70000%30000 || second.Data[0] != 96000%30000 {
		t.Errorf("samples out of order: %d %d", first.Data[70000], second.Data[0])
	}
}

func TestSplitWAVExactMultiple(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	ramp(t, in, 32000, 16000)

	chunks, err := SplitWAV(in, time.Second, dir)
	if err != nil {
		t.Fatalf("SplitWAV() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	if _, err := os.Stat(filepath.Join(dir, "chunk_003.wav")); !os.IsNotExist(err) {
		t.Error("empty trailing chunk was written")
	}
}

func TestSplitWAVErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.wav")
	os.WriteFile(bad, []byte("nope"), 0644)

	if _, err := SplitWAV(bad, time.Second, dir); err == nil {
		t.Error("expected error for invalid WAV")
	}
	if _, err := SplitWAV(bad, 0, dir); err == nil {
		t.Error("expected error for zero duration")
	}
}
