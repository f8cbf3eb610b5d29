package asr

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/logging"
)

func init() {
	logging.SetOutput(io.Discard)
}

const sampleJSON = `{
  "result": {"language": "en"},
  "transcription": [
    {"offsets": {"from": 0, "to": 1500}, "text": " Hello there", "speaker_turn_next": true},
    {"offsets": {"from": 1500, "to": 3000}, "text": " Hi", "speaker_turn_next": false},
    {"offsets": {"from": 3000, "to": 3200}, "text": "  "},
    {"offsets": {"from": 3200, "to": 5000}, "text": " How are you", "speaker_turn_next": true},
    {"offsets": {"from": 5000, "to": 6000}, "text": " Fine"}
  ]
}`

func TestParseWhisperJSON(t *testing.T) {
	res, err := parseWhisperJSON([]byte(sampleJSON), false)
	if err != nil {
		t.Fatalf("parseWhisperJSON() error = %v", err)
	}

	if res.Language != "en" {
		t.Errorf("Language = %q", res.Language)
	}
	if res.Text != "Hello there Hi How are you Fine" {
		t.Errorf("Text = %q", res.Text)
	}
	if len(res.Segments) != 4 {
		t.Fatalf("segments = %d, want 4", len(res.Segments))
	}
	if res.Segments[1].Start != 1500*time.Millisecond || res.Segments[1].End != 3*time.Second {
		t.Errorf("segment 1 = %+v", res.Segments[1])
	}
	if res.Duration != 6*time.Second {
		t.Errorf("Duration = %v", res.Duration)
	}
	for _, s := range res.Segments {
		if s.Speaker != "" {
			t.Errorf("unexpected speaker %q without diarization", s.Speaker)
		}
	}
}

func TestParseWhisperJSONDiarize(t *testing.T) {
	res, err := parseWhisperJSON([]byte(sampleJSON), true)
	if err != nil {
		t.Fatalf("parseWhisperJSON() error = %v", err)
	}

	var got []string
	for _, s := range res.Segments {
		got = append(got, s.Speaker)
	}
	want := []string{"spk0", "spk1", "spk1", "spk0"}
	if !slices.Equal(got, want) {
		t.Errorf("speakers = %v, want %v", got, want)
	}
}

func TestParseWhisperJSONInvalid(t *testing.T) {
	if _, err := parseWhisperJSON([]byte("not json"), false); err == nil {
		t.Error("expected error")
	}
}

func TestWhisperArgs(t *testing.T) {
	w := &WhisperCPP{binaryPath: "whisper-cli", modelPath: "/m/ggml-base.bin", language: "auto"}

	args := strings.Join(w.args("/a.wav", "/tmp/out", Options{Hotwords: " 达摩院 魔搭 ", Diarize: true}), " ")
	for _, want := range []string{"-m /m/ggml-base.bin", "-f /a.wav", "-oj", "-of /tmp/out", "-l auto", "--prompt 达摩院 魔搭", "-tdrz"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}

	args = strings.Join(w.args("/a.wav", "/tmp/out", Options{Language: "zh"}), " ")
	if !strings.Contains(args, "-l zh") || strings.Contains(args, "-tdrz") || strings.Contains(args, "--prompt") {
		t.Errorf("args = %q", args)
	}
}

func TestNew(t *testing.T) {
	_, err := New(config.ASRConfig{Engine: "kaldi"}, "")
	if !errors.Is(err, ErrUnsupportedEngine) {
		t.Errorf("New(kaldi) error = %v, want ErrUnsupportedEngine", err)
	}

	_, err = New(config.ASRConfig{Engine: "openai"}, "")
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Errorf("New(openai) without key error = %v", err)
	}

	_, err = New(config.ASRConfig{Engine: "whispercpp", Model: filepath.Join(t.TempDir(), "missing.bin")}, "")
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Errorf("New(whispercpp) error = %v", err)
	}

	r, err := New(config.ASRConfig{}, "sk")
	if err != nil || r.Name() != "openai" {
		t.Errorf("New(default) = %v, %v", r, err)
	}
}

func TestWhisperCPPRecognize(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in for whisper-cli")
	}

	dir := t.TempDir()
	model := filepath.Join(dir, "ggml-tiny.bin")
	os.WriteFile(model, []byte("model"), 0644)

	// Writes a fixed transcript to the -of prefix.
	script := `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-of" ]; then out="$2"; fi
  shift
done
cat > "$out.json" <<'JSON'
{"result":{"language":"zh"},"transcription":[{"offsets":{"from":0,"to":2000},"text":" 你好"}]}
JSON
`
	bin := filepath.Join(dir, "whisper-cli")
	if err := os.WriteFile(bin, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	w, err := NewWhisperCPP(config.ASRConfig{Model: model, WhisperBin: bin})
	if err != nil {
		t.Fatalf("NewWhisperCPP() error = %v", err)
	}

	res, err := w.Recognize(context.Background(), filepath.Join(dir, "in.wav"), Options{})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if res.Text != "你好" || res.Language != "zh" || res.Duration != 2*time.Second {
		t.Errorf("Recognize() = %+v", res)
	}
}

func TestOpenAIRecognize(t *testing.T) {
	var gotPrompt, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			http.NotFound(w, r)
			return
		}
		r.ParseMultipartForm(1 << 20)
		gotPrompt = r.FormValue("prompt")
		gotFormat = r.FormValue("response_format")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"task":"transcribe","language":"english","duration":4.0,"text":"hello world",
			"segments":[{"id":0,"start":0.0,"end":1.5,"text":" hello"},{"id":1,"start":1.5,"end":4.0,"text":" world"}]}`)
	}))
	defer srv.Close()

	wav := filepath.Join(t.TempDir(), "a.wav")
	os.WriteFile(wav, []byte("RIFF"), 0644)

	o, err := NewOpenAI(config.ASRConfig{BaseURL: srv.URL + "/v1"}, "sk")
	if err != nil {
		t.Fatal(err)
	}

	res, err := o.Recognize(context.Background(), wav, Options{Hotwords: "vclip", Diarize: true})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}

	if gotPrompt != "vclip" || gotFormat != "verbose_json" {
		t.Errorf("prompt = %q, format = %q", gotPrompt, gotFormat)
	}
	if res.Text != "hello world" || res.Duration != 4*time.Second {
		t.Errorf("Recognize() = %+v", res)
	}
	want := []Segment{
		{Start: 0, End: 1500 * time.Millisecond, Text: "hello"},
		{Start: 1500 * time.Millisecond, End: 4 * time.Second, Text: "world"},
	}
	if !slices.Equal(res.Segments, want) {
		t.Errorf("Segments = %+v", res.Segments)
	}
}

func TestCues(t *testing.T) {
	r := &Result{Segments: []Segment{{Start: 0, End: time.Second, Text: "a", Speaker: "spk0"}}}
	cues := r.Cues()
	if len(cues) != 1 || cues[0].Speaker != "spk0" || cues[0].Text != "a" {
		t.Errorf("Cues() = %+v", cues)
	}
}
