package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/logging"
)

// DefaultWhisperBin is looked up in PATH when no binary is configured.
const DefaultWhisperBin = "whisper-cli"

// WhisperCPP transcribes audio using the whisper.cpp CLI binary.
type WhisperCPP struct {
	binaryPath string
	modelPath  string
	language   string
}

// NewWhisperCPP validates the model and locates the binary.
func NewWhisperCPP(cfg config.ASRConfig) (*WhisperCPP, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("whisper model path not configured (asr.model)")
	}
	if _, err := os.Stat(cfg.Model); err != nil {
		return nil, fmt.Errorf("whisper model not found: %s", cfg.Model)
	}

	bin := cfg.WhisperBin
	if bin == "" {
		bin = DefaultWhisperBin
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp binary not found: %w", err)
	}

	return &WhisperCPP{
		binaryPath: path,
		modelPath:  cfg.Model,
		language:   cfg.Language,
	}, nil
}

// Name returns the engine name.
func (w *WhisperCPP) Name() string {
	return "whisper.cpp"
}

func (w *WhisperCPP) args(wavPath, outputBase string, opts Options) []string {
	args := []string{
		"-m", w.modelPath,
		"-f", wavPath,
		"-oj",
		"-of", outputBase,
		"-np",
	}

	lang := opts.Language
	if lang == "" {
		lang = w.language
	}
	if lang = language(lang); lang != "" {
		args = append(args, "-l", lang)
	} else {
		args = append(args, "-l", "auto")
	}

	if hw := strings.TrimSpace(opts.Hotwords); hw != "" {
		args = append(args, "--prompt", hw)
	}
	if opts.Diarize {
		args = append(args, "-tdrz")
	}

	numThreads := min(runtime.NumCPU(), 8)
	args = append(args, "-t", strconv.Itoa(numThreads))
	return args
}

// Recognize runs whisper.cpp on wavPath and reads its JSON output.
func (w *WhisperCPP) Recognize(ctx context.Context, wavPath string, opts Options) (*Result, error) {
	tmpDir, err := os.MkdirTemp("", "vclip-whisper-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputBase := filepath.Join(tmpDir, "output")
	args := w.args(wavPath, outputBase, opts)

	log := logging.Component("asr").WithField("engine", w.Name())
	log.WithField("model", filepath.Base(w.modelPath)).Info("running whisper.cpp")

	cmd := exec.CommandContext(ctx, w.binaryPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("whisper.cpp failed: %w\n%s", err, tail(out, 2000))
	}

	data, err := os.ReadFile(outputBase + ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}

	return parseWhisperJSON(data, opts.Diarize)
}

type whisperOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text            string `json:"text"`
		SpeakerTurnNext bool   `json:"speaker_turn_next"`
	} `json:"transcription"`
}

// parseWhisperJSON converts whisper.cpp -oj output. With diarize set,
// tinydiarize turn markers switch the speaker between spk0 and spk1.
func parseWhisperJSON(data []byte, diarize bool) (*Result, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse whisper output: %w", err)
	}

	result := &Result{Language: out.Result.Language}
	speaker := 0
	for _, t := range out.Transcription {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		seg := Segment{
			Start: time.Duration(t.Offsets.From) * time.Millisecond,
			End:   time.Duration(t.Offsets.To) * time.Millisecond,
			Text:  text,
		}
		if diarize {
			seg.Speaker = fmt.Sprintf("spk%d", speaker)
			if t.SpeakerTurnNext {
				speaker = 1 - speaker
			}
		}
		result.Segments = append(result.Segments, seg)
	}

	result.Text = joinText(result.Segments)
	if n := len(result.Segments); n > 0 {
		result.Duration = result.Segments[n-1].End
	}
	return result, nil
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return strings.TrimSpace(string(b))
}
