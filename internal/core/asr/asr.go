// Package asr runs speech recognition on 16 kHz mono WAV files.
package asr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/subtitle"
)

// ErrUnsupportedEngine is returned by New for an unknown engine name.
var ErrUnsupportedEngine = errors.New("unsupported ASR engine")

// Segment represents a timestamped portion of transcript.
type Segment struct {
	Start   time.Duration `json:"start"`
	End     time.Duration `json:"end"`
	Text    string        `json:"text"`
	Speaker string        `json:"speaker,omitempty"`
}

// Result contains the recognition output.
type Result struct {
	Text     string        `json:"text"`
	Segments []Segment     `json:"segments"`
	Language string        `json:"language,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Cues converts segments to subtitle cues.
func (r *Result) Cues() []subtitle.Cue {
	cues := make([]subtitle.Cue, 0, len(r.Segments))
	for _, s := range r.Segments {
		cues = append(cues, subtitle.Cue{Start: s.Start, End: s.End, Text: s.Text, Speaker: s.Speaker})
	}
	return cues
}

// Options tune a single recognition call.
type Options struct {
	// Hotwords bias recognition towards names and jargon, space separated.
	Hotwords string

	// Language hint, empty or "auto" to detect.
	Language string

	// Diarize asks for speaker labels where the engine supports it.
	Diarize bool
}

// Recognizer converts a WAV file to timestamped text.
type Recognizer interface {
	Recognize(ctx context.Context, wavPath string, opts Options) (*Result, error)

	// Name returns the engine name.
	Name() string
}

// New creates the engine selected in cfg. apiKey is only used by the
// openai engine.
func New(cfg config.ASRConfig, apiKey string) (Recognizer, error) {
	switch cfg.Engine {
	case "", "openai":
		return NewOpenAI(cfg, apiKey)
	case "whispercpp":
		return NewWhisperCPP(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, cfg.Engine)
	}
}

func joinText(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func language(lang string) string {
	if lang == "auto" {
		return ""
	}
	return lang
}
