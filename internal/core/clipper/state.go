package clipper

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/guiyumin/vclip/internal/core/asr"
	"github.com/guiyumin/vclip/internal/core/media"
	"github.com/guiyumin/vclip/internal/core/subtitle"
)

// State is everything a clip call needs from a recognition run.
type State struct {
	Kind     media.Kind    `json:"kind"`
	Source   string        `json:"source"`
	WAV      string        `json:"wav"`
	Dir      string        `json:"dir"`
	Duration time.Duration `json:"duration"`
	Language string        `json:"language,omitempty"`
	Hotwords string        `json:"hotwords,omitempty"`
	Diarized bool          `json:"diarized,omitempty"`

	Segments []asr.Segment `json:"segments"`
	Text     string        `json:"text"`
	SRT      string        `json:"srt"`

	CreatedAt time.Time `json:"created_at"`
}

// Cues returns the segments as subtitle cues.
func (s *State) Cues() []subtitle.Cue {
	r := asr.Result{Segments: s.Segments}
	return r.Cues()
}

// Speakers lists the distinct speaker labels in order of first appearance.
func (s *State) Speakers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, seg := range s.Segments {
		if seg.Speaker != "" && !seen[seg.Speaker] {
			seen[seg.Speaker] = true
			out = append(out, seg.Speaker)
		}
	}
	return out
}

// SaveState writes the state as indented JSON.
func SaveState(path string, st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadState reads a state written by SaveState.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state %s: %w", path, err)
	}
	if st.WAV == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoRecognitionState)
	}
	return &st, nil
}
