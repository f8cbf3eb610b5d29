// Package clipper turns recognition results into video and audio clips.
// Periods come from matched text, speaker labels or explicit timestamps.
package clipper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/guiyumin/vclip/internal/core/asr"
	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/logging"
	"github.com/guiyumin/vclip/internal/core/media"
	"github.com/guiyumin/vclip/internal/core/subtitle"
	"github.com/guiyumin/vclip/internal/core/timestamp"
)

// ErrNoRecognitionState is returned by Clip when nothing was recognized yet.
var ErrNoRecognitionState = errors.New("no recognition state available")

// VideoTool is the ffmpeg surface the clipper needs.
type VideoTool interface {
	ExtractAudio(ctx context.Context, in, outWav string) error
	RenderClip(ctx context.Context, in string, r timestamp.Range, out string, burn *media.Burn) error
	Concat(ctx context.Context, parts []string, out string) error
}

// Clipper runs recognition and clipping.
type Clipper struct {
	recognizer asr.Recognizer
	video      VideoTool
	workDir    string
	fontName   string
}

// New returns a Clipper. Artifacts of calls without an output directory
// land under workDir (the system temp dir when empty).
func New(recognizer asr.Recognizer, video VideoTool, workDir string) *Clipper {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Clipper{recognizer: recognizer, video: video, workDir: workDir}
}

// SetFontName sets the font used for burnt-in subtitles.
func (c *Clipper) SetFontName(name string) {
	c.fontName = name
}

// RecognizeOptions tune Recognize.
type RecognizeOptions struct {
	Hotwords  string
	Language  string
	Diarize   bool
	OutputDir string
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Recognize converts mediaPath to a 16 kHz WAV, transcribes it and renders
// the SRT. With an output directory the SRT and the state JSON are saved
// there too.
func (c *Clipper) Recognize(ctx context.Context, mediaPath string, opts RecognizeOptions) (*State, error) {
	src, err := filepath.Abs(mediaPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("media not found: %w", err)
	}

	outDir := config.NormalizeOutputDir(opts.OutputDir)
	dir := outDir
	if dir == "" {
		if dir, err = os.MkdirTemp(c.workDir, "vclip-*"); err != nil {
			return nil, fmt.Errorf("failed to create work directory: %w", err)
		}
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	log := logging.Component("clipper").WithField("media", filepath.Base(src))
	kind := media.KindOf(src)

	wav := filepath.Join(dir, stem(src)+"_16k.wav")
	log.WithField("kind", kind).Info("extracting audio")
	if err := c.video.ExtractAudio(ctx, src, wav); err != nil {
		return nil, fmt.Errorf("failed to extract audio: %w", err)
	}

	log.WithField("engine", c.recognizer.Name()).Info("recognizing speech")
	start := time.Now()
	res, err := c.recognizer.Recognize(ctx, wav, asr.Options{
		Hotwords: opts.Hotwords,
		Language: opts.Language,
		Diarize:  opts.Diarize,
	})
	if err != nil {
		return nil, fmt.Errorf("recognition failed: %w", err)
	}

	duration, err := media.WAVDuration(wav)
	if err != nil {
		duration = res.Duration
	}

	st := &State{
		Kind:      kind,
		Source:    src,
		WAV:       wav,
		Dir:       dir,
		Duration:  duration,
		Language:  res.Language,
		Hotwords:  opts.Hotwords,
		Diarized:  opts.Diarize,
		Segments:  res.Segments,
		Text:      res.Text,
		SRT:       subtitle.SRT(res.Cues()),
		CreatedAt: time.Now(),
	}

	log.WithField("segments", len(st.Segments)).
		WithField("elapsed", time.Since(start).Round(time.Millisecond)).
		Info("recognition done")

	if outDir != "" {
		if err := os.WriteFile(filepath.Join(outDir, stem(src)+".srt"), []byte(st.SRT), 0644); err != nil {
			return nil, fmt.Errorf("failed to write SRT: %w", err)
		}
		if err := SaveState(StatePath(outDir, src), st); err != nil {
			return nil, err
		}
	}

	return st, nil
}

// StatePath is where Recognize saves the state for src in dir.
func StatePath(dir, src string) string {
	return filepath.Join(dir, stem(src)+".state.json")
}

// ClipRequest selects what to cut. Timestamps win over Speakers, which win
// over Text.
type ClipRequest struct {
	// Text holds '#'-separated sentences to find in the transcript.
	Text string

	// Speakers holds '#'-separated labels such as "spk0#spk1".
	Speakers string

	// Offsets in milliseconds, added to every period start and end.
	StartOffset int
	EndOffset   int

	// Timestamps come from an LLM answer.
	Timestamps []timestamp.Range

	Subtitles bool
	FontSize  int
	FontColor string

	OutputDir string
}

// ClipResult is what a clip call produced. Media fields are empty when no
// period was found.
type ClipResult struct {
	Periods    []timestamp.Range `json:"periods"`
	Segments   []string          `json:"segments,omitempty"`
	Output     string            `json:"output,omitempty"`
	SampleRate int               `json:"sample_rate,omitempty"`
	Message    string            `json:"message"`
	SRT        string            `json:"srt"`
}

func (c *Clipper) periods(st *State, req ClipRequest) ([]timestamp.Range, string) {
	switch {
	case len(req.Timestamps) > 0:
		return req.Timestamps, "timestamps"
	case strings.TrimSpace(req.Speakers) != "":
		return bySpeaker(st.Segments, req.Speakers), "speaker " + req.Speakers
	default:
		return byText(st.Segments, req.Text), "text " + req.Text
	}
}

// Clip cuts the selected periods out of the recognized media.
func (c *Clipper) Clip(ctx context.Context, st *State, req ClipRequest) (*ClipResult, error) {
	if st == nil {
		return nil, ErrNoRecognitionState
	}

	raw, by := c.periods(st, req)
	periods := applyOffsets(raw,
		time.Duration(req.StartOffset)*time.Millisecond,
		time.Duration(req.EndOffset)*time.Millisecond,
		st.Duration)

	log := logging.Component("clipper").WithField("media", filepath.Base(st.Source)).WithField("by", by)
	if len(periods) == 0 {
		log.Warn("no period found")
		return &ClipResult{Message: noPeriodMessage(req)}, nil
	}

	dir := config.NormalizeOutputDir(req.OutputDir)
	if dir == "" {
		dir = st.Dir
	}
	if dir == "" {
		dir = filepath.Dir(st.WAV)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	cues := st.Cues()
	res := &ClipResult{
		Periods: periods,
		SRT:     subtitle.SRT(subtitle.Rebase(cues, periods)),
		Message: periodsMessage(periods),
	}
	base := filepath.Join(dir, stem(st.Source)+"_clip")

	var err error
	if st.Kind == media.KindAudio {
		res.Output = base + ".wav"
		res.SampleRate, err = media.ClipWAV(st.WAV, periods, res.Output)
	} else {
		res.Segments, res.Output, err = c.clipVideo(ctx, st, req, cues, periods, base)
	}
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(base+".srt", []byte(res.SRT), 0644); err != nil {
		return nil, fmt.Errorf("failed to write clip SRT: %w", err)
	}

	log.WithField("periods", len(periods)).WithField("output", res.Output).Info("clip done")
	return res, nil
}

func (c *Clipper) clipVideo(ctx context.Context, st *State, req ClipRequest, cues []subtitle.Cue, periods []timestamp.Range, base string) ([]string, string, error) {
	var forceStyle string
	if req.Subtitles {
		style := subtitle.Style{FontSize: req.FontSize, FontColor: req.FontColor, FontName: c.fontName}
		fs, err := style.ForceStyle()
		if err != nil {
			return nil, "", err
		}
		forceStyle = fs
	}

	parts := make([]string, 0, len(periods))
	for i, p := range periods {
		part := fmt.Sprintf("%s_%02d.mp4", base, i+1)

		var burn *media.Burn
		if req.Subtitles {
			srt := fmt.Sprintf("%s_%02d.srt", base, i+1)
			body := subtitle.SRT(subtitle.Rebase(cues, []timestamp.Range{p}))
			if err := os.WriteFile(srt, []byte(body), 0644); err != nil {
				return nil, "", fmt.Errorf("failed to write segment SRT: %w", err)
			}
			burn = &media.Burn{SRTPath: srt, ForceStyle: forceStyle}
		}

		if err := c.video.RenderClip(ctx, st.Source, p, part, burn); err != nil {
			return nil, "", fmt.Errorf("segment %d: %w", i+1, err)
		}
		parts = append(parts, part)
	}

	if len(parts) == 1 {
		return parts, parts[0], nil
	}

	out := base + ".mp4"
	if err := c.video.Concat(ctx, parts, out); err != nil {
		return nil, "", err
	}
	return parts, out, nil
}

func periodsMessage(periods []timestamp.Range) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d periods found in the speech:", len(periods))
	for i, p := range periods {
		fmt.Fprintf(&b, "\n%d. %s (%.2fs)", i+1, p, p.Duration().Seconds())
	}
	return b.String()
}

func noPeriodMessage(req ClipRequest) string {
	switch {
	case len(req.Timestamps) > 0:
		return "No period found: every timestamp fell outside the media."
	case strings.TrimSpace(req.Speakers) != "":
		return fmt.Sprintf("No period found in the speech for speakers %q.", req.Speakers)
	case strings.TrimSpace(req.Text) == "":
		return "No period found: enter the text to clip, a speaker, or run LLM inference first."
	default:
		return fmt.Sprintf("No period found in the speech for text %q.", req.Text)
	}
}
