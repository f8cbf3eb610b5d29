package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/logging"
	"github.com/guiyumin/vclip/internal/core/timestamp"
)

// FFmpeg runs the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	ffmpeg  string
	ffprobe string
}

// NewFFmpeg uses the configured paths, falling back to PATH lookups.
func NewFFmpeg(cfg config.FFmpegConfig) *FFmpeg {
	f := &FFmpeg{ffmpeg: cfg.Path, ffprobe: cfg.ProbePath}
	if f.ffmpeg == "" {
		f.ffmpeg = "ffmpeg"
	}
	if f.ffprobe == "" {
		f.ffprobe = "ffprobe"
	}
	return f
}

// Available checks if ffmpeg can be executed.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.ffmpeg)
	return err == nil
}

func (f *FFmpeg) run(ctx context.Context, what string, args ...string) error {
	log := logging.Component("ffmpeg")
	log.Debugf("command: %s %s", f.ffmpeg, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, f.ffmpeg, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		log.WithError(err).Errorf("%s failed", what)
		return fmt.Errorf("ffmpeg %s: %w\n%s", what, err, tailLines(out, 20))
	}
	return nil
}

// ExtractAudio writes a mono 16 kHz WAV. Without an ffmpeg binary it
// decodes in Go, or through the embedded WASM ffmpeg for other formats.
func (f *FFmpeg) ExtractAudio(ctx context.Context, in, outWav string) error {
	if !f.Available() {
		logging.Component("ffmpeg").Warn("ffmpeg not found in PATH, using built-in decoder")
		return ConvertToWAV16k(ctx, in, outWav)
	}
	return f.run(ctx, "extract audio",
		"-y",
		"-i", in,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(SampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		outWav,
	)
}

// Probe returns the container duration.
func (f *FFmpeg) Probe(ctx context.Context, in string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, f.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// Burn describes subtitles to render into a clip.
type Burn struct {
	SRTPath    string
	ForceStyle string
}

// RenderClip re-encodes the [r.Start, r.End) span of in to out. When burn
// is set, its SRT (timed relative to the clip) is drawn on the frames.
func (f *FFmpeg) RenderClip(ctx context.Context, in string, r timestamp.Range, out string, burn *Burn) error {
	args := []string{
		"-y",
		"-ss", fmtSeconds(r.Start),
		"-to", fmtSeconds(r.End),
		"-i", in,
	}
	if burn != nil && burn.SRTPath != "" {
		filter := "subtitles=" + escapeFilterPath(burn.SRTPath)
		if burn.ForceStyle != "" {
			filter += ":force_style='" + burn.ForceStyle + "'"
		}
		args = append(args, "-vf", filter)
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "192k",
		out,
	)
	return f.run(ctx, "render clip", args...)
}

// Concat joins clips rendered with identical codecs without re-encoding.
func (f *FFmpeg) Concat(ctx context.Context, parts []string, out string) error {
	if len(parts) == 0 {
		return fmt.Errorf("nothing to concatenate")
	}

	list, err := os.CreateTemp(filepath.Dir(out), ".concat-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	defer os.Remove(list.Name())

	for _, p := range parts {
		abs, err := filepath.Abs(p)
		if err != nil {
			list.Close()
			return err
		}
		fmt.Fprintf(list, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := list.Close(); err != nil {
		return err
	}

	return f.run(ctx, "concat",
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", list.Name(),
		"-c", "copy",
		out,
	)
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	return p
}

func tailLines(b []byte, n int) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
