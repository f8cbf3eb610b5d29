package asr

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/guiyumin/vclip/internal/core/media"
)

const (
	// MaxUploadSize is the OpenAI transcription upload limit.
	MaxUploadSize = 25 * 1024 * 1024

	// ChunkDuration keeps a 16 kHz mono chunk well under MaxUploadSize.
	ChunkDuration = 10 * time.Minute
)

// splitWAV cuts wavPath into consecutive chunks of at most size. Chunks are
// written next to the input in a .chunks directory; the returned cleanup
// removes it.
func splitWAV(wavPath string, size time.Duration) ([]media.WAVChunk, func(), error) {
	base := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))
	dir := filepath.Join(filepath.Dir(wavPath), base+".chunks")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create chunk directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	chunks, err := media.SplitWAV(wavPath, size, dir)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to split %s: %w", wavPath, err)
	}
	return chunks, cleanup, nil
}

// mergeResults shifts each chunk's segments by the chunk start and joins
// them into one result.
func mergeResults(results []*Result, chunks []media.WAVChunk) *Result {
	if len(results) == 1 {
		return results[0]
	}

	merged := &Result{}
	for i, res := range results {
		if merged.Language == "" {
			merged.Language = res.Language
		}
		for _, seg := range res.Segments {
			seg.Start += chunks[i].Start
			seg.End += chunks[i].Start
			merged.Segments = append(merged.Segments, seg)
		}
	}

	merged.Text = joinText(merged.Segments)
	if n := len(chunks); n > 0 {
		merged.Duration = chunks[n-1].End
	}
	return merged
}
