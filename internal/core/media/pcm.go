package media

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/guiyumin/vclip/internal/core/timestamp"
)

// ClipWAV cuts each [Start, End) span out of a mono WAV and writes them
// back to back into out. It returns the sample rate of the written file.
// Spans are clamped to the input length.
func ClipWAV(in string, spans []timestamp.Range, out string) (int, error) {
	buf, err := readPCM(in)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", in, err)
	}
	if buf.Format.NumChannels != 1 {
		return 0, fmt.Errorf("expected mono WAV, got %d channels", buf.Format.NumChannels)
	}

	rate := buf.Format.SampleRate
	total := len(buf.Data)

	var data []int
	for _, s := range spans {
		from := min(sampleIndex(s.Start, rate), total)
		to := min(sampleIndex(s.End, rate), total)
		if to > from {
			data = append(data, buf.Data[from:to]...)
		}
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("no audio in the requested spans")
	}

	if buf.SourceBitDepth != 16 {
		shift := buf.SourceBitDepth - 16
		for i, v := range data {
			if shift > 0 {
				data[i] = v >> shift
			} else {
				data[i] = v << -shift
			}
		}
	}

	if err := writePCM(out, data, rate); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", out, err)
	}
	return rate, nil
}

func sampleIndex(d time.Duration, rate int) int {
	if d <= 0 {
		return 0
	}
	return int(d * time.Duration(rate) / time.Second)
}

// splitBufSamples bounds the memory SplitWAV holds at once.
const splitBufSamples = 1 << 16

// openWAV is replaced in tests.
var openWAV = os.Open

// WAVChunk is one file written by SplitWAV.
type WAVChunk struct {
	Path  string
	Start time.Duration
	End   time.Duration
}

// SplitWAV cuts a mono WAV into consecutive 16-bit files of at most size
// each, written to dir as chunk_001.wav, chunk_002.wav, ... The input is
// read once, through a fixed-size buffer.
func SplitWAV(in string, size time.Duration, dir string) ([]WAVChunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid chunk duration %v", size)
	}

	file, err := openWAV(in)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, err
	}
	if dec.NumChans != 1 {
		return nil, fmt.Errorf("expected mono WAV, got %d channels", dec.NumChans)
	}

	rate := int(dec.SampleRate)
	perChunk := sampleIndex(size, rate)
	if perChunk <= 0 {
		return nil, fmt.Errorf("chunk duration %v is shorter than one sample", size)
	}
	buf := &audio.IntBuffer{Data: make([]int, min(perChunk, splitBufSamples))}
	shift := int(dec.BitDepth) - 16

	var chunks []WAVChunk
	var offset int
	for i := 1; ; i++ {
		path := filepath.Join(dir, fmt.Sprintf("chunk_%03d.wav", i))
		n, err := copySamples(dec, buf, path, perChunk, rate, shift)
		if err != nil {
			return nil, fmt.Errorf("failed to write chunk %d: %w", i, err)
		}
		if n == 0 {
			break
		}
		chunks = append(chunks, WAVChunk{
			Path:  path,
			Start: sampleTime(offset, rate),
			End:   sampleTime(offset+n, rate),
		})
		offset += n
		if n < perChunk {
			break
		}
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("no audio in %s", in)
	}
	return chunks, nil
}

// copySamples moves up to limit samples from dec into a new WAV at path.
// Nothing is created when the decoder is already drained.
func copySamples(dec *wav.Decoder, buf *audio.IntBuffer, path string, limit, rate, shift int) (int, error) {
	var out *os.File
	var enc *wav.Encoder
	total := 0

	for total < limit {
		buf.Data = buf.Data[:min(cap(buf.Data), limit-total)]
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			if out != nil {
				out.Close()
			}
			return 0, err
		}
		if n == 0 {
			break
		}

		if out == nil {
			if out, err = os.Create(path); err != nil {
				return 0, err
			}
			enc = wav.NewEncoder(out, rate, 16, 1, 1)
		}

		data := buf.Data[:n]
		if shift > 0 {
			for j, v := range data {
				data[j] = v >> shift
			}
		} else if shift < 0 {
			for j, v := range data {
				data[j] = v << -shift
			}
		}
		chunk := &audio.IntBuffer{
			Data:           data,
			Format:         &audio.Format{SampleRate: rate, NumChannels: 1},
			SourceBitDepth: 16,
		}
		if err := enc.Write(chunk); err != nil {
			out.Close()
			return 0, err
		}
		total += n
	}

	if out == nil {
		return 0, nil
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return 0, err
	}
	return total, out.Close()
}

func sampleTime(n, rate int) time.Duration {
	return time.Duration(n) * time.Second / time.Duration(rate)
}
