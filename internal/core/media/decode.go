package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/gruf/go-ffmpreg/ffmpreg"
	"codeberg.org/gruf/go-ffmpreg/wasm"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
	"github.com/tetratelabs/wazero"
)

// ConvertToWAV16k decodes MP3, FLAC and WAV in Go and writes a mono 16 kHz
// WAV. Anything else goes through the embedded WASM ffmpeg.
func ConvertToWAV16k(ctx context.Context, in, out string) error {
	var samples []float32
	var sampleRate int
	var err error

	switch strings.ToLower(filepath.Ext(in)) {
	case ".mp3":
		samples, sampleRate, err = readMP3Samples(in)
	case ".flac":
		samples, sampleRate, err = readFLACSamples(in)
	case ".wav":
		samples, sampleRate, err = readWAVSamples(in)
	default:
		return convertWithWASM(ctx, in, out)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(in), err)
	}

	if sampleRate != SampleRate {
		samples = resample(samples, sampleRate, SampleRate)
	}
	return writeWAV(out, samples, SampleRate)
}

// readMP3Samples reads MP3 and returns mono float32 samples.
func readMP3Samples(path string) ([]float32, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	decoder, err := mp3.NewDecoder(file)
	if err != nil {
		return nil, 0, err
	}

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, 0, err
	}

	// go-mp3 always yields 16-bit little-endian stereo.
	n := len(data) / 4
	samples := make([]float32, n)
	for i := range n {
		left := int16(data[i*4]) | int16(data[i*4+1])<<8
		right := int16(data[i*4+2]) | int16(data[i*4+3])<<8
		samples[i] = float32((int32(left)+int32(right))/2) / 32768.0
	}
	return samples, decoder.SampleRate(), nil
}

// readFLACSamples reads FLAC and returns mono float32 samples.
func readFLACSamples(path string) ([]float32, int, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer stream.Close()

	nChannels := int(stream.Info.NChannels)
	maxVal := float32(int64(1) << (stream.Info.BitsPerSample - 1))

	var samples []float32
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}

		for i := range frame.Subframes[0].Samples {
			var mono int64
			for ch := range nChannels {
				mono += int64(frame.Subframes[ch].Samples[i])
			}
			samples = append(samples, float32(mono/int64(nChannels))/maxVal)
		}
	}
	return samples, int(stream.Info.SampleRate), nil
}

// readWAVSamples reads a PCM WAV and returns mono float32 samples.
func readWAVSamples(path string) ([]float32, int, error) {
	buf, err := readPCM(path)
	if err != nil {
		return nil, 0, err
	}

	ch := buf.Format.NumChannels
	maxVal := float32(int64(1) << (buf.SourceBitDepth - 1))
	samples := make([]float32, len(buf.Data)/ch)
	for i := range samples {
		var mono int
		for c := range ch {
			mono += buf.Data[i*ch+c]
		}
		samples[i] = float32(mono/ch) / maxVal
	}
	return samples, buf.Format.SampleRate, nil
}

func readPCM(path string) (*audio.IntBuffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if buf.SourceBitDepth == 0 {
		buf.SourceBitDepth = int(decoder.BitDepth)
	}
	if buf.Format.NumChannels == 0 {
		buf.Format.NumChannels = 1
	}
	return buf, nil
}

// convertWithWASM uses the embedded ffmpeg build, mounting only the input
// and output directories into the sandbox.
func convertWithWASM(ctx context.Context, in, out string) error {
	absIn, err := filepath.Abs(in)
	if err != nil {
		return err
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return err
	}
	inDir, outDir := filepath.Dir(absIn), filepath.Dir(absOut)

	args := wasm.Args{
		Stderr: io.Discard,
		Stdout: io.Discard,
		Args: []string{
			"-i", absIn,
			"-vn",
			"-ar", "16000",
			"-ac", "1",
			"-c:a", "pcm_s16le",
			"-y",
			absOut,
		},
		Config: func(cfg wazero.ModuleConfig) wazero.ModuleConfig {
			return cfg.WithFSConfig(wazero.NewFSConfig().
				WithDirMount(inDir, inDir).
				WithDirMount(outDir, outDir))
		},
	}

	rc, err := ffmpreg.Ffmpeg(ctx, args)
	if err != nil {
		return fmt.Errorf("embedded ffmpeg failed: %w", err)
	}
	if rc != 0 {
		return fmt.Errorf("embedded ffmpeg exited with code %d", rc)
	}
	return nil
}

// writeWAV writes float32 samples as 16-bit mono PCM.
func writeWAV(path string, samples []float32, sampleRate int) error {
	data := make([]int, len(samples))
	for i, s := range samples {
		s = max(-1, min(1, s))
		data[i] = int(s * 32767)
	}
	return writePCM(path, data, sampleRate)
}

func writePCM(path string, data []int, sampleRate int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := wav.NewEncoder(file, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		SourceBitDepth: 16,
	}
	if err := encoder.Write(buf); err != nil {
		return err
	}
	return encoder.Close()
}

// resample converts between rates with linear interpolation.
func resample(samples []float32, from, to int) []float32 {
	if from == to || from <= 0 {
		return samples
	}

	ratio := float64(from) / float64(to)
	out := make([]float32, int(float64(len(samples))/ratio))
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := float32(pos - float64(idx))

		if idx+1 < len(samples) {
			out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
		} else if idx < len(samples) {
			out[i] = samples[idx]
		}
	}
	return out
}

// WAVDuration reads the duration from a WAV header.
func WAVDuration(path string) (time.Duration, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return 0, fmt.Errorf("invalid WAV file")
	}
	if err := decoder.FwdToPCM(); err != nil {
		return 0, err
	}

	// The header duration counts the whole RIFF chunk, so use the data size.
	bytesPerSec := int64(decoder.SampleRate) * int64(decoder.NumChans) * int64(decoder.BitDepth/8)
	if bytesPerSec == 0 {
		return 0, fmt.Errorf("invalid WAV format")
	}
	return time.Duration(decoder.PCMLen()) * time.Second / time.Duration(bytesPerSec), nil
}
