package asr

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/logging"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAI implements Recognizer using an OpenAI-compatible transcription API.
type OpenAI struct {
	client   *openai.Client
	model    string
	language string

	// Files larger than maxUpload are transcribed in chunks.
	maxUpload int64
	chunkDur  time.Duration
}

// NewOpenAI creates a new OpenAI recognizer.
// The apiKey parameter is the decrypted API key.
func NewOpenAI(cfg config.ASRConfig, apiKey string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not provided")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	return &OpenAI{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		language:  cfg.Language,
		maxUpload: MaxUploadSize,
		chunkDur:  ChunkDuration,
	}, nil
}

// Name returns the engine name.
func (o *OpenAI) Name() string {
	return "openai"
}

// Recognize transcribes wavPath. Hotwords are sent as the prompt. The API
// has no diarization, so a Diarize request is served without speakers.
func (o *OpenAI) Recognize(ctx context.Context, wavPath string, opts Options) (*Result, error) {
	if opts.Diarize {
		logging.Component("asr").Warn("openai engine does not support speaker diarization, returning unlabeled segments")
	}

	info, err := os.Stat(wavPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", wavPath, err)
	}
	if info.Size() <= o.maxUpload {
		return o.transcribe(ctx, wavPath, opts)
	}

	chunks, cleanup, err := splitWAV(wavPath, o.chunkDur)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	logging.Component("asr").WithField("chunks", len(chunks)).Info("audio exceeds upload limit, transcribing in chunks")

	results := make([]*Result, 0, len(chunks))
	for i, c := range chunks {
		res, err := o.transcribe(ctx, c.Path, opts)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		results = append(results, res)
	}
	return mergeResults(results, chunks), nil
}

func (o *OpenAI) transcribe(ctx context.Context, wavPath string, opts Options) (*Result, error) {
	lang := opts.Language
	if lang == "" {
		lang = o.language
	}

	req := openai.AudioRequest{
		Model:    o.model,
		FilePath: wavPath,
		Prompt:   strings.TrimSpace(opts.Hotwords),
		Language: language(lang),
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	resp, err := o.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("transcription API error: %w", err)
	}

	result := &Result{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
		Duration: time.Duration(resp.Duration * float64(time.Second)),
	}

	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, Segment{
			Start: time.Duration(seg.Start * float64(time.Second)),
			End:   time.Duration(seg.End * float64(time.Second)),
			Text:  strings.TrimSpace(seg.Text),
		})
	}

	// Some compatible servers answer without segments.
	if len(result.Segments) == 0 && result.Text != "" {
		result.Segments = []Segment{{Start: 0, End: result.Duration, Text: result.Text}}
	}

	return result, nil
}
