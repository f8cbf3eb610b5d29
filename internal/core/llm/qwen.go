package llm

import (
	"context"
)

// DashScope's OpenAI-compatible endpoint.
const qwenBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

// Qwen serves qwen* models.
type Qwen struct {
	BaseURL string
}

func (q *Qwen) Name() string {
	return "qwen"
}

func (q *Qwen) Chat(ctx context.Context, call Call) (string, error) {
	baseURL := q.BaseURL
	if baseURL == "" {
		baseURL = qwenBaseURL
	}
	return chatOpenAI(ctx, baseURL, call)
}
