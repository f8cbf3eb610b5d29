package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const moonshotBaseURL = "https://api.moonshot.cn/v1"

// OpenAI serves gpt* models and, through the Moonshot endpoint, moonshot*.
type OpenAI struct {
	BaseURL         string
	MoonshotBaseURL string
}

func (o *OpenAI) Name() string {
	return "openai"
}

func (o *OpenAI) Chat(ctx context.Context, call Call) (string, error) {
	baseURL := o.BaseURL
	if strings.HasPrefix(call.Model, "moonshot") {
		baseURL = o.MoonshotBaseURL
		if baseURL == "" {
			baseURL = moonshotBaseURL
		}
	}
	return chatOpenAI(ctx, baseURL, call)
}

// chatOpenAI runs one completion with the official SDK. Shared by the
// OpenAI and Qwen adapters.
func chatOpenAI(ctx context.Context, baseURL string, call Call) (string, error) {
	if call.APIKey == "" {
		return "", fmt.Errorf("API key not provided")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(call.APIKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	var messages []openai.ChatCompletionMessageParamUnion
	if call.System != "" {
		messages = append(messages, openai.SystemMessage(call.System))
	}
	messages = append(messages, openai.UserMessage(call.Prompt))

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(call.Model),
		Messages: messages,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}
	return resp.Choices[0].Message.Content, nil
}
