package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic serves claude* models through the Messages API.
type Anthropic struct {
	BaseURL string
}

func (a *Anthropic) Name() string {
	return "claude"
}

func (a *Anthropic) Chat(ctx context.Context, call Call) (string, error) {
	if call.APIKey == "" {
		return "", fmt.Errorf("API key not provided")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(call.APIKey),
		option.WithMaxRetries(0),
	}
	if a.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(a.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(alias(claudeAliases, call.Model)),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(call.Prompt)),
		},
	}
	if call.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: call.System}}
	}

	message, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var content string
	for _, block := range message.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	if content == "" {
		return "", fmt.Errorf("no response from API")
	}
	return content, nil
}
