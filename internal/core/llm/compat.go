package llm

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
)

const (
	g4fBaseURL      = "http://localhost:1337/v1"
	deepseekBaseURL = "https://api.deepseek.com/v1"
	minimaxBaseURL  = "https://api.minimax.chat/v1"
	geminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/openai"
)

// Compat is an OpenAI-compatible chat endpoint driven through go-openai.
// It backs the g4f gateway, Deepseek, Gemini and Minimax.
type Compat struct {
	Provider string
	BaseURL  string

	// KeyOptional allows keyless gateways.
	KeyOptional bool

	// Aliases maps dropdown names to API model names.
	Aliases map[string]string
}

// NewG4F returns the free gateway adapter.
func NewG4F(baseURL string) *Compat {
	return &Compat{Provider: "g4f", BaseURL: orDefault(baseURL, g4fBaseURL), KeyOptional: true}
}

// NewDeepseek returns the Deepseek adapter.
func NewDeepseek(baseURL string) *Compat {
	return &Compat{Provider: "deepseek", BaseURL: orDefault(baseURL, deepseekBaseURL)}
}

// NewGemini returns the Gemini adapter on Google's OpenAI-compatible endpoint.
func NewGemini(baseURL string) *Compat {
	return &Compat{Provider: "gemini", BaseURL: orDefault(baseURL, geminiBaseURL)}
}

// NewMinimax returns the Minimax adapter.
func NewMinimax(baseURL string) *Compat {
	return &Compat{Provider: "minimax", BaseURL: orDefault(baseURL, minimaxBaseURL), Aliases: minimaxAliases}
}

func (c *Compat) Name() string {
	return c.Provider
}

func (c *Compat) Chat(ctx context.Context, call Call) (string, error) {
	if call.APIKey == "" && !c.KeyOptional {
		return "", fmt.Errorf("API key not provided")
	}

	cfg := goopenai.DefaultConfig(call.APIKey)
	cfg.BaseURL = c.BaseURL
	client := goopenai.NewClientWithConfig(cfg)

	var messages []goopenai.ChatCompletionMessage
	if call.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: call.System,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: call.Prompt,
	})

	resp, err := client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    alias(c.Aliases, call.Model),
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

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
