package llm

import (
	"time"

	"github.com/guiyumin/vclip/internal/core/config"
)

// NewDefault builds the full provider table from config. Base URLs come from
// llm.providers.<name>.base_url, keys from the config key slots and env.
func NewDefault(cfg *config.Config) *Dispatcher {
	pin := config.EnvPIN()
	base := func(name string) string { return cfg.Provider(name).BaseURL }

	return NewDispatcher(
		WithAdapter(ProviderQwen, &Qwen{BaseURL: base("qwen")}),
		WithAdapter(ProviderOpenAI, &OpenAI{BaseURL: base("openai"), MoonshotBaseURL: base("moonshot")}),
		WithAdapter(ProviderG4F, NewG4F(base("g4f"))),
		WithAdapter(ProviderClaude, &Anthropic{BaseURL: base("claude")}),
		WithAdapter(ProviderDeepseek, NewDeepseek(base("deepseek"))),
		WithAdapter(ProviderGemini, NewGemini(base("gemini"))),
		WithAdapter(ProviderMinimax, NewMinimax(base("minimax"))),
		WithKeyResolver(func(name string) (string, error) {
			return cfg.ResolveKey(name, pin)
		}),
		WithTimeout(time.Duration(cfg.LLM.TimeoutSeconds)*time.Second),
	)
}
