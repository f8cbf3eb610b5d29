package llm

import (
	"strings"
)

// Provider is the closed set of LLM backends a model identifier can route to.
type Provider int

const (
	ProviderUnknown Provider = iota
	ProviderQwen
	ProviderOpenAI
	ProviderG4F
	ProviderClaude
	ProviderDeepseek
	ProviderGemini
	ProviderMinimax
)

var providerNames = [...]string{
	ProviderUnknown:  "unknown",
	ProviderQwen:     "qwen",
	ProviderOpenAI:   "openai",
	ProviderG4F:      "g4f",
	ProviderClaude:   "claude",
	ProviderDeepseek: "deepseek",
	ProviderGemini:   "gemini",
	ProviderMinimax:  "minimax",
}

func (p Provider) String() string {
	if p < 0 || int(p) >= len(providerNames) {
		return providerNames[ProviderUnknown]
	}
	return providerNames[p]
}

// SupportedPrefixes lists the accepted model name prefixes in routing order,
// as shown to users when a model name is rejected.
var SupportedPrefixes = []string{"qwen", "gpt", "g4f", "moonshot", "claude", "deepseek", "gemini", "minimax"}

// Resolve maps a model identifier to its provider and the model name the
// provider should receive. Rules are ordered and the first match wins.
func Resolve(model string) (Provider, string) {
	switch {
	case strings.HasPrefix(model, "qwen"):
		return ProviderQwen, model
	case strings.HasPrefix(model, "gpt"), strings.HasPrefix(model, "moonshot"):
		return ProviderOpenAI, model
	case strings.HasPrefix(model, "g4f"):
		return ProviderG4F, stripGatewayPrefix(model)
	case strings.HasPrefix(model, "claude"):
		return ProviderClaude, model
	case model == "deepseek-chat":
		return ProviderDeepseek, model
	case strings.HasPrefix(model, "gemini"):
		return ProviderGemini, model
	case strings.HasPrefix(model, "minimax"):
		return ProviderMinimax, model
	default:
		return ProviderUnknown, model
	}
}

// stripGatewayPrefix drops everything up to and including the first dash:
// "g4f-gpt-3.5-turbo" -> "gpt-3.5-turbo".
func stripGatewayPrefix(model string) string {
	_, tail, ok := strings.Cut(model, "-")
	if !ok {
		return ""
	}
	return tail
}

// credentialName picks the key slot for a routed call. Moonshot shares the
// OpenAI adapter but not its key.
func credentialName(p Provider, model string) string {
	if p == ProviderOpenAI && strings.HasPrefix(model, "moonshot") {
		return "moonshot"
	}
	return p.String()
}
