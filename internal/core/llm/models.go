package llm

// Model is one entry of the model dropdown.
type Model struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Name     string `json:"name"`
}

// Models lists the suggested choices. Any identifier matching a supported
// prefix is accepted as well.
var Models = []Model{
	{ID: "qwen-plus", Provider: "qwen", Name: "Qwen Plus"},
	{ID: "gpt-3.5-turbo", Provider: "openai", Name: "GPT-3.5 Turbo"},
	{ID: "gpt-3.5-turbo-0125", Provider: "openai", Name: "GPT-3.5 Turbo 0125"},
	{ID: "gpt-4-turbo", Provider: "openai", Name: "GPT-4 Turbo"},
	{ID: "g4f-gpt-3.5-turbo", Provider: "g4f", Name: "GPT-3.5 Turbo (g4f gateway)"},
	{ID: "claude-3-opus", Provider: "claude", Name: "Claude 3 Opus"},
	{ID: "claude-3-sonnet", Provider: "claude", Name: "Claude 3 Sonnet"},
	{ID: "deepseek-chat", Provider: "deepseek", Name: "DeepSeek Chat"},
	{ID: "gemini-pro", Provider: "gemini", Name: "Gemini Pro"},
	{ID: "minimax-abab5.5", Provider: "minimax", Name: "MiniMax abab5.5"},
}

// DefaultModel is preselected in the UI.
const DefaultModel = "deepseek-chat"

// claudeAliases expands short Claude names to dated API ids.
var claudeAliases = map[string]string{
	"claude-3-opus":     "claude-3-opus-20240229",
	"claude-3-sonnet":   "claude-3-sonnet-20240229",
	"claude-3-haiku":    "claude-3-haiku-20240307",
	"claude-3.5-sonnet": "claude-3-5-sonnet-20241022",
	"claude-3.5-haiku":  "claude-3-5-haiku-20241022",
}

// minimaxAliases maps dropdown names to MiniMax API model names.
var minimaxAliases = map[string]string{
	"minimax-abab5.5":  "abab5.5-chat",
	"minimax-abab6.5s": "abab6.5s-chat",
}

func alias(table map[string]string, model string) string {
	if m, ok := table[model]; ok {
		return m
	}
	return model
}
