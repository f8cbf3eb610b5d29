package config

import (
	"fmt"
	"os"

	"github.com/guiyumin/vclip/internal/core/crypto"
)

// PINEnv names the environment variable holding the PIN for encrypted keys.
const PINEnv = "VCLIP_PIN"

// KeyEnv maps a credential name to the environment variable consulted when
// no key is stored in the config file.
var KeyEnv = map[string]string{
	"qwen":     "DASHSCOPE_API_KEY",
	"openai":   "OPENAI_API_KEY",
	"moonshot": "MOONSHOT_API_KEY",
	"claude":   "ANTHROPIC_API_KEY",
	"deepseek": "DEEPSEEK_API_KEY",
	"gemini":   "GEMINI_API_KEY",
	"minimax":  "MINIMAX_API_KEY",
	"asr":      "OPENAI_API_KEY",
}

// ResolveKey returns the API key for a credential name: the stored key
// (opened with pin) first, then the environment. An empty result with a nil
// error means no key is configured anywhere.
func (c *Config) ResolveKey(name, pin string) (string, error) {
	sealed := c.Provider(name).APIKey
	if name == "asr" {
		sealed = c.ASR.APIKey
	}
	if sealed != "" {
		key, err := crypto.Open(sealed, pin)
		if err != nil {
			return "", fmt.Errorf("failed to open %s key: %w", name, err)
		}
		if key != "" {
			return key, nil
		}
	}
	if env, ok := KeyEnv[name]; ok {
		return os.Getenv(env), nil
	}
	return "", nil
}

// EnvPIN returns the PIN from the environment.
func EnvPIN() string {
	return os.Getenv(PINEnv)
}
