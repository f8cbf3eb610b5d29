package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yml"
	AppDirName     = "vclip"
)

// ConfigDir returns the standard config directory for vclip.
// Windows: %APPDATA%\vclip\
// macOS/Linux: ~/.config/vclip/
func ConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, AppDirName), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppDirName), nil
}

// ConfigPath returns the path to the config file.
// e.g., ~/.config/vclip/config.yml
func ConfigPath() (string, error) {
	if p := os.Getenv("VCLIP_CONFIG"); p != "" {
		return expandPath(p), nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

type Config struct {
	// Language for UI labels and CLI messages ("en" or "zh")
	Language string `yaml:"language,omitempty" validate:"omitempty,oneof=en zh"`

	// Default output directory for recognition and clip artifacts
	OutputDir string `yaml:"output_dir,omitempty"`

	Log      LogConfig      `yaml:"log,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`
	ASR      ASRConfig      `yaml:"asr,omitempty"`
	LLM      LLMConfig      `yaml:"llm,omitempty"`
	FFmpeg   FFmpegConfig   `yaml:"ffmpeg,omitempty"`
	Subtitle SubtitleConfig `yaml:"subtitle,omitempty"`
	Clip     ClipConfig     `yaml:"clip,omitempty"`

	// WebDAV servers clips can be exported to
	WebDAVServers map[string]WebDAVServer `yaml:"webdavServers,omitempty" validate:"dive"`
}

// LogConfig controls the logrus logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format,omitempty" validate:"omitempty,oneof=text json"`
}

// ServerConfig holds HTTP server settings for `vclip serve`
type ServerConfig struct {
	// Port is the HTTP listen port (default: 7860)
	Port int `yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`

	// APIKey for authentication (optional, if set mutating API calls must include X-API-Key header)
	APIKey string `yaml:"api_key,omitempty"`

	// SessionTTLMinutes is how long an idle UI session keeps its recognition state (default: 60)
	SessionTTLMinutes int `yaml:"session_ttl_minutes,omitempty" validate:"omitempty,min=1"`

	// MaxUploadMB caps multipart uploads (default: 2048)
	MaxUploadMB int `yaml:"max_upload_mb,omitempty" validate:"omitempty,min=1"`
}

// ASRConfig selects and configures the speech recognition engine.
type ASRConfig struct {
	// Engine is "openai" (OpenAI-compatible transcription API) or "whispercpp"
	Engine string `yaml:"engine,omitempty" validate:"omitempty,oneof=openai whispercpp"`

	// Model is the API model name or, for whispercpp, the ggml model path
	Model string `yaml:"model,omitempty"`

	BaseURL string `yaml:"base_url,omitempty" validate:"omitempty,url"`

	// APIKey is stored like LLM keys: "plain:<key>" or PIN-encrypted
	APIKey string `yaml:"api_key,omitempty"`

	// WhisperBin is the whisper.cpp CLI binary (default: whisper-cli in PATH)
	WhisperBin string `yaml:"whisper_bin,omitempty"`

	// Language hint, "auto" or empty to detect
	Language string `yaml:"language,omitempty"`
}

// LLMConfig configures the smart clip step.
type LLMConfig struct {
	DefaultModel string `yaml:"default_model,omitempty"`
	SystemPrompt string `yaml:"system_prompt,omitempty"`
	UserPrompt   string `yaml:"user_prompt,omitempty"`

	// TimeoutSeconds bounds a single provider call, 0 means no timeout
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty" validate:"omitempty,min=0"`

	// Providers keyed by provider name (qwen, openai, moonshot, g4f, claude, deepseek, gemini, minimax)
	Providers map[string]ProviderConfig `yaml:"providers,omitempty" validate:"dive"`
}

// ProviderConfig overrides endpoint and credentials for one LLM provider.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url,omitempty" validate:"omitempty,url"`

	// APIKey is "plain:<key>" or base64 AES-GCM ciphertext sealed with a PIN
	APIKey string `yaml:"api_key,omitempty"`
}

// FFmpegConfig points at the ffmpeg binaries.
type FFmpegConfig struct {
	Path      string `yaml:"path,omitempty"`
	ProbePath string `yaml:"probe_path,omitempty"`
}

// SubtitleConfig holds burn-in defaults.
type SubtitleConfig struct {
	FontSize  int    `yaml:"font_size,omitempty" validate:"omitempty,min=10,max=100"`
	FontColor string `yaml:"font_color,omitempty" validate:"omitempty,oneof=black white green red"`
	FontName  string `yaml:"font_name,omitempty"`
}

// ClipConfig holds default period offsets in milliseconds.
type ClipConfig struct {
	StartOffsetMS int `yaml:"start_offset_ms,omitempty" validate:"min=-500,max=1000"`
	EndOffsetMS   int `yaml:"end_offset_ms,omitempty" validate:"min=-500,max=1000"`
}

// WebDAVServer represents a WebDAV server configuration
type WebDAVServer struct {
	// URL is the WebDAV server URL (e.g., "https://dav.example.com/remote.php/dav")
	URL string `yaml:"url" validate:"required,url"`

	// Username for authentication
	Username string `yaml:"username,omitempty"`

	// Password for authentication
	Password string `yaml:"password,omitempty"`
}

// GetWebDAVServer returns a WebDAV server by name, or nil if not found
func (c *Config) GetWebDAVServer(name string) *WebDAVServer {
	if c.WebDAVServers == nil {
		return nil
	}
	if s, ok := c.WebDAVServers[name]; ok {
		return &s
	}
	return nil
}

// SetWebDAVServer adds or updates a WebDAV server
func (c *Config) SetWebDAVServer(name string, server WebDAVServer) {
	if c.WebDAVServers == nil {
		c.WebDAVServers = make(map[string]WebDAVServer)
	}
	c.WebDAVServers[name] = server
}

// DeleteWebDAVServer removes a WebDAV server and reports whether it existed
func (c *Config) DeleteWebDAVServer(name string) bool {
	if _, ok := c.WebDAVServers[name]; !ok {
		return false
	}
	delete(c.WebDAVServers, name)
	return true
}

// Provider returns the provider config, zero value if absent.
func (c *Config) Provider(name string) ProviderConfig {
	if c.LLM.Providers == nil {
		return ProviderConfig{}
	}
	return c.LLM.Providers[name]
}

// SetProviderKey stores an already sealed key for a provider.
func (c *Config) SetProviderKey(name, sealed string) {
	if c.LLM.Providers == nil {
		c.LLM.Providers = make(map[string]ProviderConfig)
	}
	p := c.LLM.Providers[name]
	p.APIKey = sealed
	c.LLM.Providers[name] = p
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultOutputDir returns the default artifact directory
// Windows/macOS: ~/Movies/vclip
// Linux: ~/vclip
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./vclip-output"
	}

	switch runtime.GOOS {
	case "darwin", "windows":
		return filepath.Join(home, "Movies", "vclip")
	default:
		return filepath.Join(home, "vclip")
	}
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Language:  "zh",
		OutputDir: DefaultOutputDir(),
		Log:       LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Port:              7860,
			SessionTTLMinutes: 60,
			MaxUploadMB:       2048,
		},
		ASR: ASRConfig{
			Engine: "openai",
			Model:  "whisper-1",
		},
		LLM: LLMConfig{
			DefaultModel: "deepseek-chat",
		},
		Subtitle: SubtitleConfig{
			FontSize:  32,
			FontColor: "white",
		},
		Clip: ClipConfig{
			StartOffsetMS: 0,
			EndOffsetMS:   100,
		},
	}
}

// Exists checks if config file exists
func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads the config from ~/.config/vclip/config.yml.
// Values missing from the file keep their defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.OutputDir = expandPath(cfg.OutputDir)
	cfg.ASR.Model = expandPath(cfg.ASR.Model)
	cfg.ASR.WhisperBin = expandPath(cfg.ASR.WhisperBin)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// expandPath expands the tilde (~) in the path to the user's home directory.
// It handles both forward and backward slashes to ensure cross-platform compatibility
// for configuration files.
func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		// Only expand if it's explicitly "~", "~/", or "~\"
		if len(path) == 1 || path[1] == '/' || path[1] == '\\' {
			home, err := os.UserHomeDir()
			if err == nil {
				subPath := path[1:]
				if len(subPath) > 0 && (subPath[0] == '/' || subPath[0] == '\\') {
					subPath = subPath[1:]
				}
				return filepath.Join(home, subPath)
			}
		}
	}

	return path
}

// NormalizeOutputDir trims dir and resolves it to an absolute path.
// A blank value means "unset" and yields "".
func NormalizeOutputDir(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return ""
	}
	dir = expandPath(dir)
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// Save writes the config to ~/.config/vclip/config.yml
func Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	configPath, err := ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	header := "# vclip configuration file\n# Run 'vclip config init' to regenerate with defaults\n\n"
	content := header + string(data)

	return os.WriteFile(configPath, []byte(content), 0600)
}

// SavePath returns the path where config will be saved
func SavePath() string {
	if path, err := ConfigPath(); err == nil {
		return path
	}
	return ConfigFileName
}

// Init creates a new config.yml with default values
func Init() error {
	if Exists() {
		path, _ := ConfigPath()
		return fmt.Errorf("%s already exists", path)
	}
	return Save(DefaultConfig())
}

// LoadOrDefault loads config if it exists, otherwise returns defaults
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = DefaultConfig()
	}
	return cfg
}
