package cli

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/crypto"
	"github.com/guiyumin/vclip/internal/core/i18n"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage vclip configuration",
	Long:  "View and modify vclip settings, API keys and WebDAV remotes",
}

var configInitDefaults bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config.yml",
	Long: `Create config.yml with an interactive wizard, or with plain defaults
when --defaults is given or stdin is not a terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configInitDefaults || !term.IsTerminal(int(os.Stdin.Fd())) {
			if err := config.Init(); err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", i18n.T(config.DefaultConfig().Language).CLI.ConfigCreated, config.SavePath())
			return nil
		}

		cfg, err := RunInitWizard()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", i18n.T(cfg.Language).CLI.ConfigCreated, config.SavePath())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadOrDefault()

		fmt.Println("Current configuration:")
		fmt.Printf("  Language:  %s\n", cfg.Language)
		fmt.Printf("  OutputDir: %s\n", cfg.OutputDir)
		fmt.Printf("  Config:    %s\n", config.SavePath())

		fmt.Println("\nASR:")
		fmt.Printf("  engine: %s\n", orDefault(cfg.ASR.Engine, "openai"))
		fmt.Printf("  model:  %s\n", cfg.ASR.Model)
		fmt.Printf("  key:    %s\n", keyStatus(cfg.ASR.APIKey, "asr"))

		fmt.Println("\nLLM:")
		fmt.Printf("  default_model: %s\n", cfg.LLM.DefaultModel)
		for _, name := range keyNames() {
			p := cfg.Provider(name)
			line := fmt.Sprintf("  %-9s %s", name+":", keyStatus(p.APIKey, name))
			if p.BaseURL != "" {
				line += "  " + p.BaseURL
			}
			fmt.Println(line)
		}

		fmt.Println("\nServer:")
		fmt.Printf("  port: %d\n", cfg.Server.Port)
		if cfg.Server.APIKey != "" {
			fmt.Printf("  api_key: %s\n", strings.Repeat("*", 8))
		}

		if len(cfg.WebDAVServers) > 0 {
			fmt.Println("\nWebDAV servers:")
			for name, server := range cfg.WebDAVServers {
				fmt.Printf("  %s: %s\n", name, server.URL)
			}
		}
	},
}

// keyStatus describes a stored key without revealing it.
func keyStatus(sealed, name string) string {
	switch {
	case crypto.IsEncrypted(sealed):
		return color.GreenString("encrypted")
	case sealed != "":
		return color.YellowString("plain")
	case os.Getenv(config.KeyEnv[name]) != "":
		return color.CyanString("from $" + config.KeyEnv[name])
	default:
		return color.HiBlackString("not set")
	}
}

func keyNames() []string {
	names := make([]string, 0, len(config.KeyEnv))
	for name := range config.KeyEnv {
		if name != "asr" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.SavePath())
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in config.yml.

Supported keys:
  language                 Language code (en, zh)
  output_dir               Default output directory
  log.level                debug, info, warn, error
  log.format               text or json
  server.port              Server listen port
  server.api_key           Key required on mutating API calls
  server.session_ttl_minutes  Idle session lifetime
  server.max_upload_mb     Upload size cap
  asr.engine               openai or whispercpp
  asr.model                API model name or ggml model path
  asr.base_url             OpenAI-compatible transcription endpoint
  asr.whisper_bin          whisper.cpp CLI binary
  asr.language             Spoken language hint
  llm.default_model        Model preselected for smart clipping
  llm.timeout_seconds      Per-call timeout, 0 for none
  llm.<provider>.base_url  Endpoint override for one provider
  ffmpeg.path              ffmpeg binary
  subtitle.font_size       Burn-in font size (10-100)
  subtitle.font_color      black, white, green or red
  subtitle.font_name       Burn-in font family
  clip.start_offset_ms     Default start offset (-500..1000)
  clip.end_offset_ms       Default end offset (-500..1000)

API keys are set with 'vclip config set-key'.

Examples:
  vclip config set language en
  vclip config set asr.engine whispercpp
  vclip config set llm.deepseek.base_url https://api.deepseek.com/v1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("Set %s = %s\n", args[0], args[1])
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := getConfigValue(config.LoadOrDefault(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

func atoi(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid number for %s: %s", key, value)
	}
	return n, nil
}

// setConfigValue sets a config value by key
func setConfigValue(cfg *config.Config, key, value string) error {
	if name, field, ok := providerKey(key); ok {
		if field != "base_url" {
			return fmt.Errorf("use 'vclip config set-key %s' to store API keys", name)
		}
		if cfg.LLM.Providers == nil {
			cfg.LLM.Providers = make(map[string]config.ProviderConfig)
		}
		p := cfg.LLM.Providers[name]
		p.BaseURL = value
		cfg.LLM.Providers[name] = p
		return nil
	}

	var err error
	switch key {
	case "language":
		cfg.Language = value
	case "output_dir":
		cfg.OutputDir = value
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	case "server.port":
		cfg.Server.Port, err = atoi(key, value)
	case "server.api_key":
		cfg.Server.APIKey = value
	case "server.session_ttl_minutes":
		cfg.Server.SessionTTLMinutes, err = atoi(key, value)
	case "server.max_upload_mb":
		cfg.Server.MaxUploadMB, err = atoi(key, value)
	case "asr.engine":
		cfg.ASR.Engine = value
	case "asr.model":
		cfg.ASR.Model = value
	case "asr.base_url":
		cfg.ASR.BaseURL = value
	case "asr.whisper_bin":
		cfg.ASR.WhisperBin = value
	case "asr.language":
		cfg.ASR.Language = value
	case "llm.default_model":
		cfg.LLM.DefaultModel = value
	case "llm.timeout_seconds":
		cfg.LLM.TimeoutSeconds, err = atoi(key, value)
	case "ffmpeg.path":
		cfg.FFmpeg.Path = value
	case "subtitle.font_size":
		cfg.Subtitle.FontSize, err = atoi(key, value)
	case "subtitle.font_color":
		cfg.Subtitle.FontColor = value
	case "subtitle.font_name":
		cfg.Subtitle.FontName = value
	case "clip.start_offset_ms":
		cfg.Clip.StartOffsetMS, err = atoi(key, value)
	case "clip.end_offset_ms":
		cfg.Clip.EndOffsetMS, err = atoi(key, value)
	default:
		return fmt.Errorf("unknown config key: %s\nRun 'vclip config set --help' to see supported keys", key)
	}
	return err
}

// getConfigValue gets a config value by key
func getConfigValue(cfg *config.Config, key string) (string, error) {
	if name, field, ok := providerKey(key); ok && field == "base_url" {
		return cfg.Provider(name).BaseURL, nil
	}

	switch key {
	case "language":
		return cfg.Language, nil
	case "output_dir":
		return cfg.OutputDir, nil
	case "log.level":
		return cfg.Log.Level, nil
	case "log.format":
		return cfg.Log.Format, nil
	case "server.port":
		return strconv.Itoa(cfg.Server.Port), nil
	case "server.session_ttl_minutes":
		return strconv.Itoa(cfg.Server.SessionTTLMinutes), nil
	case "server.max_upload_mb":
		return strconv.Itoa(cfg.Server.MaxUploadMB), nil
	case "asr.engine":
		return cfg.ASR.Engine, nil
	case "asr.model":
		return cfg.ASR.Model, nil
	case "asr.base_url":
		return cfg.ASR.BaseURL, nil
	case "asr.whisper_bin":
		return cfg.ASR.WhisperBin, nil
	case "asr.language":
		return cfg.ASR.Language, nil
	case "llm.default_model":
		return cfg.LLM.DefaultModel, nil
	case "llm.timeout_seconds":
		return strconv.Itoa(cfg.LLM.TimeoutSeconds), nil
	case "ffmpeg.path":
		return cfg.FFmpeg.Path, nil
	case "subtitle.font_size":
		return strconv.Itoa(cfg.Subtitle.FontSize), nil
	case "subtitle.font_color":
		return cfg.Subtitle.FontColor, nil
	case "subtitle.font_name":
		return cfg.Subtitle.FontName, nil
	case "clip.start_offset_ms":
		return strconv.Itoa(cfg.Clip.StartOffsetMS), nil
	case "clip.end_offset_ms":
		return strconv.Itoa(cfg.Clip.EndOffsetMS), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// providerKey splits "llm.<provider>.<field>".
func providerKey(key string) (name, field string, ok bool) {
	parts := strings.Split(key, ".")
	if len(parts) != 3 || parts[0] != "llm" {
		return "", "", false
	}
	if _, known := config.KeyEnv[parts[1]]; !known && parts[1] != "g4f" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key <provider>",
	Short: "Store an API key, optionally encrypted with a PIN",
	Long: `Store an API key in config.yml. The key is read without echo. Enter a
4-digit PIN to encrypt it, or leave the PIN empty to store it as plain text.
Encrypted keys are opened with the PIN from $VCLIP_PIN or a prompt.

Providers: asr, ` + strings.Join(keyNames(), ", ") + `

Examples:
  vclip config set-key deepseek
  vclip config set-key asr`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if _, ok := config.KeyEnv[name]; !ok {
			return fmt.Errorf("unknown provider %q", name)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		t := i18n.T(cfg.Language)

		key, err := readSecret(t.CLI.EnterKey)
		if err != nil {
			return err
		}
		if key == "" {
			return fmt.Errorf("empty key")
		}

		pin, err := readSecret(t.CLI.EnterPIN)
		if err != nil {
			return err
		}
		if pin != "" {
			if err := crypto.ValidatePIN(pin); err != nil {
				return err
			}
			confirm, err := readSecret(t.CLI.ConfirmPIN)
			if err != nil {
				return err
			}
			if confirm != pin {
				return fmt.Errorf("%s", t.CLI.PINMismatch)
			}
		}

		sealed, err := crypto.Seal(key, pin)
		if err != nil {
			return err
		}
		if name == "asr" {
			cfg.ASR.APIKey = sealed
		} else {
			cfg.SetProviderKey(name, sealed)
		}

		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("%s (%s)\n", t.CLI.KeySaved, keyStatus(sealed, name))
		return nil
	},
}

// --- WebDAV remote management ---

var configWebdavCmd = &cobra.Command{
	Use:     "webdav",
	Short:   "Manage WebDAV remotes clips can be exported to",
	Aliases: []string{"remote"},
}

var configWebdavListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List configured WebDAV servers",
	Aliases: []string{"ls"},
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadOrDefault()
		if len(cfg.WebDAVServers) == 0 {
			fmt.Println("No WebDAV servers configured.")
			fmt.Println("Add one with: vclip config webdav add <name>")
			return
		}

		fmt.Println("WebDAV servers:")
		for name, server := range cfg.WebDAVServers {
			if server.Username != "" {
				fmt.Printf("  %s: %s (user: %s)\n", name, server.URL, server.Username)
			} else {
				fmt.Printf("  %s: %s\n", name, server.URL)
			}
		}
	},
}

var configWebdavAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new WebDAV server",
	Long: `Add a new WebDAV server configuration.

Examples:
  vclip config webdav add nas

After adding, export clips like:
  vclip clip talk.state.json --text "hello" --export nas:/clips`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if cfg.GetWebDAVServer(name) != nil {
			return fmt.Errorf("WebDAV server '%s' already exists, delete it first: vclip config webdav delete %s", name, name)
		}

		reader := bufio.NewReader(os.Stdin)

		fmt.Print("WebDAV URL: ")
		urlStr, _ := reader.ReadString('\n')
		urlStr = strings.TrimSpace(urlStr)
		if urlStr == "" {
			return fmt.Errorf("URL is required")
		}

		fmt.Print("Username (enter to skip): ")
		username, _ := reader.ReadString('\n')
		username = strings.TrimSpace(username)

		var password string
		if username != "" {
			if password, err = readSecret("Password: "); err != nil {
				return err
			}
		}

		cfg.SetWebDAVServer(name, config.WebDAVServer{
			URL:      urlStr,
			Username: username,
			Password: password,
		})
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save: %w", err)
		}

		fmt.Printf("\nWebDAV server '%s' added.\n", name)
		fmt.Printf("Usage: vclip clip <state.json> --export %s:/clips\n", name)
		return nil
	},
}

var configWebdavDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Short:   "Delete a WebDAV server",
	Aliases: []string{"rm", "remove"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.DeleteWebDAVServer(name) {
			return fmt.Errorf("WebDAV server '%s' not found", name)
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save: %w", err)
		}
		fmt.Printf("WebDAV server '%s' deleted.\n", name)
		return nil
	},
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitDefaults, "defaults", false, "skip the wizard and write defaults")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetKeyCmd)

	configWebdavCmd.AddCommand(configWebdavListCmd)
	configWebdavCmd.AddCommand(configWebdavAddCmd)
	configWebdavCmd.AddCommand(configWebdavDeleteCmd)
	configCmd.AddCommand(configWebdavCmd)

	rootCmd.AddCommand(configCmd)
}
