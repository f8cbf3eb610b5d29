package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/guiyumin/vclip/internal/core/asr"
	"github.com/guiyumin/vclip/internal/core/clipper"
	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/crypto"
	"github.com/guiyumin/vclip/internal/core/i18n"
	"github.com/guiyumin/vclip/internal/core/media"
	"golang.org/x/term"
)

// loadConfig reads config.yml when present. Unlike LoadOrDefault it
// surfaces parse and validation errors.
func loadConfig() (*config.Config, error) {
	if !config.Exists() {
		return config.DefaultConfig(), nil
	}
	return config.Load()
}

// hasEncryptedKeys reports whether any stored key needs a PIN.
func hasEncryptedKeys(cfg *config.Config) bool {
	if crypto.IsEncrypted(cfg.ASR.APIKey) {
		return true
	}
	for _, p := range cfg.LLM.Providers {
		if crypto.IsEncrypted(p.APIKey) {
			return true
		}
	}
	return false
}

// ensurePIN asks for the PIN once when encrypted keys are stored and
// VCLIP_PIN is unset. The answer is exported so every resolver sees it.
func ensurePIN(cfg *config.Config) error {
	if config.EnvPIN() != "" || !hasEncryptedKeys(cfg) {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	pin, err := readSecret(i18n.T(cfg.Language).CLI.EnterPIN)
	if err != nil {
		return err
	}
	if pin == "" {
		return nil
	}
	if err := crypto.ValidatePIN(pin); err != nil {
		return err
	}
	return os.Setenv(config.PINEnv, pin)
}

// readSecret prompts on stderr and reads a line without echo.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// newClipper builds the recognizer, the ffmpeg tool and the clipper from
// config.
func newClipper(cfg *config.Config, workDir string) (*clipper.Clipper, error) {
	key, err := cfg.ResolveKey("asr", config.EnvPIN())
	if err != nil {
		return nil, err
	}
	rec, err := asr.New(cfg.ASR, key)
	if err != nil {
		return nil, err
	}

	c := clipper.New(rec, media.NewFFmpeg(cfg.FFmpeg), workDir)
	c.SetFontName(cfg.Subtitle.FontName)
	return c, nil
}

// outputDir applies flag > config > default.
func outputDir(flag string, cfg *config.Config) string {
	if dir := config.NormalizeOutputDir(flag); dir != "" {
		return dir
	}
	if dir := config.NormalizeOutputDir(cfg.OutputDir); dir != "" {
		return dir
	}
	return config.NormalizeOutputDir(config.DefaultOutputDir())
}
