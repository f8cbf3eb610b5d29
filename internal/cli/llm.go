package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/guiyumin/vclip/internal/core/clipper"
	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/i18n"
	"github.com/guiyumin/vclip/internal/core/llm"
	"github.com/guiyumin/vclip/internal/core/timestamp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// llmFlags are shared by `llm infer` and `llm clip`.
type llmFlags struct {
	model  string
	system string
	user   string
	apiKey string
}

func (f *llmFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.model, "model", "m", "", "model name (default: config llm.default_model)")
	fs.StringVar(&f.system, "system", "", "system prompt, or @file to read it (default: built-in clip prompt)")
	fs.StringVar(&f.user, "user", "", "user prompt placed before the transcript")
	fs.StringVar(&f.apiKey, "api-key", "", "API key for this call only")
}

func (f *llmFlags) request(cfg *config.Config, transcript string) (llm.Request, error) {
	system, err := readArg(f.system)
	if err != nil {
		return llm.Request{}, err
	}
	return llm.Request{
		System:     firstNonEmpty(system, cfg.LLM.SystemPrompt, llm.DefaultSystemPrompt),
		User:       firstNonEmpty(f.user, cfg.LLM.UserPrompt, llm.DefaultUserPrompt),
		Transcript: transcript,
		Model:      firstNonEmpty(f.model, cfg.LLM.DefaultModel, llm.DefaultModel),
		APIKey:     f.apiKey,
	}, nil
}

// readArg expands "@path" to the file content.
func readArg(v string) (string, error) {
	path, ok := strings.CutPrefix(v, "@")
	if !ok {
		return v, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(b), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// transcriptFrom accepts a state file or a plain SRT file.
func transcriptFrom(path string) (string, *clipper.State, error) {
	if strings.HasSuffix(path, ".json") {
		st, err := clipper.LoadState(path)
		if err != nil {
			return "", nil, err
		}
		return st.SRT, st, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	return string(b), nil, nil
}

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Let an LLM pick the clips",
}

var (
	inferOpts   llmFlags
	inferOutput string
)

var llmInferCmd = &cobra.Command{
	Use:   "infer <state.json|file.srt>",
	Short: "Ask an LLM for the best segments of a transcript",
	Long: `Send the transcript with the clip prompt to a model and print the answer.

Supported model prefixes: ` + strings.Join(llm.SupportedPrefixes, ", ") + `

Examples:
  vclip llm infer talk.state.json
  vclip llm infer talk.srt -m claude-3-opus --system @prompt.txt -o answer.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		transcript, _, err := transcriptFrom(args[0])
		if err != nil {
			return err
		}
		req, err := inferOpts.request(cfg, transcript)
		if err != nil {
			return err
		}

		answer, err := runInfer(cmd.Context(), cfg, req)
		if err != nil {
			return err
		}
		fmt.Println(answer)

		if inferOutput != "" {
			if err := os.WriteFile(inferOutput, []byte(answer), 0644); err != nil {
				return fmt.Errorf("failed to write result: %w", err)
			}
			fmt.Printf("\n  %s %s\n", color.GreenString(i18n.T(cfg.Language).CLI.SavedTo), inferOutput)
		}
		return nil
	},
}

var (
	llmClipOpts  llmFlags
	llmClipFlags clipFlags
	llmResult    string
)

var llmClipCmd = &cobra.Command{
	Use:   "clip <state.json>",
	Short: "Infer, extract timestamps and clip in one step",
	Long: `Run LLM inference on a recognized file, pull the [start-end] timestamps
out of the answer and cut them.

Examples:
  vclip llm clip talk.state.json --subtitles
  vclip llm clip talk.state.json --result @answer.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		clipReq, err := llmClipFlags.request(cmd.Flags(), cfg)
		if err != nil {
			return err
		}

		transcript, _, err := transcriptFrom(args[0])
		if err != nil {
			return err
		}

		answer, err := readArg(llmResult)
		if err != nil {
			return err
		}
		if answer == "" {
			req, err := llmClipOpts.request(cfg, transcript)
			if err != nil {
				return err
			}
			if answer, err = runInfer(cmd.Context(), cfg, req); err != nil {
				return err
			}
			fmt.Println(answer)
			fmt.Println()
		}

		clipReq.Timestamps = timestamp.Collect(timestamp.Extract(answer))
		if len(clipReq.Timestamps) == 0 {
			return fmt.Errorf("no timestamps found in the LLM result")
		}
		return runClip(cmd.Context(), cfg, args[0], clipReq, llmClipFlags.export)
	},
}

var llmModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the suggested models",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadOrDefault()
		printModels(os.Stdout, llm.Models, firstNonEmpty(cfg.LLM.DefaultModel, llm.DefaultModel))
	},
}

func init() {
	inferOpts.register(llmInferCmd.Flags())
	llmInferCmd.Flags().StringVarP(&inferOutput, "output", "o", "", "also write the answer to this file")

	llmClipOpts.register(llmClipCmd.Flags())
	llmClipFlags.register(llmClipCmd.Flags())
	llmClipCmd.Flags().StringVar(&llmResult, "result", "", "reuse an LLM answer instead of inferring, or @file")

	llmCmd.AddCommand(llmInferCmd, llmClipCmd, llmModelsCmd)
	rootCmd.AddCommand(llmCmd)
}

// runInfer dispatches the request. Provider failures come back as the
// answer text, the same way the web UI shows them.
func runInfer(ctx context.Context, cfg *config.Config, req llm.Request) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ensurePIN(cfg); err != nil {
		return "", err
	}
	d := llm.NewDefault(cfg)
	t := i18n.T(cfg.Language)

	return withSpinner(ctx, t.CLI.Inferring, req.Model, func(ctx context.Context) (string, error) {
		return d.Infer(ctx, req), nil
	})
}
