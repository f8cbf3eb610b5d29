package cli

import (
	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/logging"
	"github.com/guiyumin/vclip/internal/core/version"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "vclip",
	Short: "Recognize speech in videos and cut clips by text, speaker or LLM-picked timestamps",
	Long: `vclip transcribes a video or audio file, then cuts the parts you ask for:
sentences of the transcript, whole speakers, or timestamps chosen by an LLM.

Examples:
  vclip recognize talk.mp4 --diarize
  vclip clip ~/vclip/talk.state.json --text "first sentence#second one"
  vclip llm clip ~/vclip/talk.state.json --model deepseek-chat --subtitles
  vclip serve`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional
		_ = godotenv.Load()

		cfg := config.LoadOrDefault()
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		logging.Init(level, cfg.Log.Format)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
