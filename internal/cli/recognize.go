package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/guiyumin/vclip/internal/core/clipper"
	"github.com/guiyumin/vclip/internal/core/i18n"
	"github.com/spf13/cobra"
)

var (
	recHotwords  string
	recLanguage  string
	recDiarize   bool
	recOutputDir string
	recShowSRT   bool
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <media>",
	Short: "Transcribe a video or audio file",
	Long: `Transcribe a video or audio file and save the SRT and the recognition
state (<name>.state.json) to the output directory. The state file is what
'vclip clip' and 'vclip llm clip' read.

Examples:
  vclip recognize talk.mp4
  vclip recognize talk.mp4 --diarize --hotwords "FunClip ModelScope"
  vclip recognize podcast.mp3 -o ~/clips`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecognize(cmd.Context(), args[0])
	},
}

func init() {
	recognizeCmd.Flags().StringVar(&recHotwords, "hotwords", "", "hotwords that bias recognition, space separated")
	recognizeCmd.Flags().StringVarP(&recLanguage, "language", "l", "", "spoken language (default: config asr.language or auto)")
	recognizeCmd.Flags().BoolVarP(&recDiarize, "diarize", "d", false, "label speakers (spk0, spk1, ...)")
	recognizeCmd.Flags().StringVarP(&recOutputDir, "output", "o", "", "output directory (default: config output_dir)")
	recognizeCmd.Flags().BoolVar(&recShowSRT, "srt", false, "print the SRT instead of the plain text")
	rootCmd.AddCommand(recognizeCmd)
}

func runRecognize(ctx context.Context, mediaPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := ensurePIN(cfg); err != nil {
		return err
	}
	t := i18n.T(cfg.Language)

	c, err := newClipper(cfg, "")
	if err != nil {
		return err
	}

	lang := recLanguage
	if lang == "" {
		lang = cfg.ASR.Language
	}
	dir := outputDir(recOutputDir, cfg)

	st, err := withSpinner(ctx, t.CLI.Recognizing, filepath.Base(mediaPath), func(ctx context.Context) (*clipper.State, error) {
		return c.Recognize(ctx, mediaPath, clipper.RecognizeOptions{
			Hotwords:  recHotwords,
			Language:  lang,
			Diarize:   recDiarize,
			OutputDir: dir,
		})
	})
	if err != nil {
		return err
	}

	if recShowSRT {
		fmt.Println(st.SRT)
	} else {
		fmt.Println(st.Text)
	}
	fmt.Println()

	if speakers := st.Speakers(); len(speakers) > 0 {
		fmt.Printf("  %s %v\n", color.CyanString("speakers:"), speakers)
	}
	fmt.Printf("  %s %s\n", color.GreenString(t.CLI.StateSaved), clipper.StatePath(dir, st.Source))
	return nil
}
