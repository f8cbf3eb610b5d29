package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/guiyumin/vclip/internal/core/clipper"
	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/i18n"
	"github.com/guiyumin/vclip/internal/core/webdav"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// clipFlags are shared by `clip` and `llm clip`.
type clipFlags struct {
	startOffset int
	endOffset   int
	subtitles   bool
	fontSize    int
	fontColor   string
	outputDir   string
	export      string
}

func (f *clipFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.startOffset, "start-offset", 0, "milliseconds added to every period start, -500..1000 (default: config clip.start_offset_ms)")
	fs.IntVar(&f.endOffset, "end-offset", 0, "milliseconds added to every period end, -500..1000 (default: config clip.end_offset_ms)")
	fs.BoolVarP(&f.subtitles, "subtitles", "s", false, "burn subtitles into the clip")
	fs.IntVar(&f.fontSize, "font-size", 0, "subtitle font size (default: config subtitle.font_size)")
	fs.StringVar(&f.fontColor, "font-color", "", "subtitle colour: black, white, green or red")
	fs.StringVarP(&f.outputDir, "output", "o", "", "output directory (default: next to the recognition artifacts)")
	fs.StringVar(&f.export, "export", "", "upload the clip to a WebDAV remote, e.g. nas:/clips")
}

// request applies flag > config > default.
func (f *clipFlags) request(fs *pflag.FlagSet, cfg *config.Config) (clipper.ClipRequest, error) {
	req := clipper.ClipRequest{
		StartOffset: cfg.Clip.StartOffsetMS,
		EndOffset:   cfg.Clip.EndOffsetMS,
		Subtitles:   f.subtitles,
		FontSize:    cfg.Subtitle.FontSize,
		FontColor:   cfg.Subtitle.FontColor,
		OutputDir:   config.NormalizeOutputDir(f.outputDir),
	}
	if fs.Changed("start-offset") {
		req.StartOffset = f.startOffset
	}
	if fs.Changed("end-offset") {
		req.EndOffset = f.endOffset
	}
	if f.fontSize > 0 {
		req.FontSize = f.fontSize
	}
	if f.fontColor != "" {
		req.FontColor = f.fontColor
	}

	for _, off := range []int{req.StartOffset, req.EndOffset} {
		if off < -500 || off > 1000 {
			return req, fmt.Errorf("offset %d ms is outside -500..1000", off)
		}
	}
	return req, nil
}

var (
	clipText     string
	clipSpeakers string
	clipOpts     clipFlags
)

var clipCmd = &cobra.Command{
	Use:   "clip <state.json>",
	Short: "Cut clips from a recognized file by text or speaker",
	Long: `Cut clips out of a file recognized with 'vclip recognize'.

Sentences in --text and labels in --speaker are separated by '#'.
--speaker wins over --text when both are given.

Examples:
  vclip clip talk.state.json --text "so today we talk about#thank you"
  vclip clip talk.state.json --speaker spk1 --subtitles --font-color green
  vclip clip talk.state.json --text "hello" --end-offset 300 --export nas:/clips`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		req, err := clipOpts.request(cmd.Flags(), cfg)
		if err != nil {
			return err
		}
		req.Text = clipText
		req.Speakers = clipSpeakers
		return runClip(cmd.Context(), cfg, args[0], req, clipOpts.export)
	},
}

func init() {
	clipCmd.Flags().StringVarP(&clipText, "text", "t", "", "sentences to clip, separated by #")
	clipCmd.Flags().StringVar(&clipSpeakers, "speaker", "", "speakers to clip, e.g. spk0#spk2")
	clipOpts.register(clipCmd.Flags())
	rootCmd.AddCommand(clipCmd)
}

func runClip(ctx context.Context, cfg *config.Config, statePath string, req clipper.ClipRequest, export string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	t := i18n.T(cfg.Language)

	st, err := clipper.LoadState(statePath)
	if err != nil {
		return err
	}
	if err := ensurePIN(cfg); err != nil {
		return err
	}
	c, err := newClipper(cfg, "")
	if err != nil {
		return err
	}

	res, err := withSpinner(ctx, t.CLI.Clipping, filepath.Base(st.Source), func(ctx context.Context) (*clipper.ClipResult, error) {
		return c.Clip(ctx, st, req)
	})
	if err != nil {
		return err
	}

	printClipResult(t, res)

	if export != "" && res.Output != "" {
		remotes, err := webdav.Export(ctx, cfg, export, []string{res.Output})
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		for _, r := range remotes {
			fmt.Printf("  %s %s\n", color.GreenString(t.CLI.Exported), r)
		}
	}
	return nil
}

func printClipResult(t *i18n.Translations, res *clipper.ClipResult) {
	fmt.Println(res.Message)
	if res.Output == "" {
		return
	}
	fmt.Println()
	fmt.Printf("  %s %s\n", color.GreenString(t.CLI.SavedTo), res.Output)
	if len(res.Segments) > 1 {
		for _, seg := range res.Segments {
			fmt.Printf("    %s\n", color.HiBlackString(seg))
		}
	}
}
