package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/guiyumin/vclip/internal/core/version"
	"github.com/guiyumin/vclip/internal/updater"
	"github.com/spf13/cobra"
)

var updateCheckOnly bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update vclip to the latest release",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if updateCheckOnly {
			latest, newer, err := updater.CheckUpdate(ctx)
			if err != nil {
				return err
			}
			if latest == nil {
				fmt.Println("No releases published yet")
				return nil
			}
			if newer {
				fmt.Printf("%s %s -> %s\n", color.YellowString("Update available:"), version.Version, latest.Version())
			} else {
				fmt.Printf("Already up to date (%s)\n", version.Version)
			}
			return nil
		}

		installed, err := withSpinner(ctx, "Updating", version.Version, updater.Update)
		if err != nil {
			return err
		}
		if installed == "" {
			fmt.Printf("Already up to date (%s)\n", version.Version)
			return nil
		}
		fmt.Printf("%s %s\n", color.GreenString("Successfully updated to"), installed)
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "only check for a newer release")
	rootCmd.AddCommand(updateCmd)
}
