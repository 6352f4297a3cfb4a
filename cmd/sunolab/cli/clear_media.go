package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/suno-demo/internal/media"
)

var clearMediaCmd = &cobra.Command{
	Use:   "clear-media",
	Short: "Delete every generated clip under the media root",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		lib, err := media.New(cfg.MediaRoot)
		if err != nil {
			return err
		}
		if err := lib.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", lib.Root())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(clearMediaCmd)
}
