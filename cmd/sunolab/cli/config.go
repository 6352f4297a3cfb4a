package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/suno-demo/internal/keyring"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stored settings and credentials",
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := openKeyring()
		if err != nil {
			return err
		}
		defer k.Close()

		if err := k.Set(args[0], args[1]); err != nil {
			return fmt.Errorf("failed to set %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", args[0])
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show a setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := openKeyring()
		if err != nil {
			return err
		}
		defer k.Close()

		val, err := k.Get(args[0])
		if err != nil {
			return err
		}
		switch {
		case val == "":
			fmt.Fprintln(cmd.OutOrStdout(), "(not set)")
		case keyring.IsSecret(args[0]):
			fmt.Fprintln(cmd.OutOrStdout(), keyring.Mask(val))
		default:
			fmt.Fprintln(cmd.OutOrStdout(), val)
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every stored setting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := openKeyring()
		if err != nil {
			return err
		}
		defer k.Close()

		entries, err := k.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(no settings)")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\n", e.Key, e.Value)
		}
		return w.Flush()
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd)
}
