package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/suno-demo/internal/config"
	"github.com/NielsdaWheelz/suno-demo/internal/keyring"
	"github.com/NielsdaWheelz/suno-demo/internal/observe"
)

var (
	configPath  string
	keyringPath string
	verbose     bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "sunolab",
	Short: "Explore generated music by clusters",
	Long: `sunolab generates short clips from a text brief, groups them into
labelled clusters and lets you ask for more clips like any cluster.`,
	SilenceUsage: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "sunolab.yaml", "Path to the YAML config file")
	RootCmd.PersistentFlags().StringVar(&keyringPath, "keyring", keyring.DefaultPath(), "Path to the settings database")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Logging.Verbose = true
	}
	return cfg, nil
}

func newObserver(cfg *config.Config, out io.Writer) *observe.Observer {
	if cfg.Logging.Format == "json" {
		return observe.NewJSON(out, cfg.Logging.Verbose)
	}
	return observe.New(out, cfg.Logging.Verbose)
}

func openKeyring() (*keyring.Keyring, error) {
	k, err := keyring.Open(keyringPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings at %s: %w", keyringPath, err)
	}
	return k, nil
}
