package cli

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/suno-demo/internal/ui"
	"github.com/NielsdaWheelz/suno-demo/internal/ui/tui"
)

var exploreOpts briefOptions

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Browse clusters interactively and ask for more like any of them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		spec, err := exploreOpts.resolve(cmd, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		// The terminal belongs to the explorer; workflow events are shown in its log pane.
		obs := newObserver(cfg, io.Discard)
		defer obs.Close()

		keys, err := openKeyring()
		if err == nil {
			defer keys.Close()
		}

		app, err := NewApp(cfg, obs, keys)
		if err != nil {
			return err
		}
		defer app.Close()

		model := tui.NewModel(cmd.Context(), app.Service, tui.Request{
			Brief:    spec.Brief,
			Params:   spec.Params,
			NumClips: spec.Clips,
		})
		program := tea.NewProgram(model,
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.OutOrStdout()),
			tea.WithMouseCellMotion(),
		)
		detach := ui.Attach(app.Events, tui.NewTUI(program))
		defer detach()

		final, err := program.Run()
		if err != nil {
			return fmt.Errorf("explorer: %w", err)
		}
		if m, ok := final.(tui.Model); ok && m.Err != nil {
			return m.Err
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(exploreCmd)
	exploreOpts.register(exploreCmd)
}
