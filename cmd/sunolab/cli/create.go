package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/suno-demo/internal/api"
	"github.com/NielsdaWheelz/suno-demo/internal/store"
	"github.com/NielsdaWheelz/suno-demo/internal/ui"
)

var (
	createOpts briefOptions
	createJSON bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate one clustered batch from a brief",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		spec, err := createOpts.resolve(cmd, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		obs := newObserver(cfg, cmd.ErrOrStderr())
		defer obs.Close()
		startTracing(cmd.Context(), obs, cfg)

		keys, err := openKeyring()
		if err != nil {
			obs.Log().Warn().Err(err).Msg("settings unavailable, using environment")
		} else {
			defer keys.Close()
		}

		app, err := NewApp(cfg, obs, keys)
		if err != nil {
			return err
		}
		defer app.Close()

		if !createJSON {
			detach := ui.Attach(app.Events, ui.NewConsole(cmd.ErrOrStderr()))
			defer detach()
		}

		sess, err := app.Service.CreateInitialBatch(cmd.Context(), spec.Brief, spec.Params, spec.Clips)
		if err != nil {
			return err
		}
		batch, _ := sess.LastBatch()

		if createJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(api.CreateSessionResponse{
				SessionID: sess.ID,
				Batch:     api.NewBatchOut(batch),
			})
		}
		printBatch(cmd.OutOrStdout(), sess, batch)
		return nil
	},
}

func printBatch(w io.Writer, sess *store.Session, b store.Batch) {
	fmt.Fprintf(w, "session %s\n", sess.ID)
	fmt.Fprintf(w, "prompt  %s\n\n", b.PromptText)
	for _, c := range b.Clusters {
		fmt.Fprintf(w, "%s  (%s, %d tracks)\n", c.Label, c.ID, len(c.TrackIDs))
		for _, id := range c.TrackIDs {
			if t, ok := b.Track(id); ok {
				fmt.Fprintf(w, "  %s  %.1fs\n", t.AudioPath, t.DurationSec)
			}
		}
	}
}

func init() {
	RootCmd.AddCommand(createCmd)
	createOpts.register(createCmd)
	createCmd.Flags().BoolVar(&createJSON, "json", false, "Print the batch as JSON")
}
