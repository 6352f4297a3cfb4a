package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/suno-demo/internal/api"
	"github.com/NielsdaWheelz/suno-demo/internal/runtime"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		obs := newObserver(cfg, cmd.ErrOrStderr())
		defer obs.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		startTracing(ctx, obs, cfg)

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

		unsubscribe := app.Events.SubscribeAll(func(e runtime.Event) {
			obs.Log().Debug().Str("event", string(e.Type)).Str("session_id", e.SessionID).Msg("workflow event")
		})
		defer unsubscribe()

		return api.New(app.Service, app.Media.Root(), obs).ListenAndServe(ctx, cfg.Addr)
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}
