package cli

import (
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// eventConnected is sent by the server when a stream opens
const eventConnected = "connected"

func newEventsCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream live match and tournament results",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			seen := 0
			return client.Events(ctx, func(ev Event) error {
				if ev.Name == eventConnected {
					return nil
				}
				out.Print(ev)
				seen++
				if count > 0 && seen >= count {
					return io.EOF
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many events (0 streams until interrupted)")

	return cmd
}
