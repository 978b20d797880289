package cli

import (
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/tictacnet/internal/client"
	"github.com/mcoot/tictacnet/internal/protocol"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <name>",
		Short: "Follow a session until its match is decided",
		Long: `Poll the session at --interval and print the board each time it changes.

Stops once there is a winner or a draw, when the session disappears,
or on Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := connect(cmd)
			if err != nil {
				return err
			}
			defer hangUp(c)

			out := newOutput(cmd)
			var last *protocol.ServerState
			for result := range client.Poll(ctx, c, args[0], cfg.Interval) {
				if result.Err != nil {
					return result.Err
				}
				if last != nil && reflect.DeepEqual(*last, result.State) {
					continue
				}
				if last != nil && cfg.Output == FormatText {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				out.Print(result.State)
				state := result.State
				last = &state
			}
			return nil
		},
	}
}
