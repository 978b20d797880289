package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mcoot/tictacnet/internal/protocol"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd)
			if err != nil {
				return err
			}
			defer hangUp(c)

			sessions, err := c.ListSessions()
			if err != nil {
				return err
			}

			newOutput(cmd).Print(sessions)
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a session's board and players",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd)
			if err != nil {
				return err
			}
			defer hangUp(c)

			state, err := c.Session(args[0])
			if err != nil {
				return err
			}
			if state.Status != protocol.StatusSuccess {
				return errors.New(state.Message)
			}

			newOutput(cmd).Print(state)
			return nil
		},
	}
}
