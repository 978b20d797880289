package cli

import (
	"github.com/spf13/cobra"
)

func newNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "name",
		Short: "Show the display name the server assigns to a new connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd)
			if err != nil {
				return err
			}
			defer hangUp(c)

			name, err := c.Name()
			if err != nil {
				return err
			}

			newOutput(cmd).Print(NameResult{Name: name})
			return nil
		},
	}
}
