package cli

import (
	"github.com/spf13/cobra"
)

func newBooleanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boolean",
		Short: "Print custom text for true and false values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd)
		},
	}

	cmd.Flags().StringVar(&a.returnTrue, "return-true", "true", "text printed for true")
	cmd.Flags().StringVar(&a.returnFalse, "return-false", "false", "text printed for false")
	return cmd
}
