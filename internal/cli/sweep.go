package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one reconciliation sweep and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Service.Sweep(cmd.Context()); err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			fmt.Fprintln(out(cmd), "sweep complete")
			return nil
		},
	}
}
