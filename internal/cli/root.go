// Package cli is the host simulator's command line. It drives the calculator
// core with a virtual key matrix, an in-memory flash and a text screen.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/history"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Capacity int
}

// NewRootCommand creates the root command for the simulator.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "calcsim",
		Short: "Calcpad simulator",
		Long:  "Runs the calcpad calculator core on the host with a virtual keypad and a text display.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Capacity <= 0 {
				return fmt.Errorf("invalid capacity %d: must be positive", opts.Capacity)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging on stderr")
	cmd.PersistentFlags().IntVar(&opts.Capacity, "capacity", history.DefaultCapacity, "history entries kept")

	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewKeysCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}
