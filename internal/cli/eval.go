package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <expr>...",
		Short: "Evaluate expressions as if entered on the keypad",
		Long: `Evaluate each expression in order, then print the registers and history.

Expressions use the keypad syntax: left-to-right arithmetic on M1..M4, an
optional "M3=" or "M4=" assignment prefix, and a leading operator that
continues from M1.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runEval(opts *RootOptions, exprs []string, cmd *cobra.Command) error {
	sim, err := NewSim(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	failed := 0
	for _, expr := range exprs {
		res, err := sim.Dev.App.Evaluate(expr)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", expr, err)
			continue
		}
		fmt.Fprintf(out, "%s = %s\n", expr, res)
	}

	fmt.Fprintln(out)
	for _, line := range sim.Dev.App.Registers() {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
	for i, entry := range sim.Dev.App.History() {
		fmt.Fprintf(out, "%2d  %s\n", i+1, entry)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d expressions failed", failed, len(exprs))
	}
	return nil
}
