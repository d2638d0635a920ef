package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewKeysCommand creates the keys command.
func NewKeysCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys <token>...",
		Short: "Drive the virtual keypad and print the screen",
		Long: `Feed key tokens through the virtual key matrix, then print the screen.

Tokens:
  NAME           tap a key by name or symbol (KP7, 7, ENTER, F18, M3)
  +NAME, -NAME   press or release a key
  wait:DURATION  let time pass, running due timers (wait:1s)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sim, err := NewSim(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := applyTokens(sim, args); err != nil {
				return err
			}
			report(sim, cmd.OutOrStdout())
			return nil
		},
	}
	return cmd
}

func applyTokens(sim *Sim, tokens []string) error {
	for _, tok := range tokens {
		if err := sim.Apply(tok); err != nil {
			return err
		}
	}
	return nil
}

func report(sim *Sim, w io.Writer) {
	sim.Render(w)
	fmt.Fprintf(w, "keypad: %s, layer %d, %d timers pending\n",
		sim.Dev.Keys.Lock(), sim.Dev.Keys.Layer(), sim.Dev.Sched.Len())
	if len(sim.USB.Codes) > 0 {
		fmt.Fprintf(w, "usb: % x\n", sim.USB.Codes)
	}
}
