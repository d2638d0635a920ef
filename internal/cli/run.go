package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a key script",
		Long: `Run a file of key tokens, as accepted by the keys command.

Lines are split like a shell command line; "#" starts a comment. Use "-" to
read the script from stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runScript(opts *RootOptions, path string, cmd *cobra.Command) error {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	sim, err := NewSim(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		tokens, err := shlex.Split(sc.Text())
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, n, err)
		}
		if err := applyTokens(sim, tokens); err != nil {
			return fmt.Errorf("%s:%d: %w", path, n, err)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	report(sim, cmd.OutOrStdout())
	return nil
}
