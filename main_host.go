//go:build !tinygo

package main

import (
	"fmt"
	"os"

	"github.com/tuffrabit/tinygo-calcpad-rp2040/internal/cli"
)

// Off the device the firmware entry point runs the simulator.
func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
