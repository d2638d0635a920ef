package main

import (
	"fmt"
	"os"

	"github.com/tuffrabit/tinygo-calcpad-rp2040/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
