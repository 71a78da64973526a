// Command gatehouse loads circuit wiring and plays the logic and comparison
// rooms built from it.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/gatehouse/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
