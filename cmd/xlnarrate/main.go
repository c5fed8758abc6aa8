// Command xlnarrate renders spreadsheet operation plans as strategy text,
// manual GUI steps and spreadsheet-365 formulas.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/xlnarrate/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
