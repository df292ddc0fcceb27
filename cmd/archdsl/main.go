// Command archdsl parses, validates, compiles and runs archive metadata
// requests.
package main

import (
	"os"

	"github.com/roach88/archdsl/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
