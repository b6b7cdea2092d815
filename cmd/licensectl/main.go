// Command licensectl is an operator CLI for the licensing API.
package main

import (
	"fmt"
	"os"

	"github.com/testmatestudio/licensing/cmd/licensectl/cmd"
)

// Version is set by build flags.
var Version = "dev"

func main() {
	cmd.SetVersion(Version)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
