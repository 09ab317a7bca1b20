// Command agent is the node-resident process that executes deployment
// commands against the local Docker + K3s host, described in full by
// spec.md / SPEC_FULL.md at the repository root.
package main

import (
	"fmt"
	"os"

	"github.com/deploypilot/node-agent/cmd/agent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
