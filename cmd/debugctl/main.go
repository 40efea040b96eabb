// Command debugctl is the debug-control broker: a stdio JSON-RPC/MCP
// server exposing a symbolic debugger to an LLM agent.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "debugctl",
		Short: "Debug-control broker: exposes a symbolic debugger over stdio JSON-RPC",
	}
	root.AddCommand(newServeCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
