// Command codeintel runs the code intelligence MCP server, and provides a
// standalone index subcommand for warming the metadata database without
// starting the protocol loop.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
