// Command qei ranks quarterbacks by the QB Excellence Index from the command
// line and serves the ranking tools over MCP.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "qei",
		Short:         "QB Excellence Index",
		Long:          "qei scores NFL quarterbacks on team success, statistical performance, clutch play, durability and supporting cast, and ranks them by a weighted 0-100 index.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRankCmd(), newScoreCmd(), newImportCmd(), newTablesCmd(), newMCPCmd())
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
