// File: cmd/version.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the release version stamped into builds and reported by the
// health check tool.
const Version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the TechMCP version.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("techmcp %s\n", Version)
	},
}
