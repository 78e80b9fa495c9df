// File: cmd/serve.go
package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codit04/TechMCP/internal/config"
	"github.com/codit04/TechMCP/internal/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on the configured transport.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg := config.Get()
	components, err := NewComponents(cfg)
	if err != nil {
		return err
	}
	defer observability.Sync()

	components.Logger.Info("Server ready",
		zap.String("portal", cfg.Portal.BaseURL),
		zap.String("roll_number", cfg.Portal.RollNumber))

	return components.Server.Run(ctx)
}
