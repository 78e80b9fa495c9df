// File: cmd/factory.go
package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/codit04/TechMCP/internal/config"
	"github.com/codit04/TechMCP/internal/observability"
	"github.com/codit04/TechMCP/internal/portal"
	"github.com/codit04/TechMCP/internal/scrape"
	"github.com/codit04/TechMCP/internal/server"
	"github.com/codit04/TechMCP/internal/tools"
)

// Components holds the initialized services behind the MCP server. The
// struct centralizes dependency wiring so serve and tests build the stack
// the same way.
type Components struct {
	Portal  *portal.Client
	Scraper *scrape.Scraper
	Tools   *tools.Tools
	Server  *server.Server

	Logger *zap.Logger
}

// NewComponents wires the portal client, scraper, tool set and MCP server
// from the loaded configuration.
func NewComponents(cfg *config.Config) (*Components, error) {
	logger := observability.GetLogger()

	client, err := portal.New(cfg.Portal, logger.Named("portal"))
	if err != nil {
		return nil, fmt.Errorf("building portal client: %w", err)
	}
	scraper := scrape.NewScraper(client, cfg.Scrape.CacheTTL, logger.Named("scrape"))
	toolset := tools.New(scraper, cfg.Scrape.MinAttendance, Version, logger.Named("tools"))
	srv := server.New(cfg.Server, toolset, Version, logger.Named("server"))

	return &Components{
		Portal:  client,
		Scraper: scraper,
		Tools:   toolset,
		Server:  srv,
		Logger:  logger,
	}, nil
}
