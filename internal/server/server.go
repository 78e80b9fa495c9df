// Package server runs the MCP server over stdio or SSE, per configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/codit04/TechMCP/internal/config"
	"github.com/codit04/TechMCP/internal/observability"
	"github.com/codit04/TechMCP/internal/tools"
)

const shutdownGrace = 10 * time.Second

// Server wraps the MCP server with the configured transport.
type Server struct {
	cfg    config.ServerConfig
	mcp    *mcp.Server
	logger *zap.Logger
}

// New builds the MCP server and registers the full tool surface.
func New(cfg config.ServerConfig, toolset *tools.Tools, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = observability.GetLogger().Named("server")
	}
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: version,
	}, nil)
	toolset.Register(s)
	return &Server{cfg: cfg, mcp: s, logger: logger}
}

// Run serves until ctx is cancelled. The stdio transport blocks on the
// client connection; the SSE transport runs an HTTP server that also
// exposes Prometheus metrics.
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Transport {
	case config.TransportStdio:
		s.logger.Info("Serving MCP over stdio")
		return s.mcp.Run(ctx, &mcp.StdioTransport{})
	case config.TransportSSE:
		return s.runSSE(ctx)
	default:
		return fmt.Errorf("unknown transport %q", s.cfg.Transport)
	}
}

func (s *Server) runSSE(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))

	mux := http.NewServeMux()
	mux.Handle("/sse", mcp.NewSSEHandler(func(*http.Request) *mcp.Server { return s.mcp }))
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Serving MCP over SSE", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down SSE server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
