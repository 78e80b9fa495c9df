package tools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// HealthOutput reports whether a full login and scrape cycle against the
// portal succeeds.
type HealthOutput struct {
	Meta
	Status    string `json:"status"`
	Version   string `json:"version"`
	Portal    string `json:"portal"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

func (t *Tools) registerHealthTool(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "health_check",
		Description: "Verify the portal login and a test scrape end to end; reports server version and round-trip latency.",
	}, t.handleHealthCheck)
}

func (t *Tools) handleHealthCheck(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, HealthOutput, error) {
	start := time.Now()
	err := t.scraper.HealthCheck(ctx)
	t.observe(req.Params.Name, err)

	out := HealthOutput{
		Meta:      newMeta(),
		Version:   t.version,
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		out.Status = "unhealthy"
		out.Portal = "unreachable"
		out.Error = err.Error()
		return nil, out, nil
	}
	out.Status = "healthy"
	out.Portal = "reachable"
	return nil, out, nil
}
