package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the tool surface and the portal client. They are
// registered on the default registry and served at /metrics by the SSE
// transport's HTTP server; with the stdio transport they still accumulate but
// are simply never scraped.
var (
	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "techmcp",
		Name:      "tool_calls_total",
		Help:      "Number of MCP tool invocations, by tool and outcome.",
	}, []string{"tool", "outcome"})

	PortalLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "techmcp",
		Name:      "portal_logins_total",
		Help:      "Number of portal login attempts, by outcome.",
	}, []string{"outcome"})

	ScrapeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "techmcp",
		Name:      "scrape_errors_total",
		Help:      "Number of scrape failures, by page.",
	}, []string{"page"})

	PortalFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "techmcp",
		Name:      "portal_fetch_duration_seconds",
		Help:      "Latency of authenticated portal page fetches.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"page"})
)
