// Package tools implements the MCP tool surface over the portal scraper.
// Each tool group (marks, attendance, timetable, courses) lives in its own
// file; Register wires them all onto the server.
package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/codit04/TechMCP/api/schemas"
	"github.com/codit04/TechMCP/internal/observability"
	"github.com/codit04/TechMCP/internal/scrape"
)

// Tools holds the shared dependencies of every tool handler. Handlers are
// methods on it so the registration list stays flat.
type Tools struct {
	scraper       *scrape.Scraper
	logger        *zap.Logger
	minAttendance float64
	version       string

	// now is swapped out in tests to pin the schedule tools to a fixed
	// instant.
	now func() time.Time
}

// New builds the tool set. minAttendance is the default minimum percentage
// used by the bunk calculators when a call does not override it.
func New(scraper *scrape.Scraper, minAttendance float64, version string, logger *zap.Logger) *Tools {
	if logger == nil {
		logger = observability.GetLogger().Named("tools")
	}
	return &Tools{
		scraper:       scraper,
		logger:        logger,
		minAttendance: minAttendance,
		version:       version,
		now:           time.Now,
	}
}

// Register adds every tool to the server.
func (t *Tools) Register(server *mcp.Server) {
	t.registerMarksTools(server)
	t.registerAttendanceTools(server)
	t.registerTimetableTools(server)
	t.registerCourseTools(server)
	t.registerHealthTool(server)
}

// Meta is stamped onto every tool response so clients can correlate calls
// across the structured logs.
type Meta struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

func newMeta() Meta {
	return Meta{
		RequestID: uuid.NewString(),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// errorResult wraps a message as a failed tool call. Portal and lookup
// failures are reported this way rather than as protocol errors so the
// calling model sees the message and can react.
func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// observe records the call outcome metric and logs failures.
func (t *Tools) observe(tool string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		t.logger.Warn("Tool call failed", zap.String("tool", tool), zap.Error(err))
	}
	observability.ToolCalls.WithLabelValues(tool, outcome).Inc()
}

// matchSubject reports whether a query matches a subject's code or name,
// case-insensitively, on exact code or substring of either.
func matchSubject(query, code, name string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(code), q) ||
		strings.Contains(strings.ToLower(name), q)
}

// labCodes lists the subject codes of a marks snapshot, for not-found hints.
func labCodes(marks *schemas.CAMarks) []string {
	codes := make([]string, 0, len(marks.LabCourses)+len(marks.TheoryCourses))
	for _, c := range marks.LabCourses {
		codes = append(codes, c.SubjectCode)
	}
	for _, c := range marks.TheoryCourses {
		codes = append(codes, c.SubjectCode)
	}
	return codes
}

func attendanceCodes(records []schemas.SubjectAttendance) []string {
	codes := make([]string, 0, len(records))
	for _, r := range records {
		codes = append(codes, r.CourseCode)
	}
	return codes
}

func notFoundResult(kind, query string, available []string) *mcp.CallToolResult {
	return errorResult("%s %q not found; available subjects: %s",
		kind, query, strings.Join(available, ", "))
}
