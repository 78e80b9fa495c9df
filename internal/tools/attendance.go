package tools

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codit04/TechMCP/api/schemas"
	"github.com/codit04/TechMCP/internal/metrics"
)

// CourseCodeInput selects one subject by its exact course code.
type CourseCodeInput struct {
	CourseCode string `json:"course_code" jsonschema:"exact course code as shown on the attendance page"`
}

// SubjectAttendanceOutput is the response for single-subject attendance
// lookups.
type SubjectAttendanceOutput struct {
	Meta
	Record schemas.SubjectAttendance `json:"record"`
}

// AllAttendanceOutput carries the full attendance table plus the overall
// percentage computed from summed hours.
type AllAttendanceOutput struct {
	Meta
	Records           []schemas.SubjectAttendance `json:"records"`
	OverallPercentage float64                     `json:"overall_percentage"`
}

// BunkInput selects a subject and optionally overrides the minimum
// attendance percentage to hold.
type BunkInput struct {
	CourseCode    string  `json:"course_code" jsonschema:"exact course code as shown on the attendance page"`
	MinAttendance float64 `json:"min_attendance,omitempty" jsonschema:"minimum attendance percentage to maintain, default 75"`
}

// AllBunksInput optionally overrides the minimum attendance percentage.
type AllBunksInput struct {
	MinAttendance float64 `json:"min_attendance,omitempty" jsonschema:"minimum attendance percentage to maintain, default 75"`
}

// SubjectBunks is the bunk allowance for one subject.
type SubjectBunks struct {
	CourseCode           string  `json:"course_code"`
	TotalHours           int     `json:"total_hours"`
	PresentHours         int     `json:"present_hours"`
	AttendancePercentage float64 `json:"attendance_percentage"`
	MinAttendance        float64 `json:"min_attendance"`
	AvailableBunks       int     `json:"available_bunks"`
}

// SubjectBunksOutput is the response for single-subject bunk lookups.
type SubjectBunksOutput struct {
	Meta
	Result SubjectBunks `json:"result"`
}

// AllBunksOutput is the response for whole-semester bunk listings.
type AllBunksOutput struct {
	Meta
	Results []SubjectBunks `json:"results"`
	// BelowMinimum counts subjects already under the minimum percentage;
	// SafeToBunk counts subjects with at least one hour of slack left.
	BelowMinimum int `json:"below_minimum_count"`
	SafeToBunk   int `json:"safe_to_bunk_count"`
}

func (t *Tools) registerAttendanceTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_subject_attendance_percentage",
		Description: "Get the attendance percentage for one subject by course code.",
	}, t.handleSubjectAttendance)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_all_attendance_percentages",
		Description: "Get attendance records for every subject plus the overall percentage.",
	}, t.handleAllAttendance)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_subject_present_hours",
		Description: "Get the hours attended for one subject by course code.",
	}, t.handleSubjectAttendance)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_all_present_hours",
		Description: "Get attended hours for every subject.",
	}, t.handleAllAttendance)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_subject_absent_hours",
		Description: "Get the hours missed for one subject by course code.",
	}, t.handleSubjectAttendance)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_all_absent_hours",
		Description: "Get missed hours for every subject.",
	}, t.handleAllAttendance)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_subject_available_bunks",
		Description: "Calculate how many more classes of one subject can be missed while staying above the minimum attendance percentage (default 75).",
	}, t.handleSubjectBunks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_all_available_bunks",
		Description: "Calculate remaining allowed absences for every subject at the minimum attendance percentage (default 75).",
	}, t.handleAllBunks)
}

// findAttendance matches a course code exactly, case-insensitively.
func findAttendance(records []schemas.SubjectAttendance, code string) (schemas.SubjectAttendance, bool) {
	want := strings.ToUpper(strings.TrimSpace(code))
	for _, r := range records {
		if strings.ToUpper(r.CourseCode) == want {
			return r, true
		}
	}
	return schemas.SubjectAttendance{}, false
}

func (t *Tools) handleSubjectAttendance(ctx context.Context, req *mcp.CallToolRequest, in CourseCodeInput) (*mcp.CallToolResult, SubjectAttendanceOutput, error) {
	records, err := t.scraper.Attendance(ctx)
	t.observe(req.Params.Name, err)
	if err != nil {
		return errorResult("fetching attendance: %v", err), SubjectAttendanceOutput{}, nil
	}
	record, ok := findAttendance(records, in.CourseCode)
	if !ok {
		return notFoundResult("course", in.CourseCode, attendanceCodes(records)), SubjectAttendanceOutput{}, nil
	}
	return nil, SubjectAttendanceOutput{Meta: newMeta(), Record: record}, nil
}

func (t *Tools) handleAllAttendance(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, AllAttendanceOutput, error) {
	records, err := t.scraper.Attendance(ctx)
	t.observe(req.Params.Name, err)
	if err != nil {
		return errorResult("fetching attendance: %v", err), AllAttendanceOutput{}, nil
	}
	return nil, AllAttendanceOutput{
		Meta:              newMeta(),
		Records:           records,
		OverallPercentage: metrics.OverallPercentage(records),
	}, nil
}

// minPct falls back to the configured default when the call leaves the
// override unset.
func (t *Tools) minPct(override float64) float64 {
	if override > 0 && override <= 100 {
		return override
	}
	return t.minAttendance
}

func subjectBunks(r schemas.SubjectAttendance, minPct float64) SubjectBunks {
	return SubjectBunks{
		CourseCode:           r.CourseCode,
		TotalHours:           r.TotalHours,
		PresentHours:         r.PresentHours,
		AttendancePercentage: r.AttendancePercentage,
		MinAttendance:        minPct,
		AvailableBunks:       metrics.AvailableBunks(r.TotalHours, r.PresentHours, minPct),
	}
}

func (t *Tools) handleSubjectBunks(ctx context.Context, req *mcp.CallToolRequest, in BunkInput) (*mcp.CallToolResult, SubjectBunksOutput, error) {
	records, err := t.scraper.Attendance(ctx)
	t.observe(req.Params.Name, err)
	if err != nil {
		return errorResult("fetching attendance: %v", err), SubjectBunksOutput{}, nil
	}
	record, ok := findAttendance(records, in.CourseCode)
	if !ok {
		return notFoundResult("course", in.CourseCode, attendanceCodes(records)), SubjectBunksOutput{}, nil
	}
	return nil, SubjectBunksOutput{
		Meta:   newMeta(),
		Result: subjectBunks(record, t.minPct(in.MinAttendance)),
	}, nil
}

func (t *Tools) handleAllBunks(ctx context.Context, req *mcp.CallToolRequest, in AllBunksInput) (*mcp.CallToolResult, AllBunksOutput, error) {
	records, err := t.scraper.Attendance(ctx)
	t.observe(req.Params.Name, err)
	if err != nil {
		return errorResult("fetching attendance: %v", err), AllBunksOutput{}, nil
	}
	minPct := t.minPct(in.MinAttendance)
	out := AllBunksOutput{Meta: newMeta()}
	for _, r := range records {
		b := subjectBunks(r, minPct)
		out.Results = append(out.Results, b)
		switch {
		case r.AttendancePercentage < minPct:
			out.BelowMinimum++
		case b.AvailableBunks > 0:
			out.SafeToBunk++
		}
	}
	return nil, out, nil
}
