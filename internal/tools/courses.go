package tools

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codit04/TechMCP/api/schemas"
)

// SearchCoursesInput is a free-text course query.
type SearchCoursesInput struct {
	Query string `json:"query" jsonschema:"text to match against course codes and names"`
}

// CourseListOutput is the response for catalog listings and searches.
type CourseListOutput struct {
	Meta
	Courses []schemas.CourseInfo `json:"courses"`
	Count   int                  `json:"count"`
}

// CourseDetailsOutput is the response for a single-course lookup. When the
// code does not match, Suggestions carries near misses.
type CourseDetailsOutput struct {
	Meta
	Course      *schemas.CourseInfo  `json:"course,omitempty"`
	Found       bool                 `json:"found"`
	Suggestions []schemas.CourseInfo `json:"suggestions,omitempty"`
}

// DepartmentInput selects courses by the department letters embedded in the
// course code, e.g. "XT" in 23XT51.
type DepartmentInput struct {
	Department string `json:"department" jsonschema:"department letters from the course code, e.g. XT"`
}

// DepartmentCount is one department's share of the catalog.
type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// CourseStatisticsOutput summarizes the catalog.
type CourseStatisticsOutput struct {
	Meta
	TotalCourses int               `json:"total_courses"`
	Departments  []DepartmentCount `json:"departments"`
	CachedAt     string            `json:"cached_at,omitempty"`
}

// RefreshOutput reports a forced catalog refetch.
type RefreshOutput struct {
	Meta
	Courses int `json:"courses"`
}

func (t *Tools) registerCourseTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_all_courses",
		Description: "List every course in the registered course plan.",
	}, t.handleAllCourses)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_courses",
		Description: "Search the course plan by code or name fragment, case-insensitively.",
	}, t.handleSearchCourses)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_course_details",
		Description: "Look up one course by code or name; returns close matches when nothing matches exactly.",
	}, t.handleCourseDetails)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_courses_by_department",
		Description: "List courses whose code carries the given department letters, e.g. XT.",
	}, t.handleCoursesByDepartment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_course_statistics",
		Description: "Summarize the course plan: total count and per-department breakdown.",
	}, t.handleCourseStatistics)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "refresh_course_cache",
		Description: "Drop the cached course plan and fetch it fresh from the portal.",
	}, t.handleRefreshCourses)
}

func (t *Tools) handleAllCourses(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, CourseListOutput, error) {
	courses, err := t.scraper.Courses(ctx)
	t.observe(req.Params.Name, err)
	if err != nil {
		return errorResult("fetching course plan: %v", err), CourseListOutput{}, nil
	}
	return nil, CourseListOutput{Meta: newMeta(), Courses: courses, Count: len(courses)}, nil
}

func (t *Tools) handleSearchCourses(ctx context.Context, req *mcp.CallToolRequest, in SearchCoursesInput) (*mcp.CallToolResult, CourseListOutput, error) {
	courses, err := t.scraper.Courses(ctx)
	t.observe(req.Params.Name, err)
	if err != nil {
		return errorResult("fetching course plan: %v", err), CourseListOutput{}, nil
	}

	matches := []schemas.CourseInfo{}
	for _, c := range courses {
		if matchSubject(in.Query, c.CourseCode, c.CourseName) {
			matches = append(matches, c)
		}
	}
	return nil, CourseListOutput{Meta: newMeta(), Courses: matches, Count: len(matches)}, nil
}

func (t *Tools) handleCourseDetails(ctx context.Context, req *mcp.CallToolRequest, in SubjectQueryInput) (*mcp.CallToolResult, CourseDetailsOutput, error) {
	courses, err := t.scraper.Courses(ctx)
	t.observe(req.Params.Name, err)
	if err != nil {
		return errorResult("fetching course plan: %v", err), CourseDetailsOutput{}, nil
	}

	want := strings.ToUpper(strings.TrimSpace(in.Subject))
	for _, c := range courses {
		if strings.ToUpper(c.CourseCode) == want {
			return nil, CourseDetailsOutput{Meta: newMeta(), Course: &c, Found: true}, nil
		}
	}

	// No exact code hit; fall back to fragment matching and surface the
	// candidates as suggestions.
	var suggestions []schemas.CourseInfo
	for _, c := range courses {
		if matchSubject(in.Subject, c.CourseCode, c.CourseName) {
			suggestions = append(suggestions, c)
		}
	}
	if len(suggestions) == 1 {
		return nil, CourseDetailsOutput{Meta: newMeta(), Course: &suggestions[0], Found: true}, nil
	}
	return nil, CourseDetailsOutput{Meta: newMeta(), Found: false, Suggestions: suggestions}, nil
}

// departmentOf extracts the letter run from a course code, e.g. XT from
// 23XT51. Codes without letters map to the empty department.
func departmentOf(code string) string {
	var letters []rune
	for _, r := range code {
		if unicode.IsLetter(r) {
			letters = append(letters, unicode.ToUpper(r))
		} else if len(letters) > 0 {
			break
		}
	}
	return string(letters)
}

func (t *Tools) handleCoursesByDepartment(ctx context.Context, req *mcp.CallToolRequest, in DepartmentInput) (*mcp.CallToolResult, CourseListOutput, error) {
	courses, err := t.scraper.Courses(ctx)
	t.observe(req.Params.Name, err)
	if err != nil {
		return errorResult("fetching course plan: %v", err), CourseListOutput{}, nil
	}

	want := strings.ToUpper(strings.TrimSpace(in.Department))
	matches := []schemas.CourseInfo{}
	for _, c := range courses {
		if departmentOf(c.CourseCode) == want {
			matches = append(matches, c)
		}
	}
	return nil, CourseListOutput{Meta: newMeta(), Courses: matches, Count: len(matches)}, nil
}

func (t *Tools) handleCourseStatistics(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, CourseStatisticsOutput, error) {
	courses, err := t.scraper.Courses(ctx)
	t.observe(req.Params.Name, err)
	if err != nil {
		return errorResult("fetching course plan: %v", err), CourseStatisticsOutput{}, nil
	}

	counts := make(map[string]int)
	for _, c := range courses {
		counts[departmentOf(c.CourseCode)]++
	}
	departments := make([]DepartmentCount, 0, len(counts))
	for dept, n := range counts {
		departments = append(departments, DepartmentCount{Department: dept, Count: n})
	}
	sort.Slice(departments, func(i, j int) bool {
		return departments[i].Department < departments[j].Department
	})

	out := CourseStatisticsOutput{
		Meta:         newMeta(),
		TotalCourses: len(courses),
		Departments:  departments,
	}
	if at := t.scraper.CoursesCachedAt(); !at.IsZero() {
		out.CachedAt = at.Format(time.RFC3339)
	}
	return nil, out, nil
}

func (t *Tools) handleRefreshCourses(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, RefreshOutput, error) {
	courses, err := t.scraper.RefreshCourses(ctx)
	t.observe(req.Params.Name, err)
	if err != nil {
		return errorResult("refreshing course plan: %v", err), RefreshOutput{}, nil
	}
	return nil, RefreshOutput{Meta: newMeta(), Courses: len(courses)}, nil
}
