package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codit04/TechMCP/api/schemas"
	"github.com/codit04/TechMCP/internal/scrape"
)

// ClassEntry is one scheduled class rendered with display times.
type ClassEntry struct {
	Day        string `json:"day"`
	Period     int    `json:"period"`
	PeriodSpan int    `json:"period_span"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	ClassInfo  string `json:"class_info,omitempty"`
}

// DayInput selects a teaching day by name.
type DayInput struct {
	Day string `json:"day" jsonschema:"day of the week, Monday through Saturday"`
}

// DayScheduleOutput is one day's classes in period order.
type DayScheduleOutput struct {
	Meta
	Day     string       `json:"day"`
	Classes []ClassEntry `json:"classes"`
}

// NextClassOutput reports the next upcoming class, looking past today when
// the teaching day is over.
type NextClassOutput struct {
	Meta
	Found bool        `json:"found"`
	Class *ClassEntry `json:"class,omitempty"`
	Note  string      `json:"note,omitempty"`
}

// DaySchedule pairs a day with its classes for the weekly listing.
type DaySchedule struct {
	Day     string       `json:"day"`
	Classes []ClassEntry `json:"classes"`
}

// WeeklyScheduleOutput is the full week in portal day order, with the
// busiest and lightest days by class count.
type WeeklyScheduleOutput struct {
	Meta
	Days        []DaySchedule `json:"days"`
	BusiestDay  string        `json:"busiest_day,omitempty"`
	LightestDay string        `json:"lightest_day,omitempty"`
}

// BreakEntry is one scheduled break.
type BreakEntry struct {
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// BreakScheduleOutput lists the daily breaks and, when called during the
// teaching day, the current and next break.
type BreakScheduleOutput struct {
	Meta
	Breaks       []BreakEntry `json:"breaks"`
	CurrentBreak *BreakEntry  `json:"current_break,omitempty"`
	NextBreak    *BreakEntry  `json:"next_break,omitempty"`
}

func (t *Tools) registerTimetableTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_next_class",
		Description: "Get the next upcoming class from the current time, rolling over to the next teaching day after hours.",
	}, t.handleNextClass)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_todays_schedule",
		Description: "Get today's full class schedule.",
	}, t.handleTodaysSchedule)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_tomorrows_schedule",
		Description: "Get tomorrow's full class schedule.",
	}, t.handleTomorrowsSchedule)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_schedule_for_day",
		Description: "Get the class schedule for a named day, Monday through Saturday.",
	}, t.handleScheduleForDay)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_schedule_from_now",
		Description: "Get the classes remaining today from the current time onwards.",
	}, t.handleScheduleFromNow)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_weekly_schedule",
		Description: "Get the complete weekly timetable, Monday through Saturday.",
	}, t.handleWeeklySchedule)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_break_schedule",
		Description: "Get the daily break times, and the current or next break when called during the teaching day.",
	}, t.handleBreakSchedule)
}

func classEntry(e schemas.TimetableEntry) ClassEntry {
	return ClassEntry{
		Day:        e.Day,
		Period:     e.Period,
		PeriodSpan: e.PeriodSpan,
		StartTime:  e.Start.String(),
		EndTime:    e.End.String(),
		CourseCode: e.CourseCode,
		CourseName: e.CourseName,
		ClassInfo:  e.ClassInfo,
	}
}

// dayEntries returns a day's classes sorted by period.
func dayEntries(entries []schemas.TimetableEntry, day string) []ClassEntry {
	var out []ClassEntry
	for _, e := range entries {
		if strings.EqualFold(e.Day, day) {
			out = append(out, classEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// dayName maps a weekday onto the portal's day labels; Sunday has no
// classes and returns false.
func dayName(wd time.Weekday) (string, bool) {
	if wd == time.Sunday {
		return "", false
	}
	return wd.String(), true
}

func clockOf(t time.Time) schemas.ClockTime {
	return schemas.Clock(t.Hour(), t.Minute())
}

func (t *Tools) handleNextClass(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, NextClassOutput, error) {
	entries, err := t.scraper.Timetable(ctx)
	t.observe(req.Params.Name, err)
	if err != nil {
		return errorResult("fetching timetable: %v", err), NextClassOutput{}, nil
	}

	now := t.now()
	cutoff := clockOf(now)
	// Scan up to a week ahead so Saturday evening resolves to Monday.
	for offset := 0; offset < 7; offset++ {
		day, teaching := dayName(now.AddDate(0, 0, offset).Weekday())
		if !teaching {
			continue
		}
		for _, class := range dayEntries(entries, day) {
			if offset == 0 {
				start, ok := parseClock(class.StartTime)
				if !ok || start <= cutoff {
					continue
				}
			}
			out := NextClassOutput{Meta: newMeta(), Found: true, Class: &class}
			if offset > 0 {
				out.Note = "no more classes today; next class is on " + day
			}
			return nil, out, nil
		}
	}
	return nil, NextClassOutput{Meta: newMeta(), Found: false, Note: "no classes found in the timetable"}, nil
}

// parseClock inverts ClockTime.String.
func parseClock(s string) (schemas.ClockTime, bool) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, false
	}
	return schemas.Clock(h, m), true
}

func (t *Tools) handleTodaysSchedule(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, DayScheduleOutput, error) {
	return t.scheduleForOffset(ctx, req.Params.Name, 0)
}

func (t *Tools) handleTomorrowsSchedule(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, DayScheduleOutput, error) {
	return t.scheduleForOffset(ctx, req.Params.Name, 1)
}

func (t *Tools) scheduleForOffset(ctx context.Context, tool string, offset int) (*mcp.CallToolResult, DayScheduleOutput, error) {
	entries, err := t.scraper.Timetable(ctx)
	t.observe(tool, err)
	if err != nil {
		return errorResult("fetching timetable: %v", err), DayScheduleOutput{}, nil
	}
	day, teaching := dayName(t.now().AddDate(0, 0, offset).Weekday())
	if !teaching {
		return nil, DayScheduleOutput{Meta: newMeta(), Day: "Sunday", Classes: []ClassEntry{}}, nil
	}
	return nil, DayScheduleOutput{Meta: newMeta(), Day: day, Classes: dayEntries(entries, day)}, nil
}

func (t *Tools) handleScheduleForDay(ctx context.Context, req *mcp.CallToolRequest, in DayInput) (*mcp.CallToolResult, DayScheduleOutput, error) {
	entries, err := t.scraper.Timetable(ctx)
	t.observe(req.Params.Name, err)
	if err != nil {
		return errorResult("fetching timetable: %v", err), DayScheduleOutput{}, nil
	}

	want := strings.TrimSpace(in.Day)
	for _, day := range scrape.Days {
		if strings.EqualFold(day, want) {
			return nil, DayScheduleOutput{Meta: newMeta(), Day: day, Classes: dayEntries(entries, day)}, nil
		}
	}
	return errorResult("unknown day %q; expected one of %s", in.Day, strings.Join(scrape.Days, ", ")), DayScheduleOutput{}, nil
}

func (t *Tools) handleScheduleFromNow(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, DayScheduleOutput, error) {
	entries, err := t.scraper.Timetable(ctx)
	t.observe(req.Params.Name, err)
	if err != nil {
		return errorResult("fetching timetable: %v", err), DayScheduleOutput{}, nil
	}

	now := t.now()
	day, teaching := dayName(now.Weekday())
	if !teaching {
		return nil, DayScheduleOutput{Meta: newMeta(), Day: "Sunday", Classes: []ClassEntry{}}, nil
	}

	cutoff := clockOf(now)
	remaining := []ClassEntry{}
	for _, class := range dayEntries(entries, day) {
		if end, ok := parseClock(class.EndTime); ok && end > cutoff {
			remaining = append(remaining, class)
		}
	}
	return nil, DayScheduleOutput{Meta: newMeta(), Day: day, Classes: remaining}, nil
}

func (t *Tools) handleWeeklySchedule(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, WeeklyScheduleOutput, error) {
	entries, err := t.scraper.Timetable(ctx)
	t.observe(req.Params.Name, err)
	if err != nil {
		return errorResult("fetching timetable: %v", err), WeeklyScheduleOutput{}, nil
	}

	out := WeeklyScheduleOutput{Meta: newMeta()}
	busiest, lightest := -1, -1
	for _, day := range scrape.Days {
		classes := dayEntries(entries, day)
		out.Days = append(out.Days, DaySchedule{Day: day, Classes: classes})
		if len(classes) > busiest {
			busiest = len(classes)
			out.BusiestDay = day
		}
		if lightest < 0 || len(classes) < lightest {
			lightest = len(classes)
			out.LightestDay = day
		}
	}
	return nil, out, nil
}

func (t *Tools) handleBreakSchedule(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, BreakScheduleOutput, error) {
	t.observe(req.Params.Name, nil)

	out := BreakScheduleOutput{Meta: newMeta()}
	for _, b := range scrape.Breaks {
		out.Breaks = append(out.Breaks, BreakEntry{b.Name, b.Start.String(), b.End.String()})
	}

	now := clockOf(t.now())
	if b, ok := scrape.CurrentBreak(now); ok {
		out.CurrentBreak = &BreakEntry{b.Name, b.Start.String(), b.End.String()}
	}
	if b, ok := scrape.NextBreak(now); ok {
		out.NextBreak = &BreakEntry{b.Name, b.Start.String(), b.End.String()}
	}
	return nil, out, nil
}
