package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/codit04/TechMCP/internal/scrape"
)

// Fixture pages cover one lab course, two theory courses, two attendance
// rows and a two-day timetable.
const (
	marksPage = `
<table class="table">
  <tr><th colspan="6">Lab</th></tr>
  <tr><th>Code</th><th>Name</th><th>LT1</th><th>LT2</th><th>Total</th><th>Conv</th></tr>
  <tr><td>23XT57</td><td>DATA STRUCTURES LAB</td><td>18.5</td><td>19.0</td><td>37.5</td><td>45</td></tr>
</table>
<table class="table">
  <tr><th colspan="12">Theory</th></tr>
  <tr><th>Code</th><th>Name</th><th>T1</th><th>T2</th><th>RT</th><th>RT1</th><th>RT2</th><th>TestTotal</th><th>AP</th><th>MPT</th><th>Total</th><th>Conv</th></tr>
  <tr><td>23XT51</td><td>LINEAR ALGEBRA</td><td>24</td><td>26.5</td><td>*</td><td>*</td><td>*</td><td>50.5</td><td>7</td><td>10</td><td>42</td><td>34</td></tr>
  <tr><td>23XT52</td><td>PROBABILITY</td><td>*</td><td>*</td><td>*</td><td>*</td><td>*</td><td>*</td><td>*</td><td>*</td><td>*</td><td>*</td></tr>
</table>`

	attendancePage = `
<table id="example"><tbody>
  <tr><td>23XT51</td><td>40</td><td>0</td><td>4</td><td>36</td><td>90.00</td><td>90.00</td><td>90.00</td><td>01-07-2026</td><td>20-08-2026</td></tr>
  <tr><td>23XT52</td><td>38</td><td>2</td><td>10</td><td>28</td><td>73.68</td><td>78.94</td><td>78.94</td><td>01-07-2026</td><td>20-08-2026</td></tr>
</tbody></table>`

	timetablePage = `
<table class="timetable-table"><tbody>
<tr>
  <th>Monday</th>
  <td><div class="tooltip-wrapper"><b>23XT51</b><span class="tooltip-text">LINEAR ALGEBRA</span></div></td>
  <td>-</td>
  <td><div class="tooltip-wrapper"><b>23XT52</b><span class="tooltip-text">PROBABILITY</span></div></td>
  <td>-</td><td>-</td><td>-</td><td>-</td><td>-</td>
</tr>
<tr>
  <th>Tuesday</th>
  <td>-</td>
  <td><div class="tooltip-wrapper"><b>23XT57</b><span class="tooltip-text">DATA STRUCTURES LAB</span></div></td>
  <td>-</td><td>-</td><td>-</td><td>-</td><td>-</td><td>-</td>
</tr>
</tbody></table>`

	coursesPage = `
<div class="card"><h5>23XT51</h5><p>LINEAR ALGEBRA</p></div>
<div class="card"><h5>23XT52</h5><p>PROBABILITY</p></div>
<div class="card"><h5>23MX11</h5><p>MACHINE LEARNING</p></div>`
)

type fakeFetcher struct {
	pages    map[string]string
	loginErr error
}

func (f *fakeFetcher) Page(_ context.Context, path string) ([]byte, error) {
	page, ok := f.pages[path]
	if !ok {
		return nil, errors.New("no such page")
	}
	return []byte(page), nil
}

func (f *fakeFetcher) Login(context.Context) error { return f.loginErr }

// newTestTools builds a tool set over fixture pages with the clock pinned
// to Monday 2026-08-24 09:00.
func newTestTools(t *testing.T) *Tools {
	t.Helper()
	fake := &fakeFetcher{pages: map[string]string{
		scrape.MarksPath:      marksPage,
		scrape.AttendancePath: attendancePage,
		scrape.TimetablePath:  timetablePage,
		scrape.CoursesPath:    coursesPage,
	}}
	scraper := scrape.NewScraper(fake, time.Hour, zaptest.NewLogger(t))
	toolset := New(scraper, 75, "test", zaptest.NewLogger(t))
	toolset.now = func() time.Time {
		return time.Date(2026, 8, 24, 9, 0, 0, 0, time.Local)
	}
	return toolset
}

func callReq(name string) *mcp.CallToolRequest {
	return &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Name: name}}
}

func TestSubjectMarkByCodeAndName(t *testing.T) {
	toolset := newTestTools(t)
	handler := toolset.handleSubjectMark("get_ca1_subject_mark", "CA1")

	res, out, err := handler(context.Background(), callReq("get_ca1_subject_mark"), SubjectQueryInput{Subject: "23XT57"})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, "23XT57", out.Result.SubjectCode)
	assert.Equal(t, courseTypeLab, out.Result.CourseType)
	require.NotNil(t, out.Result.Mark)
	assert.InDelta(t, 18.5, *out.Result.Mark, 1e-9)
	assert.NotEmpty(t, out.RequestID)

	// Name fragments match case-insensitively.
	res, out, err = handler(context.Background(), callReq("get_ca1_subject_mark"), SubjectQueryInput{Subject: "linear"})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, "23XT51", out.Result.SubjectCode)
	assert.Equal(t, courseTypeTheory, out.Result.CourseType)
}

func TestSubjectMarkNotFoundListsAvailable(t *testing.T) {
	toolset := newTestTools(t)
	handler := toolset.handleSubjectMark("get_ca1_subject_mark", "CA1")

	res, _, err := handler(context.Background(), callReq("get_ca1_subject_mark"), SubjectQueryInput{Subject: "19Z999"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.IsError)

	text := res.Content[0].(*mcp.TextContent).Text
	assert.Contains(t, text, "19Z999")
	assert.Contains(t, text, "23XT51")
	assert.Contains(t, text, "23XT57")
}

func TestUnpublishedMarkIsNotAnError(t *testing.T) {
	toolset := newTestTools(t)
	handler := toolset.handleSubjectMark("get_ca2_subject_mark", "CA2")

	res, out, err := handler(context.Background(), callReq("get_ca2_subject_mark"), SubjectQueryInput{Subject: "23XT52"})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.False(t, out.Result.Published)
	assert.Nil(t, out.Result.Mark)
}

func TestAllAssignmentMarksAreTheoryOnly(t *testing.T) {
	toolset := newTestTools(t)
	handler := toolset.handleAllMarks("get_all_assignment_marks", "Assignment")

	res, out, err := handler(context.Background(), callReq("get_all_assignment_marks"), struct{}{})
	require.NoError(t, err)
	require.Nil(t, res)
	require.Len(t, out.Marks, 2)
	for _, m := range out.Marks {
		assert.Equal(t, courseTypeTheory, m.CourseType)
	}
}

func TestAllAttendanceIncludesOverall(t *testing.T) {
	toolset := newTestTools(t)

	res, out, err := toolset.handleAllAttendance(context.Background(), callReq("get_all_attendance_percentages"), struct{}{})
	require.NoError(t, err)
	require.Nil(t, res)
	require.Len(t, out.Records, 2)
	// (36+28)/(40+38)
	assert.InDelta(t, 82.05, out.OverallPercentage, 0.01)
}

func TestSubjectBunksDefaultAndOverride(t *testing.T) {
	toolset := newTestTools(t)

	res, out, err := toolset.handleSubjectBunks(context.Background(), callReq("get_subject_available_bunks"), BunkInput{CourseCode: "23xt51"})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.InDelta(t, 75.0, out.Result.MinAttendance, 1e-9)
	assert.Equal(t, 8, out.Result.AvailableBunks)

	res, out, err = toolset.handleSubjectBunks(context.Background(), callReq("get_subject_available_bunks"), BunkInput{CourseCode: "23XT51", MinAttendance: 90})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, 0, out.Result.AvailableBunks)
}

func TestSubjectBunksBelowMinimum(t *testing.T) {
	toolset := newTestTools(t)

	res, out, err := toolset.handleSubjectBunks(context.Background(), callReq("get_subject_available_bunks"), BunkInput{CourseCode: "23XT52"})
	require.NoError(t, err)
	require.Nil(t, res)
	// 28/38 is below 75%, so no slack at all.
	assert.Equal(t, 0, out.Result.AvailableBunks)
}

func TestAllBunksSummary(t *testing.T) {
	toolset := newTestTools(t)

	res, out, err := toolset.handleAllBunks(context.Background(), callReq("get_all_available_bunks"), AllBunksInput{})
	require.NoError(t, err)
	require.Nil(t, res)
	require.Len(t, out.Results, 2)
	// 23XT51 at 90% has slack; 23XT52 at 73.68% is under the line.
	assert.Equal(t, 1, out.SafeToBunk)
	assert.Equal(t, 1, out.BelowMinimum)
}

func TestNextClassLaterToday(t *testing.T) {
	toolset := newTestTools(t)

	// Monday 09:00: period 1 already started, so the next class is the
	// 10:30 one.
	res, out, err := toolset.handleNextClass(context.Background(), callReq("get_next_class"), struct{}{})
	require.NoError(t, err)
	require.Nil(t, res)
	require.True(t, out.Found)
	assert.Equal(t, "23XT52", out.Class.CourseCode)
	assert.Equal(t, "10:30", out.Class.StartTime)
	assert.Empty(t, out.Note)
}

func TestNextClassRollsToNextTeachingDay(t *testing.T) {
	toolset := newTestTools(t)
	toolset.now = func() time.Time {
		// Monday 18:00, after the last period.
		return time.Date(2026, 8, 24, 18, 0, 0, 0, time.Local)
	}

	res, out, err := toolset.handleNextClass(context.Background(), callReq("get_next_class"), struct{}{})
	require.NoError(t, err)
	require.Nil(t, res)
	require.True(t, out.Found)
	assert.Equal(t, "Tuesday", out.Class.Day)
	assert.Equal(t, "23XT57", out.Class.CourseCode)
	assert.Contains(t, out.Note, "Tuesday")
}

func TestScheduleFromNow(t *testing.T) {
	toolset := newTestTools(t)

	res, out, err := toolset.handleScheduleFromNow(context.Background(), callReq("get_schedule_from_now"), struct{}{})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, "Monday", out.Day)
	// 09:00: period 1 (ends 09:20) is still running and stays in the list.
	require.Len(t, out.Classes, 2)
	assert.Equal(t, "23XT51", out.Classes[0].CourseCode)
	assert.Equal(t, "23XT52", out.Classes[1].CourseCode)
}

func TestScheduleForDayValidation(t *testing.T) {
	toolset := newTestTools(t)

	res, out, err := toolset.handleScheduleForDay(context.Background(), callReq("get_schedule_for_day"), DayInput{Day: "tuesday"})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, "Tuesday", out.Day)
	require.Len(t, out.Classes, 1)

	res, _, err = toolset.handleScheduleForDay(context.Background(), callReq("get_schedule_for_day"), DayInput{Day: "Sunday"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.IsError)
}

func TestWeeklySchedule(t *testing.T) {
	toolset := newTestTools(t)

	res, out, err := toolset.handleWeeklySchedule(context.Background(), callReq("get_weekly_schedule"), struct{}{})
	require.NoError(t, err)
	require.Nil(t, res)
	require.Len(t, out.Days, 6)
	assert.Equal(t, "Monday", out.Days[0].Day)
	assert.Len(t, out.Days[0].Classes, 2)
	assert.Empty(t, out.Days[2].Classes)
	assert.Equal(t, "Monday", out.BusiestDay)
	assert.Equal(t, "Wednesday", out.LightestDay)
}

func TestBreakScheduleDuringLunch(t *testing.T) {
	toolset := newTestTools(t)
	toolset.now = func() time.Time {
		return time.Date(2026, 8, 24, 12, 30, 0, 0, time.Local)
	}

	res, out, err := toolset.handleBreakSchedule(context.Background(), callReq("get_break_schedule"), struct{}{})
	require.NoError(t, err)
	require.Nil(t, res)
	require.Len(t, out.Breaks, 3)
	require.NotNil(t, out.CurrentBreak)
	assert.Equal(t, "Lunch Break", out.CurrentBreak.Name)
	require.NotNil(t, out.NextBreak)
	assert.Equal(t, "Afternoon Break", out.NextBreak.Name)
}

func TestCourseSearchAndDetails(t *testing.T) {
	toolset := newTestTools(t)
	ctx := context.Background()

	res, list, err := toolset.handleSearchCourses(ctx, callReq("search_courses"), SearchCoursesInput{Query: "proba"})
	require.NoError(t, err)
	require.Nil(t, res)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "23XT52", list.Courses[0].CourseCode)

	res, details, err := toolset.handleCourseDetails(ctx, callReq("get_course_details"), SubjectQueryInput{Subject: "23mx11"})
	require.NoError(t, err)
	require.Nil(t, res)
	require.True(t, details.Found)
	assert.Equal(t, "MACHINE LEARNING", details.Course.CourseName)

	// A fragment matching several courses yields suggestions, not a pick.
	res, details, err = toolset.handleCourseDetails(ctx, callReq("get_course_details"), SubjectQueryInput{Subject: "23XT"})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.False(t, details.Found)
	assert.Len(t, details.Suggestions, 2)
}

func TestCoursesByDepartmentAndStatistics(t *testing.T) {
	toolset := newTestTools(t)
	ctx := context.Background()

	res, list, err := toolset.handleCoursesByDepartment(ctx, callReq("get_courses_by_department"), DepartmentInput{Department: "xt"})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, 2, list.Count)

	res, stats, err := toolset.handleCourseStatistics(ctx, callReq("get_course_statistics"), struct{}{})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, 3, stats.TotalCourses)
	require.Len(t, stats.Departments, 2)
	assert.Equal(t, "MX", stats.Departments[0].Department)
	assert.Equal(t, 1, stats.Departments[0].Count)
	assert.Equal(t, "XT", stats.Departments[1].Department)
	assert.Equal(t, 2, stats.Departments[1].Count)
}

func TestHealthCheck(t *testing.T) {
	toolset := newTestTools(t)

	res, out, err := toolset.handleHealthCheck(context.Background(), callReq("health_check"), struct{}{})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, "healthy", out.Status)
	assert.Equal(t, "test", out.Version)
}

func TestHealthCheckUnhealthyOnLoginFailure(t *testing.T) {
	fake := &fakeFetcher{
		pages:    map[string]string{},
		loginErr: errors.New("bad credentials"),
	}
	scraper := scrape.NewScraper(fake, time.Hour, zaptest.NewLogger(t))
	toolset := New(scraper, 75, "test", zaptest.NewLogger(t))

	res, out, err := toolset.handleHealthCheck(context.Background(), callReq("health_check"), struct{}{})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, "unhealthy", out.Status)
	assert.Contains(t, out.Error, "bad credentials")
}

func TestPortalFailureIsSoftError(t *testing.T) {
	fake := &fakeFetcher{pages: map[string]string{}}
	scraper := scrape.NewScraper(fake, time.Hour, zaptest.NewLogger(t))
	toolset := New(scraper, 75, "test", zaptest.NewLogger(t))

	res, _, err := toolset.handleAllAttendance(context.Background(), callReq("get_all_attendance_percentages"), struct{}{})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.IsError)
}
