package schemas

import "fmt"

// -- Portal Record Models --
// These types represent the parsed entities scraped from the e-campus portal.
// They are produced fresh on every scrape and never persisted.

// LabCourseMarks holds the continuous assessment scores for a lab course.
// CA1 and CA2 are each out of 25, Total out of 50, ConvTotal out of 60.
// A nil mark means the portal shows it as not yet published ('*' or blank).
type LabCourseMarks struct {
	SubjectCode string   `json:"subject_code"`
	SubjectName string   `json:"subject_name"`
	CA1         *float64 `json:"ca1_marks"`
	CA2         *float64 `json:"ca2_marks"`
	Total       *float64 `json:"total_marks"`
	ConvTotal   *float64 `json:"conv_total"`
}

// TheoryCourseMarks holds the continuous assessment scores for a theory
// course. T1/T2/retests are out of 30, Assignment out of 8, Tutorial out of
// 12, Total out of 50, ConvTotal out of 40.
type TheoryCourseMarks struct {
	SubjectCode string   `json:"subject_code"`
	SubjectName string   `json:"subject_name"`
	T1          *float64 `json:"t1_marks"`
	T2          *float64 `json:"t2_marks"`
	Retest      *float64 `json:"rt_marks"`
	Retest1     *float64 `json:"rt1_marks"`
	Retest2     *float64 `json:"rt2_marks"`
	TestTotal   *float64 `json:"test_total"`
	Assignment  *float64 `json:"ap_marks"`
	Tutorial    *float64 `json:"mpt_marks"`
	Total       *float64 `json:"total_marks"`
	ConvTotal   *float64 `json:"conv_total"`
}

// CAMarks groups the two marks tables the CA marks page renders.
type CAMarks struct {
	LabCourses    []LabCourseMarks    `json:"lab_courses"`
	TheoryCourses []TheoryCourseMarks `json:"theory_courses"`
}

// SubjectAttendance is one row of the attendance percentage table.
type SubjectAttendance struct {
	CourseCode           string  `json:"course_code"`
	TotalHours           int     `json:"total_hours"`
	ExemptedHours        int     `json:"exempted_hours"`
	AbsentHours          int     `json:"absent_hours"`
	PresentHours         int     `json:"present_hours"`
	AttendancePercentage float64 `json:"attendance_percentage"`
	ExemptionPercentage  float64 `json:"exemption_percentage"`
	ExemptionMedPct      float64 `json:"exemption_med_percentage"`
	AttendanceFrom       string  `json:"attendance_from"`
	AttendanceTo         string  `json:"attendance_to"`
}

// ClockTime is a time of day expressed as minutes since midnight. The
// timetable grid has no dates, only a fixed period clock, so a plain minute
// count keeps comparisons trivial.
type ClockTime int

// Clock builds a ClockTime from an hour and minute pair.
func Clock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// String renders the time in 24h HH:MM form.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// TimetableEntry is a single scheduled class in the weekly grid. A lab block
// spanning several periods is one entry whose End extends over the span.
type TimetableEntry struct {
	Day        string    `json:"day"`
	Period     int       `json:"period"`
	PeriodSpan int       `json:"period_span"`
	Start      ClockTime `json:"start_time"`
	End        ClockTime `json:"end_time"`
	CourseCode string    `json:"course_code"`
	CourseName string    `json:"course_name"`
	ClassInfo  string    `json:"class_info,omitempty"`
}

// CourseInfo is one entry of the course plan catalog.
type CourseInfo struct {
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
}
