package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SubjectQueryInput selects one subject by code or by a name fragment.
type SubjectQueryInput struct {
	Subject string `json:"subject" jsonschema:"course code or part of the course name"`
}

// SubjectMark is one subject's score for a single assessment.
type SubjectMark struct {
	SubjectCode string   `json:"subject_code"`
	SubjectName string   `json:"subject_name"`
	CourseType  string   `json:"course_type"`
	Mark        *float64 `json:"mark"`
	Published   bool     `json:"published"`
}

// SubjectMarkOutput is the response for single-subject mark lookups.
type SubjectMarkOutput struct {
	Meta
	Assessment string      `json:"assessment"`
	Result     SubjectMark `json:"result"`
}

// AllMarksOutput is the response for whole-semester mark listings.
type AllMarksOutput struct {
	Meta
	Assessment string        `json:"assessment"`
	Marks      []SubjectMark `json:"marks"`
}

// SubjectListOutput lists every subject the marks page knows about.
type SubjectListOutput struct {
	Meta
	Subjects []SubjectRef `json:"subjects"`
}

// SubjectRef identifies a subject and whether it is a lab or theory course.
type SubjectRef struct {
	SubjectCode string `json:"subject_code"`
	SubjectName string `json:"subject_name"`
	CourseType  string `json:"course_type"`
}

const (
	courseTypeLab    = "lab"
	courseTypeTheory = "theory"
)

func (t *Tools) registerMarksTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_ca1_subject_mark",
		Description: "Get the CA1 (first continuous assessment) mark for one subject, by course code or name.",
	}, t.handleSubjectMark("get_ca1_subject_mark", "CA1"))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_ca2_subject_mark",
		Description: "Get the CA2 (second continuous assessment) mark for one subject, by course code or name.",
	}, t.handleSubjectMark("get_ca2_subject_mark", "CA2"))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_ca1_all_marks",
		Description: "Get CA1 marks for every registered subject, labs and theory courses both.",
	}, t.handleAllMarks("get_ca1_all_marks", "CA1"))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_ca2_all_marks",
		Description: "Get CA2 marks for every registered subject, labs and theory courses both.",
	}, t.handleAllMarks("get_ca2_all_marks", "CA2"))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_assignment_mark_by_subject",
		Description: "Get the assignment mark (out of 8) for one theory subject.",
	}, t.handleSubjectMark("get_assignment_mark_by_subject", "Assignment"))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_all_assignment_marks",
		Description: "Get assignment marks (out of 8) for every theory subject.",
	}, t.handleAllMarks("get_all_assignment_marks", "Assignment"))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_tutorial_marks_by_subject",
		Description: "Get the tutorial mark (out of 12) for one theory subject.",
	}, t.handleSubjectMark("get_tutorial_marks_by_subject", "Tutorial"))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_all_tutorial_marks",
		Description: "Get tutorial marks (out of 12) for every theory subject.",
	}, t.handleAllMarks("get_all_tutorial_marks", "Tutorial"))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_available_subjects",
		Description: "List every subject on the marks page with its course type (lab or theory).",
	}, t.handleListSubjects)
}

// assessmentMarks flattens the marks page into per-subject rows for one
// assessment. Assignment and tutorial exist only for theory courses.
func (t *Tools) assessmentMarks(ctx context.Context, assessment string) ([]SubjectMark, []string, error) {
	marks, err := t.scraper.CAMarks(ctx)
	if err != nil {
		return nil, nil, err
	}

	var rows []SubjectMark
	if assessment == "CA1" || assessment == "CA2" {
		for _, c := range marks.LabCourses {
			mark := c.CA1
			if assessment == "CA2" {
				mark = c.CA2
			}
			rows = append(rows, SubjectMark{
				SubjectCode: c.SubjectCode,
				SubjectName: c.SubjectName,
				CourseType:  courseTypeLab,
				Mark:        mark,
				Published:   mark != nil,
			})
		}
	}
	for _, c := range marks.TheoryCourses {
		var mark *float64
		switch assessment {
		case "CA1":
			mark = c.T1
		case "CA2":
			mark = c.T2
		case "Assignment":
			mark = c.Assignment
		case "Tutorial":
			mark = c.Tutorial
		}
		rows = append(rows, SubjectMark{
			SubjectCode: c.SubjectCode,
			SubjectName: c.SubjectName,
			CourseType:  courseTypeTheory,
			Mark:        mark,
			Published:   mark != nil,
		})
	}
	return rows, labCodes(marks), nil
}

func (t *Tools) handleSubjectMark(tool, assessment string) func(context.Context, *mcp.CallToolRequest, SubjectQueryInput) (*mcp.CallToolResult, SubjectMarkOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in SubjectQueryInput) (*mcp.CallToolResult, SubjectMarkOutput, error) {
		rows, codes, err := t.assessmentMarks(ctx, assessment)
		t.observe(tool, err)
		if err != nil {
			return errorResult("fetching marks: %v", err), SubjectMarkOutput{}, nil
		}
		for _, row := range rows {
			if matchSubject(in.Subject, row.SubjectCode, row.SubjectName) {
				return nil, SubjectMarkOutput{Meta: newMeta(), Assessment: assessment, Result: row}, nil
			}
		}
		return notFoundResult("subject", in.Subject, codes), SubjectMarkOutput{}, nil
	}
}

func (t *Tools) handleAllMarks(tool, assessment string) func(context.Context, *mcp.CallToolRequest, struct{}) (*mcp.CallToolResult, AllMarksOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, AllMarksOutput, error) {
		rows, _, err := t.assessmentMarks(ctx, assessment)
		t.observe(tool, err)
		if err != nil {
			return errorResult("fetching marks: %v", err), AllMarksOutput{}, nil
		}
		return nil, AllMarksOutput{Meta: newMeta(), Assessment: assessment, Marks: rows}, nil
	}
}

func (t *Tools) handleListSubjects(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, SubjectListOutput, error) {
	marks, err := t.scraper.CAMarks(ctx)
	t.observe("list_available_subjects", err)
	if err != nil {
		return errorResult("fetching marks: %v", err), SubjectListOutput{}, nil
	}

	subjects := make([]SubjectRef, 0, len(marks.LabCourses)+len(marks.TheoryCourses))
	for _, c := range marks.LabCourses {
		subjects = append(subjects, SubjectRef{c.SubjectCode, c.SubjectName, courseTypeLab})
	}
	for _, c := range marks.TheoryCourses {
		subjects = append(subjects, SubjectRef{c.SubjectCode, c.SubjectName, courseTypeTheory})
	}
	return nil, SubjectListOutput{Meta: newMeta(), Subjects: subjects}, nil
}
