package scrape

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/codit04/TechMCP/api/schemas"
	"github.com/codit04/TechMCP/internal/portal"
)

// MarksPath is the portal page listing continuous assessment marks.
const MarksPath = "ContinuousAssessment/CAMarksView"

const (
	labTableColumns     = 6
	theoryTableColumns  = 12
	markTableHeaderRows = 2
)

// ParseCAMarks extracts the lab and theory marks tables from the CA marks
// page. The page renders both as table.table; a header cell containing "LT1"
// marks the lab table, a plain "T1" header the theory table.
func ParseCAMarks(page []byte) (*schemas.CAMarks, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing CA marks page: %v", portal.ErrPageStructure, err)
	}

	marks := &schemas.CAMarks{}
	tables := 0

	doc.Find("table.table").Each(func(_ int, table *goquery.Selection) {
		headerText := table.Find("th").Map(func(_ int, th *goquery.Selection) string {
			return th.Text()
		})
		switch {
		case anyContains(headerText, "LT1"):
			marks.LabCourses = append(marks.LabCourses, parseLabTable(table)...)
			tables++
		case anyContains(headerText, "T1"):
			marks.TheoryCourses = append(marks.TheoryCourses, parseTheoryTable(table)...)
			tables++
		}
	})

	if tables == 0 {
		return nil, fmt.Errorf("%w: CA marks page contains no recognizable marks tables", portal.ErrPageStructure)
	}
	return marks, nil
}

func parseLabTable(table *goquery.Selection) []schemas.LabCourseMarks {
	var out []schemas.LabCourseMarks
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i < markTableHeaderRows {
			return
		}
		cells := row.Find("td")
		if cells.Length() < labTableColumns {
			return
		}
		out = append(out, schemas.LabCourseMarks{
			SubjectCode: cellText(cells, 0),
			SubjectName: cellText(cells, 1),
			CA1:         parseMark(cellText(cells, 2)),
			CA2:         parseMark(cellText(cells, 3)),
			Total:       parseMark(cellText(cells, 4)),
			ConvTotal:   parseMark(cellText(cells, 5)),
		})
	})
	return out
}

func parseTheoryTable(table *goquery.Selection) []schemas.TheoryCourseMarks {
	var out []schemas.TheoryCourseMarks
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i < markTableHeaderRows {
			return
		}
		cells := row.Find("td")
		if cells.Length() < theoryTableColumns {
			return
		}
		out = append(out, schemas.TheoryCourseMarks{
			SubjectCode: cellText(cells, 0),
			SubjectName: cellText(cells, 1),
			T1:          parseMark(cellText(cells, 2)),
			T2:          parseMark(cellText(cells, 3)),
			Retest:      parseMark(cellText(cells, 4)),
			Retest1:     parseMark(cellText(cells, 5)),
			Retest2:     parseMark(cellText(cells, 6)),
			TestTotal:   parseMark(cellText(cells, 7)),
			Assignment:  parseMark(cellText(cells, 8)),
			Tutorial:    parseMark(cellText(cells, 9)),
			Total:       parseMark(cellText(cells, 10)),
			ConvTotal:   parseMark(cellText(cells, 11)),
		})
	})
	return out
}

func cellText(cells *goquery.Selection, i int) string {
	return strings.TrimSpace(cells.Eq(i).Text())
}

// parseMark converts a marks cell into a float. The portal renders
// unpublished marks as '*' or an empty cell; those become nil.
func parseMark(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" || text == "*" {
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &v
}

func anyContains(haystacks []string, needle string) bool {
	for _, h := range haystacks {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}
