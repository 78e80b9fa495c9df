package scrape

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/codit04/TechMCP/api/schemas"
	"github.com/codit04/TechMCP/internal/observability"
	"github.com/codit04/TechMCP/internal/portal"
)

// AttendancePath is the portal page with per-subject attendance percentages.
const AttendancePath = "Attendance/StudentPercentage"

const attendanceColumns = 10

// ParseAttendance extracts the attendance table (rendered as table#example)
// into one record per subject. Rows with fewer cells than expected are
// skipped with a warning rather than failing the whole scrape.
func ParseAttendance(page []byte) ([]schemas.SubjectAttendance, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing attendance page: %v", portal.ErrPageStructure, err)
	}

	table := doc.Find("table#example")
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: attendance page has no table with id %q", portal.ErrPageStructure, "example")
	}

	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		return nil, fmt.Errorf("%w: attendance table has no body rows", portal.ErrPageStructure)
	}

	logger := observability.GetLogger().Named("scrape")

	var out []schemas.SubjectAttendance
	rows.Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < attendanceColumns {
			logger.Warn("Skipping malformed attendance row",
				zap.Int("row", i), zap.Int("cells", cells.Length()))
			return
		}
		out = append(out, schemas.SubjectAttendance{
			CourseCode:           cellText(cells, 0),
			TotalHours:           safeInt(cellText(cells, 1)),
			ExemptedHours:        safeInt(cellText(cells, 2)),
			AbsentHours:          safeInt(cellText(cells, 3)),
			PresentHours:         safeInt(cellText(cells, 4)),
			AttendancePercentage: safeFloat(cellText(cells, 5)),
			ExemptionPercentage:  safeFloat(cellText(cells, 6)),
			ExemptionMedPct:      safeFloat(cellText(cells, 7)),
			AttendanceFrom:       cellText(cells, 8),
			AttendanceTo:         cellText(cells, 9),
		})
	})
	return out, nil
}

// safeInt converts table text to an int, treating '*' and junk as zero the
// way the portal's own summary rows do.
func safeInt(text string) int {
	text = strings.TrimSpace(text)
	if text == "" || text == "*" {
		return 0
	}
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return v
}

func safeFloat(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" || text == "*" {
		return 0
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return v
}
