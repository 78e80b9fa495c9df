package scrape

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/codit04/TechMCP/api/schemas"
	"github.com/codit04/TechMCP/internal/portal"
)

// TimetablePath is the portal page with the weekly timetable grid.
const TimetablePath = "Attendance/TimeTable"

// ParseTimetable extracts the weekly grid. Each row is a day (the day name
// in a th cell), each td a period cell; a colspan > 1 is a lab block that
// occupies several consecutive periods. Empty cells and "-" advance the
// period counter without producing an entry.
func ParseTimetable(page []byte) ([]schemas.TimetableEntry, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing timetable page: %v", portal.ErrPageStructure, err)
	}

	table := htmlquery.FindOne(doc, "//table[contains(@class,'timetable-table')]")
	if table == nil {
		table = htmlquery.FindOne(doc, "//table")
	}
	if table == nil {
		return nil, fmt.Errorf("%w: timetable page has no table", portal.ErrPageStructure)
	}

	rows := htmlquery.Find(table, ".//tbody/tr")
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: timetable has no body rows", portal.ErrPageStructure)
	}

	var entries []schemas.TimetableEntry
	for _, row := range rows {
		dayCell := htmlquery.FindOne(row, "./th")
		if dayCell == nil {
			continue
		}
		day := strings.TrimSpace(htmlquery.InnerText(dayCell))

		period := 1
		for _, cell := range htmlquery.Find(row, "./td") {
			span := colspan(cell)

			entry, ok := parseTimetableCell(cell)
			if ok {
				start, end, valid := periodRange(period, span)
				if valid {
					entry.Day = day
					entry.Period = period
					entry.PeriodSpan = span
					entry.Start = start
					entry.End = end
					entries = append(entries, entry)
				}
			}
			period += span
		}
	}
	return entries, nil
}

// parseTimetableCell pulls course code and name out of a period cell. Cells
// carry a div.tooltip-wrapper with the code in a b element and the full name
// in span.tooltip-text; anything before the code is section info.
func parseTimetableCell(cell *html.Node) (schemas.TimetableEntry, bool) {
	text := strings.TrimSpace(htmlquery.InnerText(cell))
	if text == "" || text == "-" {
		return schemas.TimetableEntry{}, false
	}

	wrapper := htmlquery.FindOne(cell, ".//div[contains(@class,'tooltip-wrapper')]")
	if wrapper == nil {
		return schemas.TimetableEntry{}, false
	}

	var entry schemas.TimetableEntry
	if code := htmlquery.FindOne(wrapper, ".//b"); code != nil {
		entry.CourseCode = strings.TrimSpace(htmlquery.InnerText(code))
	}
	if name := htmlquery.FindOne(wrapper, ".//span[contains(@class,'tooltip-text')]"); name != nil {
		entry.CourseName = strings.TrimSpace(htmlquery.InnerText(name))
	}
	entry.ClassInfo = textBeforeCode(wrapper)

	if entry.CourseCode == "" && entry.CourseName == "" {
		return schemas.TimetableEntry{}, false
	}
	return entry, true
}

// textBeforeCode collects the wrapper's leading text nodes, which hold the
// class/section label that precedes the bolded course code.
func textBeforeCode(wrapper *html.Node) string {
	var parts []string
	for child := wrapper.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == "b" {
			break
		}
		if t := strings.TrimSpace(htmlquery.InnerText(child)); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// periodRange maps a period and its span onto the period clock. A block
// starting outside the clock is dropped; a block running past the last
// period is clipped to it.
func periodRange(period, span int) (start, end schemas.ClockTime, ok bool) {
	first, ok := PeriodWindowFor(period)
	if !ok {
		return 0, 0, false
	}
	last, ok := PeriodWindowFor(period + span - 1)
	if !ok {
		last = PeriodClock[len(PeriodClock)-1]
	}
	return first.Start, last.End, true
}

func colspan(cell *html.Node) int {
	raw := htmlquery.SelectAttr(cell, "colspan")
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
