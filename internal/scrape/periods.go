package scrape

import "github.com/codit04/TechMCP/api/schemas"

// The portal's timetable grid has no times in it, only period columns. The
// campus runs a fixed period clock, so the parser and the schedule tools
// share these tables.

// PeriodCount is the number of teaching periods per day.
const PeriodCount = 8

// PeriodWindow is the start and end of one teaching period.
type PeriodWindow struct {
	Period int
	Start  schemas.ClockTime
	End    schemas.ClockTime
}

// PeriodClock lists the teaching periods in order.
var PeriodClock = []PeriodWindow{
	{1, schemas.Clock(8, 30), schemas.Clock(9, 20)},
	{2, schemas.Clock(9, 20), schemas.Clock(10, 10)},
	{3, schemas.Clock(10, 30), schemas.Clock(11, 20)},
	{4, schemas.Clock(11, 20), schemas.Clock(12, 10)},
	{5, schemas.Clock(13, 40), schemas.Clock(14, 30)},
	{6, schemas.Clock(14, 30), schemas.Clock(15, 20)},
	{7, schemas.Clock(15, 30), schemas.Clock(16, 20)},
	{8, schemas.Clock(16, 20), schemas.Clock(17, 10)},
}

// Break is a scheduled gap between periods.
type Break struct {
	Name  string
	Start schemas.ClockTime
	End   schemas.ClockTime
}

// Breaks lists the gaps in the period clock, in order.
var Breaks = []Break{
	{"Morning Break", schemas.Clock(10, 10), schemas.Clock(10, 30)},
	{"Lunch Break", schemas.Clock(12, 10), schemas.Clock(13, 40)},
	{"Afternoon Break", schemas.Clock(15, 20), schemas.Clock(15, 30)},
}

// Days lists the teaching days in portal order.
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// PeriodWindowFor returns the clock window of a period, and false for a
// period number outside the grid.
func PeriodWindowFor(period int) (PeriodWindow, bool) {
	if period < 1 || period > len(PeriodClock) {
		return PeriodWindow{}, false
	}
	return PeriodClock[period-1], true
}

// CurrentBreak returns the break containing t, if any.
func CurrentBreak(t schemas.ClockTime) (Break, bool) {
	for _, b := range Breaks {
		if b.Start <= t && t <= b.End {
			return b, true
		}
	}
	return Break{}, false
}

// CurrentPeriod returns the period containing t, or 0 when t is outside
// every teaching period. Break time is not a period.
func CurrentPeriod(t schemas.ClockTime) int {
	if _, inBreak := CurrentBreak(t); inBreak {
		return 0
	}
	for _, w := range PeriodClock {
		if w.Start <= t && t <= w.End {
			return w.Period
		}
	}
	return 0
}

// NextBreak returns the first break starting after t, if any remain today.
func NextBreak(t schemas.ClockTime) (Break, bool) {
	for _, b := range Breaks {
		if b.Start > t {
			return b, true
		}
	}
	return Break{}, false
}
