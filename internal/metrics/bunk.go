package metrics

import (
	"math"

	"github.com/codit04/TechMCP/api/schemas"
)

// AvailableBunks computes how many future class hours can be missed while
// keeping attendance at or above minPct. The subject stays above the line
// when present/(total+k) >= minPct/100, so the answer is the largest k
// satisfying that, floored, never negative. A subject already below the
// minimum has no slack.
func AvailableBunks(totalHours, presentHours int, minPct float64) int {
	if totalHours <= 0 || minPct <= 0 {
		return 0
	}
	ratio := minPct / 100.0
	current := float64(presentHours) / float64(totalHours)
	if current < ratio {
		return 0
	}
	bunks := int(math.Floor((float64(presentHours) - ratio*float64(totalHours)) / ratio))
	if bunks < 0 {
		return 0
	}
	return bunks
}

// OverallPercentage is the attendance percentage across all subjects,
// computed from summed hours rather than averaged per-subject percentages.
func OverallPercentage(records []schemas.SubjectAttendance) float64 {
	var total, present int
	for _, r := range records {
		total += r.TotalHours
		present += r.PresentHours
	}
	if total == 0 {
		return 0
	}
	return float64(present) / float64(total) * 100.0
}
