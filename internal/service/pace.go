package service

import (
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/model"
)

// Quarters are labelled Q1_2026 .. Q4_2026.
var quarterPattern = regexp.MustCompile(`Q(\d)_(\d{4})`)

// expectedProgress estimates where an objective should stand by now, as a
// percentage of elapsed time. Quarter labels win over due dates; a due date
// without a quarter is treated as the end of a 90-day window. Returns false
// when neither yields a usable estimate.
func expectedProgress(goal model.GoalPaceCandidate, now time.Time) (int, bool) {
	if goal.Quarter != nil {
		match := quarterPattern.FindStringSubmatch(*goal.Quarter)
		if match == nil {
			return 0, false
		}

		q, _ := strconv.Atoi(match[1])
		year, _ := strconv.Atoi(match[2])
		if q < 1 || q > 4 {
			return 0, false
		}

		start := time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		// Day zero of the following month is the quarter's last day.
		end := time.Date(year, time.Month(q*3+1), 0, 0, 0, 0, 0, time.UTC)

		totalDays := end.Sub(start).Hours() / 24
		elapsedDays := math.Max(0, now.Sub(start).Hours()/24)
		expected := int(math.Min(100, math.Round(elapsedDays/totalDays*100)))
		return expected, true
	}

	if goal.DueDate != nil {
		const totalDays = 90.0
		daysUntilDue := goal.DueDate.Sub(now).Hours() / 24
		elapsedDays := totalDays - daysUntilDue
		expected := int(math.Min(100, math.Max(0, math.Round(elapsedDays/totalDays*100))))
		return expected, true
	}

	return 0, false
}
