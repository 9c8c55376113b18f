package review

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hrygo/veida/internal/timezone"
)

// ratioNumerators over ratioDenominator place reviews on a curve that is dense
// right after learning and stretches toward the exam. The last ratio is 1.
var ratioNumerators = []int{1, 4, 9, 15, 25, 34, 45}

const ratioDenominator = 45

// fixedOffsets are the day offsets of the fixed strategy.
var fixedOffsets = []int{1, 3, 7, 21, 30, 45, 60}

// shortGapDays is the largest creation-to-exam gap for which the fixed
// strategy appends the exam date itself.
const shortGapDays = 21

// dynamicSteps is the size of the dynamic interval table.
const dynamicSteps = 7

// ParseExamDate parses an exam date in UTC. See ParseExamDateIn.
func ParseExamDate(s string) (time.Time, error) {
	return ParseExamDateIn(s, time.UTC)
}

// ParseExamDateIn accepts "2006-01-02 15:04:05" or "2006-01-02" (start of day) in loc.
func ParseExamDateIn(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(timezone.DateTimeLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(timezone.DateLayout, s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
}

// RatioSchedule returns the review dates of a card learned on start for an
// exam on exam. Dates are calendar days in loc, ascending and unique. When the
// exam is today or already past the card is reviewed once, on start.
func RatioSchedule(start, exam time.Time, loc *time.Location) []string {
	day := timezone.StartOfDay(start, loc)
	totalDays := timezone.DaysBetween(start, exam, loc)
	if totalDays <= 0 {
		return []string{timezone.FormatDate(day, loc)}
	}

	dates := make([]string, 0, len(ratioNumerators))
	for _, numerator := range ratioNumerators {
		offset := totalDays * numerator / ratioDenominator
		dates = appendUnique(dates, timezone.FormatDate(timezone.AddDays(day, offset), loc))
	}
	return dates
}

// FixedOffsetSchedule returns the dates at the fixed offsets that fall on or
// before the exam. The exam date closes the schedule when the gap is short.
func FixedOffsetSchedule(start, exam time.Time, loc *time.Location) []string {
	day := timezone.StartOfDay(start, loc)
	totalDays := timezone.DaysBetween(start, exam, loc)
	if totalDays <= 0 {
		return []string{timezone.FormatDate(day, loc)}
	}

	dates := make([]string, 0, len(fixedOffsets)+1)
	for _, offset := range fixedOffsets {
		if offset > totalDays {
			break
		}
		dates = appendUnique(dates, timezone.FormatDate(timezone.AddDays(day, offset), loc))
	}
	if totalDays <= shortGapDays {
		dates = appendUnique(dates, timezone.FormatDate(timezone.AddDays(day, totalDays), loc))
	}
	return dates
}

// DynamicIntervals returns the interval table of the dynamic strategy: step i
// closes half of the remaining gap, rounded, and is never below one day.
// For totalDays = 100 it is [50 75 88 94 97 98 99].
func DynamicIntervals(totalDays int) []int {
	if totalDays <= 0 {
		return []int{1}
	}

	intervals := make([]int, dynamicSteps)
	for i := range intervals {
		interval := int(math.Round(float64(totalDays) * (1 - math.Pow(0.5, float64(i+1)))))
		intervals[i] = max(1, interval)
	}
	return intervals
}

// IntervalFor picks the interval for a card seen timesSeen times. Cards seen
// more often than the table is long keep the last interval.
func IntervalFor(intervals []int, timesSeen int) int {
	if len(intervals) == 0 {
		return 1
	}
	if timesSeen < 0 {
		timesSeen = 0
	}
	if timesSeen >= len(intervals) {
		return intervals[len(intervals)-1]
	}
	return intervals[timesSeen]
}

// NextStudyDate returns the next study date of a card seen timesSeen times,
// counted from now toward an exam on exam.
func NextStudyDate(now, exam time.Time, timesSeen int, loc *time.Location) string {
	totalDays := timezone.DaysBetween(now, exam, loc)
	interval := IntervalFor(DynamicIntervals(totalDays), timesSeen)
	return timezone.FormatDate(timezone.AddDays(timezone.StartOfDay(now, loc), interval), loc)
}

// ReviewDates computes the schedule of a card created on start. The dynamic
// strategy keeps no precomputed dates and returns an empty slice.
func (s Strategy) ReviewDates(start, exam time.Time, loc *time.Location) []string {
	switch s {
	case StrategyFixed:
		return FixedOffsetSchedule(start, exam, loc)
	case StrategyDynamic:
		return []string{}
	default:
		return RatioSchedule(start, exam, loc)
	}
}

// appendUnique appends date unless it equals the last entry. Inputs are
// ascending so this removes every duplicate.
func appendUnique(dates []string, date string) []string {
	if len(dates) > 0 && dates[len(dates)-1] == date {
		return dates
	}
	return append(dates, date)
}
