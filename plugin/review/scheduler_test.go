package review

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	require.NoError(t, err)
	return d
}

func TestParseExamDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "date and time",
			input: "2024-02-15 13:45:00",
			want:  time.Date(2024, 2, 15, 13, 45, 0, 0, time.UTC),
		},
		{
			name:  "date only is start of day",
			input: "2024-02-15",
			want:  time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "surrounding spaces",
			input: " 2024-02-15 ",
			want:  time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		},
		{name: "slashes", input: "2024/02/15", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "impossible day", input: "2024-02-30", wantErr: true},
		{name: "iso timestamp", input: "2024-02-15T13:45:00Z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExamDate(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidDateFormat), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParseExamDateIn(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	got, err := ParseExamDateIn("2024-06-01", paris)
	require.NoError(t, err)
	assert.Equal(t, paris, got.Location())
	assert.Equal(t, 0, got.Hour())
}

func TestRatioSchedule_FortyFiveDays(t *testing.T) {
	got := RatioSchedule(date(t, "2024-01-01"), date(t, "2024-02-15"), time.UTC)
	assert.Equal(t, []string{
		"2024-01-02",
		"2024-01-05",
		"2024-01-10",
		"2024-01-16",
		"2024-01-26",
		"2024-02-04",
		"2024-02-15",
	}, got)
}

func TestRatioSchedule_ExamNotAhead(t *testing.T) {
	start := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		exam time.Time
	}{
		{"exam today", date(t, "2024-03-10")},
		{"exam later today", time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)},
		{"exam passed", date(t, "2024-02-01")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []string{"2024-03-10"}, RatioSchedule(start, tt.exam, time.UTC))
		})
	}
}

func TestRatioSchedule_ShortGapCollapses(t *testing.T) {
	// Offsets floor(2*n/45) are 0,0,0,0,1,1,2.
	got := RatioSchedule(date(t, "2024-01-01"), date(t, "2024-01-03"), time.UTC)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, got)
}

func TestRatioSchedule_Properties(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	for totalDays := 1; totalDays <= 400; totalDays++ {
		exam := start.AddDate(0, 0, totalDays)
		examDate := exam.Format("2006-01-02")
		got := RatioSchedule(start, exam, time.UTC)

		require.NotEmpty(t, got, "total_days=%d", totalDays)
		assert.LessOrEqual(t, len(got), 7, "total_days=%d", totalDays)
		assert.Equal(t, examDate, got[len(got)-1], "total_days=%d: last date must be the exam", totalDays)
		assert.True(t, slices.IsSorted(got), "total_days=%d: %v not sorted", totalDays, got)
		assert.Len(t, slices.Compact(slices.Clone(got)), len(got), "total_days=%d: %v has duplicates", totalDays, got)
		for _, d := range got {
			assert.LessOrEqual(t, d, examDate)
		}
	}
}

func TestRatioSchedule_Deterministic(t *testing.T) {
	start, exam := date(t, "2024-05-01"), date(t, "2024-07-19")
	assert.Equal(t, RatioSchedule(start, exam, time.UTC), RatioSchedule(start, exam, time.UTC))
}

func TestRatioSchedule_CanonicalTimezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 03:00 UTC on Jan 2 is still Jan 1 in New York.
	start := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	exam, err := ParseExamDateIn("2024-02-15", ny)
	require.NoError(t, err)

	got := RatioSchedule(start, exam, ny)
	assert.Equal(t, "2024-01-02", got[0])
	assert.Equal(t, "2024-02-15", got[len(got)-1])
	assert.Len(t, got, 7)
}

func TestFixedOffsetSchedule(t *testing.T) {
	start := date(t, "2024-01-01")

	tests := []struct {
		name string
		exam string
		want []string
	}{
		{
			name: "long gap keeps offsets up to the exam",
			exam: "2024-02-15",
			want: []string{"2024-01-02", "2024-01-04", "2024-01-08", "2024-01-22", "2024-01-31", "2024-02-15"},
		},
		{
			name: "short gap appends the exam",
			exam: "2024-01-11",
			want: []string{"2024-01-02", "2024-01-04", "2024-01-08", "2024-01-11"},
		},
		{
			name: "exam on an offset is not repeated",
			exam: "2024-01-08",
			want: []string{"2024-01-02", "2024-01-04", "2024-01-08"},
		},
		{
			name: "twenty-one days",
			exam: "2024-01-22",
			want: []string{"2024-01-02", "2024-01-04", "2024-01-08", "2024-01-22"},
		},
		{
			name: "very long gap uses every offset",
			exam: "2024-06-01",
			want: []string{"2024-01-02", "2024-01-04", "2024-01-08", "2024-01-22", "2024-01-31", "2024-02-15", "2024-03-01"},
		},
		{
			name: "exam today",
			exam: "2024-01-01",
			want: []string{"2024-01-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FixedOffsetSchedule(start, date(t, tt.exam), time.UTC))
		})
	}
}

func TestDynamicIntervals(t *testing.T) {
	tests := []struct {
		totalDays int
		want      []int
	}{
		{100, []int{50, 75, 88, 94, 97, 98, 99}},
		{10, []int{5, 8, 9, 9, 10, 10, 10}},
		{1, []int{1, 1, 1, 1, 1, 1, 1}},
		{0, []int{1}},
		{-3, []int{1}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DynamicIntervals(tt.totalDays), "total_days=%d", tt.totalDays)
	}
}

func TestIntervalFor_Saturates(t *testing.T) {
	table := DynamicIntervals(100)

	assert.Equal(t, 50, IntervalFor(table, 0))
	assert.Equal(t, 75, IntervalFor(table, 1))
	for n := 7; n <= 50; n++ {
		assert.Equal(t, IntervalFor(table, 7), IntervalFor(table, n), "n=%d", n)
	}
	assert.Equal(t, 99, IntervalFor(table, 7))
	assert.Equal(t, 1, IntervalFor([]int{1}, 5))
}

func TestNextStudyDate(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	exam := date(t, "2024-04-10") // 100 days ahead

	tests := []struct {
		name      string
		timesSeen int
		exam      time.Time
		want      string
	}{
		{"never seen", 0, exam, "2024-02-20"},
		{"seen once", 1, exam, "2024-03-16"},
		{"saturated", 12, exam, "2024-04-09"},
		{"exam passed", 3, date(t, "2023-12-01"), "2024-01-02"},
		{"exam today", 0, date(t, "2024-01-01"), "2024-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStudyDate(now, tt.exam, tt.timesSeen, time.UTC))
		})
	}
}

func TestStrategy(t *testing.T) {
	start, exam := date(t, "2024-01-01"), date(t, "2024-02-15")

	assert.Equal(t, RatioSchedule(start, exam, time.UTC), StrategyRatio.ReviewDates(start, exam, time.UTC))
	assert.Equal(t, FixedOffsetSchedule(start, exam, time.UTC), StrategyFixed.ReviewDates(start, exam, time.UTC))
	assert.Empty(t, StrategyDynamic.ReviewDates(start, exam, time.UTC))

	assert.True(t, StrategyRatio.UsesReviewDates())
	assert.True(t, StrategyFixed.UsesReviewDates())
	assert.False(t, StrategyDynamic.UsesReviewDates())
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyRatio, false},
		{"ratio", StrategyRatio, false},
		{"fixed", StrategyFixed, false},
		{"dynamic", StrategyDynamic, false},
		{"sm2", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStrategy(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownStrategy)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
