package timezone

import (
	"testing"
	"time"
)

func TestParseTimezone(t *testing.T) {
	tests := []struct {
		name    string
		tz      string
		wantErr bool
	}{
		{name: "UTC", tz: "UTC"},
		{name: "empty string defaults to UTC", tz: ""},
		{name: "America/New_York", tz: "America/New_York"},
		{name: "invalid timezone", tz: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseTimezone(tt.tz)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTimezone() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if loc == nil {
				t.Errorf("ParseTimezone() returned nil location")
			}
		})
	}
}

func TestIsValidTimezone(t *testing.T) {
	tests := []struct {
		tz   string
		want bool
	}{
		{"UTC", true},
		{"", true},
		{"Europe/Paris", true},
		{"Invalid/Timezone", false},
	}

	for _, tt := range tests {
		t.Run(tt.tz, func(t *testing.T) {
			if got := IsValidTimezone(tt.tz); got != tt.want {
				t.Errorf("IsValidTimezone() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStartOfDay(t *testing.T) {
	// 2025-01-21 14:30:00 UTC
	testTime := time.Date(2025, 1, 21, 14, 30, 0, 0, time.UTC)

	loc, _ := ParseTimezone("Asia/Tokyo")
	got := StartOfDay(testTime, loc)

	// 2025-01-21 23:30 in Tokyo, start of day is 2025-01-20 15:00 UTC
	want := time.Date(2025, 1, 20, 15, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got, want)
	}
}

func TestDaysBetween(t *testing.T) {
	ny, _ := ParseTimezone("America/New_York")

	tests := []struct {
		name string
		a, b time.Time
		tz   *time.Location
		want int
	}{
		{
			name: "same day",
			a:    time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC),
			tz:   time.UTC,
			want: 0,
		},
		{
			name: "ignores time of day",
			a:    time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 2, 15, 1, 0, 0, 0, time.UTC),
			tz:   time.UTC,
			want: 45,
		},
		{
			name: "across spring forward",
			a:    time.Date(2024, 3, 9, 0, 0, 0, 0, ny),
			b:    time.Date(2024, 3, 11, 0, 0, 0, 0, ny),
			tz:   ny,
			want: 2,
		},
		{
			name: "negative",
			a:    time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			tz:   time.UTC,
			want: -5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b, tt.tz); got != tt.want {
				t.Errorf("DaysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatAndParseDate(t *testing.T) {
	loc, _ := ParseTimezone("America/New_York")
	// 2025-01-21 00:00:00 UTC is still the 20th in New York.
	ts := time.Unix(1737417600, 0)
	if got := FormatDate(ts, loc); got != "2025-01-20" {
		t.Errorf("FormatDate() = %s, want 2025-01-20", got)
	}
	if got := FormatDate(ts, nil); got != "2025-01-21" {
		t.Errorf("FormatDate(nil) = %s, want 2025-01-21", got)
	}

	day, err := ParseDate("2025-03-09", loc)
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if got := FormatDate(AddDays(day, 1), loc); got != "2025-03-10" {
		t.Errorf("AddDays() across DST = %s, want 2025-03-10", got)
	}

	if _, err := ParseDate("2025/03/09", loc); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestToUserTimezone(t *testing.T) {
	loc, _ := ParseTimezone("America/New_York")
	got := ToUserTimezone(1737417600, loc)
	if got.Hour() != 19 || got.Day() != 20 {
		t.Errorf("ToUserTimezone() = %v, want 2025-01-20 19:00", got)
	}
}
