package deadline

import (
	"testing"
	"time"
)

func mustLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	return loc
}

func TestParseText_RelativeDayWords(t *testing.T) {
	loc := mustLoc(t)
	now := time.Date(2026, 2, 25, 9, 0, 0, 0, loc)

	cases := []struct {
		name string
		text string
		want time.Time
	}{
		{"today defaults to 23:59", "Quiz due today", time.Date(2026, 2, 25, 23, 59, 0, 0, loc)},
		{"tomorrow defaults to 23:59", "HW due tomorrow", time.Date(2026, 2, 26, 23, 59, 0, 0, loc)},
		{"today with pm clock", "Make-up exam today at 5:45 PM", time.Date(2026, 2, 25, 17, 45, 0, 0, loc)},
		{"tomorrow with am clock", "tomorrow 9:30 am", time.Date(2026, 2, 26, 9, 30, 0, 0, loc)},
		{"12 am maps to midnight hour", "today at 12:00 AM", time.Date(2026, 2, 25, 0, 0, 0, 0, loc)},
		{"12 pm stays noon", "today at 12:00 PM", time.Date(2026, 2, 25, 12, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseText(tc.text, now, loc)
			if got == nil {
				t.Fatalf("ParseText(%q) = nil, want %v", tc.text, tc.want)
			}
			if !got.Equal(tc.want) {
				t.Errorf("ParseText(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestParseText_ISODates(t *testing.T) {
	loc := mustLoc(t)
	now := time.Date(2026, 2, 25, 9, 0, 0, 0, loc)

	got := ParseText("Assignment: HW 3 due 2026-03-01 23:59", now, loc)
	want := time.Date(2026, 3, 1, 23, 59, 0, 0, loc)
	if got == nil || !got.Equal(want) {
		t.Fatalf("ISO with clock: got %v, want %v", got, want)
	}

	got = ParseText("final report 2026-03-08", now, loc)
	want = time.Date(2026, 3, 8, 23, 59, 0, 0, loc)
	if got == nil || !got.Equal(want) {
		t.Fatalf("ISO without clock should default to 23:59: got %v, want %v", got, want)
	}
}

func TestParseText_USDates(t *testing.T) {
	loc := mustLoc(t)
	now := time.Date(2026, 2, 25, 9, 0, 0, 0, loc)

	got := ParseText("Due on 3/8 11:59 PM", now, loc)
	want := time.Date(2026, 3, 8, 23, 59, 0, 0, loc)
	if got == nil || !got.Equal(want) {
		t.Fatalf("US date with pm clock: got %v, want %v", got, want)
	}

	got = ParseText("submit by 03/08/26", now, loc)
	if got == nil || got.Year() != 2026 {
		t.Fatalf("two-digit year should expand to 2026: got %v", got)
	}
}

func TestParseText_YearRollsForwardWhenFarInPast(t *testing.T) {
	loc := mustLoc(t)
	// Academic-year wraparound: in October a bare "1/15" means next January.
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, loc)

	got := ParseText("Project due 1/15", now, loc)
	if got == nil || got.Year() != 2027 {
		t.Fatalf("US date rollover: got %v, want year 2027", got)
	}

	got = ParseText("Register by Jan 15", now, loc)
	if got == nil || got.Year() != 2027 {
		t.Fatalf("month-word rollover: got %v, want year 2027", got)
	}

	// An explicit year is never rolled.
	got = ParseText("Retro due Jan 15, 2026", now, loc)
	if got == nil || got.Year() != 2026 {
		t.Fatalf("explicit year must be kept: got %v", got)
	}
}

func TestParseText_RecentPastStaysInYear(t *testing.T) {
	loc := mustLoc(t)
	now := time.Date(2026, 2, 25, 9, 0, 0, 0, loc)

	// 2/1 is in the past but well inside the 6-month window.
	got := ParseText("was due 2/1", now, loc)
	if got == nil || got.Year() != 2026 {
		t.Fatalf("recent past date must not roll: got %v", got)
	}
}

func TestParseText_MonthNames(t *testing.T) {
	loc := mustLoc(t)
	now := time.Date(2026, 2, 25, 9, 0, 0, 0, loc)

	got := ParseText("Essay due March 8 at 11:59 PM", now, loc)
	want := time.Date(2026, 3, 8, 23, 59, 0, 0, loc)
	if got == nil || !got.Equal(want) {
		t.Fatalf("month name with clock: got %v, want %v", got, want)
	}

	got = ParseText("Sept 3 quiz", now, loc)
	if got == nil || got.Month() != time.September || got.Day() != 3 {
		t.Fatalf("Sept abbreviation: got %v", got)
	}
}

func TestParseText_MidnightKeyword(t *testing.T) {
	loc := mustLoc(t)
	now := time.Date(2026, 2, 25, 9, 0, 0, 0, loc)

	got := ParseText("submit before midnight", now, loc)
	want := time.Date(2026, 2, 25, 23, 59, 0, 0, loc)
	if got == nil || !got.Equal(want) {
		t.Fatalf("midnight keyword: got %v, want %v", got, want)
	}
}

func TestParseText_NoMatch(t *testing.T) {
	loc := mustLoc(t)
	now := time.Date(2026, 2, 25, 9, 0, 0, 0, loc)

	for _, text := range []string{
		"Weekly campus newsletter",
		"Office hours are fun",
		"",
	} {
		if got := ParseText(text, now, loc); got != nil {
			t.Errorf("ParseText(%q) = %v, want nil", text, got)
		}
	}
}
