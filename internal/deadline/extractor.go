// Package deadline turns free text and ICS calendar feeds into due
// timestamps. Everything here is pure: callers pass the reference "now" and
// the local timezone explicitly.
package deadline

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	relDueRe = regexp.MustCompile(`\b(today|tomorrow)\b(?:\s+(?:at\s+)?)?(\d{1,2}:\d{2})?\s*(am|pm|AM|PM)?`)
	isoDueRe = regexp.MustCompile(`(20\d{2}-\d{1,2}-\d{1,2})(?:\s+(\d{1,2}:\d{2}))?`)
	usDueRe  = regexp.MustCompile(`(\d{1,2}/\d{1,2})(?:/(\d{2,4}))?(?:\s+(\d{1,2}:\d{2})\s*(AM|PM|am|pm)?)?`)

	monthDueRe = regexp.MustCompile(
		`\b(Jan|January|Feb|February|Mar|March|Apr|April|May|Jun|June|Jul|July|Aug|August|Sep|Sept|September|` +
			`Oct|October|Nov|November|Dec|December` +
			`)\s+(\d{1,2})(?:,\s*(20\d{2}))?(?:\s+(?:at\s+)?(\d{1,2}:\d{2})\s*(AM|PM|am|pm)?)?`)
)

var monthNumbers = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// backwardWindow is how far in the past a year-less date may land before the
// academic-year rollover bumps it into next year.
const backwardWindow = 180 * 24 * time.Hour

// ParseText extracts a due timestamp from a text span. Grammars are tried
// in a fixed order and the first match wins; a nil result means no deadline
// could be inferred.
func ParseText(text string, now time.Time, loc *time.Location) *time.Time {
	textLower := strings.ToLower(text)

	// 1. Relative day word: "today"/"tomorrow" with optional clock time.
	if m := relDueRe.FindStringSubmatch(text); m != nil {
		base := now.In(loc)
		if m[1] == "tomorrow" {
			base = base.AddDate(0, 0, 1)
		}
		hour, minute := clockOrDefault(m[2], m[3])
		t := time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, loc)
		return &t
	}

	// 2. ISO-like: 2026-03-08 23:59 or 2026-03-08.
	if m := isoDueRe.FindStringSubmatch(text); m != nil {
		if t, ok := parseISO(m[1], m[2], loc); ok {
			return &t
		}
	}

	// 3. US-like: 3/8 11:59 PM, 03/08/2026, 3/8.
	if m := usDueRe.FindStringSubmatch(text); m != nil {
		if t, ok := parseUS(m, now, loc); ok {
			return &t
		}
	}

	// 4. Month words: Mar 8, March 8 11:59 PM.
	if m := monthDueRe.FindStringSubmatch(text); m != nil {
		if t, ok := parseMonthWord(m, now, loc); ok {
			return &t
		}
		return nil
	}

	if strings.Contains(textLower, "midnight") {
		base := now.In(loc)
		t := time.Date(base.Year(), base.Month(), base.Day(), 23, 59, 0, 0, loc)
		return &t
	}
	return nil
}

// clockOrDefault parses "H:MM" with an optional am/pm marker, defaulting to
// 23:59 when no clock time was captured.
func clockOrDefault(timePart, ampm string) (int, int) {
	if timePart == "" {
		return 23, 59
	}
	parts := strings.SplitN(timePart, ":", 2)
	hour, _ := strconv.Atoi(parts[0])
	minute, _ := strconv.Atoi(parts[1])
	switch strings.ToLower(ampm) {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour, minute
}

// calendarDate builds a timestamp and rejects inputs that time.Date would
// silently normalize (e.g. 2/30).
func calendarDate(year, month, day, hour, minute int, loc *time.Location) (time.Time, bool) {
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func parseISO(datePart, timePart string, loc *time.Location) (time.Time, bool) {
	fields := strings.SplitN(datePart, "-", 3)
	year, _ := strconv.Atoi(fields[0])
	month, _ := strconv.Atoi(fields[1])
	day, _ := strconv.Atoi(fields[2])
	hour, minute := 23, 59
	if timePart != "" {
		hour, minute = clockOrDefault(timePart, "")
	}
	return calendarDate(year, month, day, hour, minute, loc)
}

func parseUS(m []string, now time.Time, loc *time.Location) (time.Time, bool) {
	md := strings.SplitN(m[1], "/", 2)
	month, _ := strconv.Atoi(md[0])
	day, _ := strconv.Atoi(md[1])

	yearGiven := m[2] != ""
	year := now.Year()
	if yearGiven {
		year, _ = strconv.Atoi(m[2])
		if year < 100 {
			year += 2000
		}
	}

	hour, minute := clockOrDefault(m[3], m[4])
	parsed, ok := calendarDate(year, month, day, hour, minute, loc)
	if !ok {
		return time.Time{}, false
	}
	if !yearGiven && parsed.Before(now.Add(-backwardWindow)) {
		if rolled, ok := calendarDate(year+1, month, day, hour, minute, loc); ok {
			parsed = rolled
		}
	}
	return parsed, true
}

func parseMonthWord(m []string, now time.Time, loc *time.Location) (time.Time, bool) {
	month := monthNumbers[strings.ToLower(m[1])[:3]]
	day, _ := strconv.Atoi(m[2])

	yearGiven := m[3] != ""
	year := now.Year()
	if yearGiven {
		year, _ = strconv.Atoi(m[3])
	}

	hour, minute := clockOrDefault(m[4], m[5])
	parsed, ok := calendarDate(year, month, day, hour, minute, loc)
	if !ok {
		return time.Time{}, false
	}
	if !yearGiven && parsed.Before(now.Add(-backwardWindow)) {
		if rolled, ok := calendarDate(year+1, month, day, hour, minute, loc); ok {
			parsed = rolled
		}
	}
	return parsed, true
}
