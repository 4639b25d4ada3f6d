package deadline

import (
	"strings"
	"testing"
	"time"
)

func TestParseICS_ExtractsAssignmentFields(t *testing.T) {
	loc := mustLoc(t)
	ics := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"SUMMARY:Apply for the Bucky Awards",
		"DTSTART:20260301T235900Z",
		"DESCRIPTION:Complete the nomination form https://canvas.wisc.edu/courses/1/assignments/2",
		"URL:https://canvas.wisc.edu/courses/1/assignments/2",
		"CATEGORIES:Leadership",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n")

	tasks := ParseICS(ics, loc)
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	task := tasks[0]
	if task.Title != "Apply for the Bucky Awards" {
		t.Errorf("title = %q", task.Title)
	}
	if task.DueAt == nil {
		t.Fatal("due_at is nil")
	}
	want := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	if !task.DueAt.Equal(want) {
		t.Errorf("due_at = %v, want %v", task.DueAt, want)
	}
	if task.URL != "https://canvas.wisc.edu/courses/1/assignments/2" {
		t.Errorf("url = %q", task.URL)
	}
	if task.Course != "Leadership" {
		t.Errorf("course = %q", task.Course)
	}
}

func TestParseICS_ValueDateAllDayResolvesTo2359Local(t *testing.T) {
	loc := mustLoc(t)
	ics := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"SUMMARY:Register for the All-Campus Leadership Conference",
		"DTSTART;VALUE=DATE:20260228",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\n")

	tasks := ParseICS(ics, loc)
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	due := tasks[0].DueAt
	if due == nil {
		t.Fatal("due_at is nil")
	}
	want := time.Date(2026, 2, 28, 23, 59, 0, 0, loc)
	if !due.Equal(want) {
		t.Errorf("due_at = %v, want %v", due, want)
	}
	if due.Hour() != 23 || due.Minute() != 59 {
		t.Errorf("all-day event must resolve to 23:59, got %02d:%02d", due.Hour(), due.Minute())
	}
}

func TestParseICS_UnfoldsContinuationLines(t *testing.T) {
	loc := mustLoc(t)
	ics := strings.Join([]string{
		"BEGIN:VEVENT",
		"SUMMARY:Apply for the",
		" All-Campus Award",
		"DTSTART;VALUE=DATE:20260228",
		"END:VEVENT",
	}, "\r\n")

	tasks := ParseICS(ics, loc)
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if tasks[0].Title != "Apply for theAll-Campus Award" {
		t.Errorf("unfolded title = %q", tasks[0].Title)
	}
}

func TestParseICS_UnescapesText(t *testing.T) {
	loc := mustLoc(t)
	ics := strings.Join([]string{
		"BEGIN:VEVENT",
		`SUMMARY:Lab 4\, part two\; final`,
		`DESCRIPTION:line one\nline two`,
		"DTSTART;VALUE=DATE:20260228",
		"END:VEVENT",
	}, "\n")

	tasks := ParseICS(ics, loc)
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if tasks[0].Title != "Lab 4, part two; final" {
		t.Errorf("title = %q", tasks[0].Title)
	}
	if tasks[0].Details != "line one\nline two" {
		t.Errorf("details = %q", tasks[0].Details)
	}
}

func TestParseICS_DropsEventsWithoutDates(t *testing.T) {
	loc := mustLoc(t)
	ics := strings.Join([]string{
		"BEGIN:VEVENT",
		"SUMMARY:No dates here",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"SUMMARY:Has a date",
		"DTEND:20260301T120000Z",
		"END:VEVENT",
	}, "\n")

	tasks := ParseICS(ics, loc)
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1 (undated event dropped)", len(tasks))
	}
	if tasks[0].Title != "Has a date" {
		t.Errorf("surviving task = %q", tasks[0].Title)
	}
}

func TestParseICS_URLFallsBackToDescription(t *testing.T) {
	loc := mustLoc(t)
	ics := strings.Join([]string{
		"BEGIN:VEVENT",
		"SUMMARY:Scholarship deadline",
		"DESCRIPTION:Apply at https://example.edu/apply before the end of day.",
		"DTSTART;VALUE=DATE:20260315",
		"END:VEVENT",
	}, "\n")

	tasks := ParseICS(ics, loc)
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if tasks[0].URL != "https://example.edu/apply" {
		t.Errorf("url = %q", tasks[0].URL)
	}
}
