package digest

import (
	"testing"
	"time"

	"campusdigest/internal/model"
)

func due(t time.Time) *time.Time { return &t }

func TestMergeTasks_Idempotent(t *testing.T) {
	d := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	list := []model.Task{
		{Source: "canvas", Title: "HW 3", DueAt: due(d)},
		{Source: "canvas", Title: "Quiz 2", DueAt: due(d.Add(24 * time.Hour))},
		{Source: "canvas", Title: "Essay draft"},
	}

	merged := MergeTasks(list, list)
	if len(merged) != len(list) {
		t.Fatalf("merging a list with itself changed length: got %d, want %d", len(merged), len(list))
	}
	for i := range list {
		if merged[i].Title != list[i].Title {
			t.Errorf("order changed at %d: got %q, want %q", i, merged[i].Title, list[i].Title)
		}
	}
}

func TestMergeTasks_FirstSourceWins(t *testing.T) {
	d := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	primary := []model.Task{{Source: "outlook_canvas_mail", Title: "HW 3 (section A)", DueAt: due(d)}}
	fallback := []model.Task{{Source: "canvas", Title: "HW 3", DueAt: due(d)}}

	merged := MergeTasks(primary, fallback)
	if len(merged) != 1 {
		t.Fatalf("got %d tasks, want 1", len(merged))
	}
	if merged[0].Source != "outlook_canvas_mail" {
		t.Errorf("winner = %q, want the earlier-listed source", merged[0].Source)
	}
}

func TestMergeTasks_EqualTimesAcrossZonesDedup(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	utc := time.Date(2026, 3, 2, 7, 59, 0, 0, time.UTC)
	local := utc.In(loc)

	merged := MergeTasks(
		[]model.Task{{Source: "a", Title: "HW 3", DueAt: due(utc)}},
		[]model.Task{{Source: "b", Title: "hw 3!", DueAt: due(local)}},
	)
	if len(merged) != 1 {
		t.Fatalf("same instant in different zones must dedup, got %d", len(merged))
	}
}

func TestMergeTasks_UndatedPairDedups(t *testing.T) {
	merged := MergeTasks(
		[]model.Task{{Source: "a", Title: "Read chapter 4"}},
		[]model.Task{{Source: "b", Title: "read Chapter 4"}},
	)
	if len(merged) != 1 {
		t.Fatalf("undated tasks with equal normalized titles must dedup, got %d", len(merged))
	}
}

func TestMergeTasks_DiscardsGenericTitles(t *testing.T) {
	d := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	merged := MergeTasks([]model.Task{
		{Source: "canvas", Title: "This week's deadlines", DueAt: due(d)},
		{Source: "canvas", Title: "Course Announcement"},
		{Source: "canvas", Title: "HW 3", DueAt: due(d)},
	})
	if len(merged) != 1 || merged[0].Title != "HW 3" {
		t.Fatalf("generic titles must be discarded outright, got %+v", merged)
	}
}

func TestNormalizeTitleForKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"HW 3 (access code 9921)", "hw 3"},
		{"Quiz 2 — Chapter 7 (online)", "quiz 2 chapter 7"},
		{"  Final   Project!!  ", "final project"},
		{"Lab Report access code will follow", "lab report"},
	}
	for _, tc := range cases {
		if got := normalizeTitleForKey(tc.in); got != tc.want {
			t.Errorf("normalizeTitleForKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanTaskTitle(t *testing.T) {
	if got := CleanTaskTitle(" - Submit  homework 5 :"); got != "Submit homework 5" {
		t.Errorf("CleanTaskTitle = %q", got)
	}
	if got := CleanTaskTitle("   "); got != "Canvas task" {
		t.Errorf("empty title fallback = %q", got)
	}
}
