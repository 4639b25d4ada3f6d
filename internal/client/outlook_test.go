package client

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClip_CutsOnRuneBoundary(t *testing.T) {
	cases := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short ascii untouched", "hello", 240, "hello"},
		{"ascii cut at limit", "abcdef", 3, "abc"},
		{"cjk cut backs off mid-rune", "作业截止提醒", 4, "作"},
		{"cjk cut on exact boundary", "作业截止提醒", 6, "作业"},
		{"empty", "", 10, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := clip(tc.in, tc.n)
			if got != tc.want {
				t.Errorf("clip(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("clip produced invalid UTF-8: %q", got)
			}
		})
	}

	// A preview longer than the 240-byte bound must stay valid UTF-8 even
	// when the bound lands inside a multi-byte character.
	long := strings.Repeat("截", 100)
	if got := clip(long, 240); !utf8.ValidString(got) || len(got) > 240 {
		t.Errorf("clip(long, 240) = %d bytes, valid=%v", len(got), utf8.ValidString(got))
	}
}

func TestStripHTML_ReducesBodyToScannableText(t *testing.T) {
	in := `<html><body><p>HW 3 due <b>Friday</b></p><div>Submit&nbsp;on Canvas &amp; Gradescope</div></body></html>`
	got := stripHTML(in)

	if strings.ContainsAny(got, "<>") {
		t.Errorf("tags survived: %q", got)
	}
	for _, want := range []string{"HW 3 due", "Friday", "Submit on Canvas & Gradescope"} {
		if !strings.Contains(got, want) {
			t.Errorf("stripHTML output %q missing %q", got, want)
		}
	}
}
