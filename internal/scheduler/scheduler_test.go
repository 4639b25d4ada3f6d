package scheduler

import "testing"

func TestParseScheduleTime(t *testing.T) {
	cases := []struct {
		in           string
		hour, minute int
		wantErr      bool
	}{
		{"07:30", 7, 30, false},
		{"0:05", 0, 5, false},
		{"23:59", 23, 59, false},
		{" 9:00 ", 9, 0, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"730", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tc := range cases {
		hour, minute, err := parseScheduleTime(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseScheduleTime(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseScheduleTime(%q): %v", tc.in, err)
			continue
		}
		if hour != tc.hour || minute != tc.minute {
			t.Errorf("parseScheduleTime(%q) = %d:%d, want %d:%d", tc.in, hour, minute, tc.hour, tc.minute)
		}
	}
}
