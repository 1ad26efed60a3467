package engine

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 6, 1, hour, min, 0, 0, time.UTC)
}

func TestIsTimeAvailable(t *testing.T) {
	cases := []struct {
		name string
		expr string
		now  time.Time
		want bool
	}{
		{"empty is unconditional", "", at(3, 0), true},
		{"ALL is unconditional", "ALL", at(3, 0), true},
		{"same-day window inside", "09:00-17:00", at(12, 0), true},
		{"same-day window outside", "09:00-17:00", at(20, 0), false},
		{"same-day window at start", "09:00-17:00", at(9, 0), true},
		{"same-day window at end", "09:00-17:00", at(17, 0), true},
		{"midnight wrap inside before midnight", "23:00-05:00", at(23, 30), true},
		{"midnight wrap inside after midnight", "23:00-05:00", at(0, 30), true},
		{"midnight wrap outside", "23:00-05:00", at(12, 0), false},
		{"second range matches", "06:00-08:00,20:00-22:00", at(21, 0), true},
		{"no range matches", "06:00-08:00,20:00-22:00", at(12, 0), false},
		{"malformed hour fails open", "9am-5pm", at(3, 0), true},
		{"missing dash fails open", "0900", at(3, 0), true},
		{"spaces around times", " 09:00 - 17:00 ", at(12, 0), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isTimeAvailable(tc.expr, tc.now); got != tc.want {
				t.Errorf("isTimeAvailable(%q, %v) = %v, want %v", tc.expr, tc.now.Format("15:04"), got, tc.want)
			}
		})
	}
}
