package engine

import (
	"strings"
	"time"
)

// isTimeAvailable evaluates a comma-separated list of HH:MM-HH:MM ranges
// against the wall-clock time of day. Empty expressions, the literal "ALL",
// and anything unparseable count as always available (fail-open). A range
// whose start is later than its end wraps past midnight.
func isTimeAvailable(expr string, now time.Time) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "ALL" {
		return true
	}

	nowMin := now.Hour()*60 + now.Minute()

	for _, r := range strings.Split(expr, ",") {
		parts := strings.Split(r, "-")
		if len(parts) != 2 {
			return true
		}
		start, err := time.Parse("15:04", strings.TrimSpace(parts[0]))
		if err != nil {
			return true
		}
		end, err := time.Parse("15:04", strings.TrimSpace(parts[1]))
		if err != nil {
			return true
		}

		s := start.Hour()*60 + start.Minute()
		e := end.Hour()*60 + end.Minute()
		if s <= e {
			if s <= nowMin && nowMin <= e {
				return true
			}
		} else if nowMin >= s || nowMin <= e {
			return true
		}
	}
	return false
}
