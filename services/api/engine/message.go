package engine

import (
	"fmt"
	"strings"
)

// formatFacility renders a comma-separated facility tag list as a display
// label. An empty descriptor renders "unknown".
func formatFacility(code string) string {
	parts := strings.Split(code, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			labels = append(labels, p)
		}
	}
	if len(labels) == 0 {
		return "unknown"
	}
	return strings.Join(labels, " / ")
}

// renderMessage turns a distance in car units into the rider-facing phrase.
func renderMessage(walkingCars float64) string {
	switch {
	case walkingCars < 0.5:
		return "right outside, step off and you're there"
	case walkingCars <= 2.0:
		return "very close"
	default:
		return fmt.Sprintf("%.1f cars' walk", walkingCars)
	}
}
