package engine

import (
	"context"
	"log"
)

// liveCrowdEstimate averages the newest congestion reports for a fixture,
// rounded to one decimal place. Nil means no reports exist (or the fetch
// failed) and must not be read as "no congestion".
func (e *Engine) liveCrowdEstimate(ctx context.Context, toiletID string) *float64 {
	reports, err := e.repo.ListRecentReports(ctx, toiletID, e.reportLimit)
	if err != nil {
		log.Printf("predict: toilet %s: report fetch failed: %v", toiletID, err)
		return nil
	}
	if len(reports) == 0 {
		return nil
	}

	sum := 0
	for _, r := range reports {
		sum += r.Level
	}
	avg := round1(float64(sum) / float64(len(reports)))
	return &avg
}
