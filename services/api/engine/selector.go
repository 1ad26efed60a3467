package engine

import (
	"math"
	"time"

	"github.com/toirenavi/train-toilet-api/services/api/db"
)

// searchBound caps the candidate search; anything farther never wins and
// the stop falls back to defaults.
const searchBound = 999.0

// selectCandidate picks the time-available strategy whose car position is
// closest to the rider's car. Strategies arrive ordered by id and the first
// minimum is kept, so ties resolve to the lowest id. An unsurveyed car
// position counts as 0.0 for scoring. Returns nil when nothing survives.
func selectCandidate(strategies []db.ToiletStrategy, userCar int, now time.Time) (*db.ToiletStrategy, float64) {
	var best *db.ToiletStrategy
	minDist := searchBound

	for i := range strategies {
		cand := &strategies[i]
		if !isTimeAvailable(cand.AvailableTime, now) {
			continue
		}

		pos := 0.0
		if cand.CarPos != nil {
			pos = *cand.CarPos
		}

		dist := math.Abs(float64(userCar) - pos)
		if dist < minDist {
			minDist = dist
			best = cand
		}
	}

	if best == nil {
		return nil, fallbackDistance
	}
	return best, minDist
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
