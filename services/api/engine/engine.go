// Package engine implements the stop-and-car toilet recommendation pipeline:
// it resolves the current stop plus up to two stops ahead from the line
// adjacency table, picks the best placement fact per stop by car proximity,
// resolves a destination location, and folds in recent congestion reports.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/toirenavi/train-toilet-api/services/api/db"
)

// ErrPositionNotFound means the (line, station) linkage does not exist, so
// there is no position to recommend from. This is the only fatal error.
var ErrPositionNotFound = errors.New("current station not found on line")

// Location precision of a recommendation's destination coordinates.
const (
	LocationStation = "station"
	LocationExact   = "exact"
)

// Fallback values used when no placement fact survives filtering for a stop.
const (
	fallbackDistance = 99.0
	fallbackCar      = 1.0
	fallbackFacility = "investigating"
	fallbackPlatform = "platform"
)

// Repository is the read surface the engine depends on. *db.Store satisfies
// it; tests substitute an in-memory fake.
type Repository interface {
	GetLineStation(ctx context.Context, lineID, stationID string) (*db.LineStation, error)
	GetStation(ctx context.Context, stationID string) (*db.Station, error)
	ListStrategies(ctx context.Context, stationID string, direction int) ([]db.ToiletStrategy, error)
	GetToilet(ctx context.Context, toiletID string) (*db.Toilet, error)
	ListRecentReports(ctx context.Context, toiletID string, limit int) ([]db.CongestionReport, error)
}

// StopRecommendation is the per-stop result record.
type StopRecommendation struct {
	StationID      string   `json:"station_id"`
	StationName    string   `json:"station_name"`
	StopOrder      int      `json:"stop_order"`
	WalkingCars    float64  `json:"walking_cars"`
	TargetCar      float64  `json:"target_car"`
	FacilityType   string   `json:"facility_type"`
	CrowdLevel     int      `json:"crowd_level"`
	LiveCrowdLevel *float64 `json:"live_crowd_level,omitempty"`
	Notes          string   `json:"notes"`
	PlatformName   string   `json:"platform_name"`
	Message        string   `json:"message"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	LocationType   string   `json:"location_type"`
	ToiletID       string   `json:"toilet_id,omitempty"`
	ToiletName     string   `json:"toilet_name,omitempty"`
}

// Engine evaluates recommendations against an injected repository.
type Engine struct {
	repo         Repository
	reportLimit  int
	defaultCrowd int
	now          func() time.Time
}

// New constructs an Engine. reportLimit bounds how many recent congestion
// reports feed the live estimate; defaultCrowd is the baseline level used
// when a strategy carries none.
func New(repo Repository, reportLimit, defaultCrowd int) *Engine {
	return &Engine{
		repo:         repo,
		reportLimit:  reportLimit,
		defaultCrowd: defaultCrowd,
		now:          time.Now,
	}
}

type target struct {
	stationID string
	stopOrder int
}

// resolveTargets walks the precomputed adjacency pointers for the direction.
// Null pointers shorten the list; a terminus yields fewer than three stops.
func resolveTargets(link *db.LineStation, direction int) []target {
	next, nextNext := link.Dir1NextID, link.Dir1NextNext
	if direction == -1 {
		next, nextNext = link.DirM1NextID, link.DirM1NextNext
	}

	targets := []target{{stationID: link.StationID, stopOrder: 0}}
	if next != nil {
		targets = append(targets, target{stationID: *next, stopOrder: 1})
	}
	if nextNext != nil {
		targets = append(targets, target{stationID: *nextNext, stopOrder: 2})
	}
	return targets
}

// Predict returns one recommendation per reachable stop, in stop order.
// Any direction other than -1 follows the ascending chain.
func (e *Engine) Predict(ctx context.Context, lineID, stationID string, userCar, direction int) ([]StopRecommendation, error) {
	link, err := e.repo.GetLineStation(ctx, lineID, stationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, fmt.Errorf("line station lookup: %w", err)
	}

	targets := resolveTargets(link, direction)
	results := make([]StopRecommendation, len(targets))

	// Stops are independent; evaluate them concurrently and join in order.
	var wg sync.WaitGroup
	for i, tgt := range targets {
		wg.Add(1)
		go func(i int, tgt target) {
			defer wg.Done()
			results[i] = e.evaluateStop(ctx, tgt, userCar, direction)
		}(i, tgt)
	}
	wg.Wait()

	return results, nil
}

// evaluateStop runs the five-stage sub-pipeline for one target stop. Every
// failure past the station lookup degrades to the fallback record; nothing
// here aborts the sibling stops.
func (e *Engine) evaluateStop(ctx context.Context, tgt target, userCar, direction int) StopRecommendation {
	rec := StopRecommendation{
		StationID:    tgt.stationID,
		StopOrder:    tgt.stopOrder,
		WalkingCars:  fallbackDistance,
		TargetCar:    fallbackCar,
		FacilityType: fallbackFacility,
		CrowdLevel:   e.defaultCrowd,
		PlatformName: fallbackPlatform,
		LocationType: LocationStation,
	}

	station, err := e.repo.GetStation(ctx, tgt.stationID)
	if err != nil {
		log.Printf("predict: stop %d: station %s lookup failed: %v", tgt.stopOrder, tgt.stationID, err)
	} else {
		rec.StationName = station.Name
		rec.Latitude = nonZeroCoord(station.Lat)
		rec.Longitude = nonZeroCoord(station.Lng)
	}

	strategies, err := e.repo.ListStrategies(ctx, tgt.stationID, direction)
	if err != nil {
		log.Printf("predict: stop %d: strategy fetch failed: %v", tgt.stopOrder, err)
		strategies = nil
	}

	best, dist := selectCandidate(strategies, userCar, e.now())
	if best == nil {
		rec.Message = renderMessage(rec.WalkingCars)
		return rec
	}

	rec.WalkingCars = round1(dist)
	rec.TargetCar = fallbackCar
	// 0.0 is the "not yet surveyed" sentinel, not a valid position.
	if best.CarPos != nil && *best.CarPos != 0 {
		rec.TargetCar = *best.CarPos
	}
	rec.FacilityType = formatFacility(best.FacilityType)
	if best.CrowdLevel != nil {
		rec.CrowdLevel = *best.CrowdLevel
	}
	if best.RouteMemo != nil {
		rec.Notes = *best.RouteMemo
	}
	if best.PlatformName != nil && *best.PlatformName != "" {
		rec.PlatformName = *best.PlatformName
	}

	if best.TargetToiletID != nil && *best.TargetToiletID != "" {
		e.resolveFixture(ctx, *best.TargetToiletID, &rec)
	}

	rec.Message = renderMessage(rec.WalkingCars)
	return rec
}

// resolveFixture overrides the station-level destination with the fixture's
// coordinates when both are non-zero, and attaches the live crowd estimate.
// A fixture that fails to resolve leaves the stop at station precision.
func (e *Engine) resolveFixture(ctx context.Context, toiletID string, rec *StopRecommendation) {
	toilet, err := e.repo.GetToilet(ctx, toiletID)
	if err != nil {
		log.Printf("predict: stop %d: toilet %s lookup failed: %v", rec.StopOrder, toiletID, err)
		return
	}

	rec.ToiletID = toilet.ID
	rec.ToiletName = toilet.Name

	if lat, lng := nonZeroCoord(toilet.Lat), nonZeroCoord(toilet.Lng); lat != nil && lng != nil {
		rec.Latitude = lat
		rec.Longitude = lng
		rec.LocationType = LocationExact
	}

	rec.LiveCrowdLevel = e.liveCrowdEstimate(ctx, toilet.ID)
}

// nonZeroCoord treats zero coordinates as missing.
func nonZeroCoord(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}
