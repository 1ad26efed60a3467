package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Store wraps database access helpers.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool and verifies connectivity.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Station is a station reference record. Coordinates are nullable; a zero
// coordinate is treated as missing by callers.
type Station struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

// Line is a line reference record.
type Line struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	MaxCars int    `json:"max_cars"`
}

// LineStation is the adjacency row for one station on one line. Next-station
// pointers are null at line termini.
type LineStation struct {
	LineID        string
	StationID     string
	StationOrder  int
	Dir1NextID    *string
	Dir1NextNext  *string
	DirM1NextID   *string
	DirM1NextNext *string
	Dir1Label     *string
	DirM1Label    *string
}

// ToiletStrategy is a recorded toilet-placement fact for a station and
// direction. CarPos is null while the placement is unsurveyed.
type ToiletStrategy struct {
	ID             int64
	LineName       string
	StationID      string
	Direction      int
	PlatformName   *string
	CarPos         *float64
	FacilityType   string
	AvailableTime  string
	CrowdLevel     *int
	RouteMemo      *string
	TargetToiletID *string
}

// Toilet is a physical fixture record.
type Toilet struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

// StationToilet is a station-toilet row used by the nearby search.
type StationToilet struct {
	ID                   string
	Name                 string
	StationName          *string
	Lat                  float64
	Lng                  float64
	InsideGate           bool
	WheelchairAccessible bool
}

// CongestionReport is one rider-submitted congestion observation.
type CongestionReport struct {
	ID         string    `json:"id"`
	ToiletID   string    `json:"toilet_id"`
	Level      int       `json:"congestion_level"`
	ReporterID *string   `json:"reporter_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

const getLineStationSQL = `
    SELECT line_id, station_id, station_order,
           dir_1_next_station_id, dir_1_next_next_station_id,
           dir_m1_next_station_id, dir_m1_next_next_station_id,
           dir_1_label, dir_m1_label
    FROM line_stations
    WHERE line_id = $1 AND station_id = $2
`

// GetLineStation returns the adjacency row for (line, station).
func (s *Store) GetLineStation(ctx context.Context, lineID, stationID string) (*LineStation, error) {
	row := s.pool.QueryRow(ctx, getLineStationSQL, lineID, stationID)

	var ls LineStation
	if err := row.Scan(
		&ls.LineID,
		&ls.StationID,
		&ls.StationOrder,
		&ls.Dir1NextID,
		&ls.Dir1NextNext,
		&ls.DirM1NextID,
		&ls.DirM1NextNext,
		&ls.Dir1Label,
		&ls.DirM1Label,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ls, nil
}

const getStationSQL = `
    SELECT id, name, lat, lng
    FROM stations
    WHERE id = $1
`

// GetStation returns a single station record.
func (s *Store) GetStation(ctx context.Context, stationID string) (*Station, error) {
	row := s.pool.QueryRow(ctx, getStationSQL, stationID)

	var st Station
	if err := row.Scan(&st.ID, &st.Name, &st.Lat, &st.Lng); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

const listStrategiesSQL = `
    SELECT id, line_name, station_id, direction, platform_name, car_pos,
           facility_type, available_time, crowd_level, route_memo, target_toilet_id
    FROM toilet_strategies
    WHERE station_id = $1 AND direction = $2
    ORDER BY id
`

// ListStrategies returns all placement facts for (station, direction),
// ordered by id so selection ties resolve deterministically.
func (s *Store) ListStrategies(ctx context.Context, stationID string, direction int) ([]ToiletStrategy, error) {
	rows, err := s.pool.Query(ctx, listStrategiesSQL, stationID, direction)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	strategies := make([]ToiletStrategy, 0)
	for rows.Next() {
		var st ToiletStrategy
		var facility, available *string
		if err := rows.Scan(
			&st.ID,
			&st.LineName,
			&st.StationID,
			&st.Direction,
			&st.PlatformName,
			&st.CarPos,
			&facility,
			&available,
			&st.CrowdLevel,
			&st.RouteMemo,
			&st.TargetToiletID,
		); err != nil {
			return nil, err
		}
		if facility != nil {
			st.FacilityType = *facility
		}
		if available != nil {
			st.AvailableTime = *available
		}
		strategies = append(strategies, st)
	}
	return strategies, rows.Err()
}

const getToiletSQL = `
    SELECT id, name, lat, lng
    FROM toilets
    WHERE id = $1
`

// GetToilet returns a single fixture record.
func (s *Store) GetToilet(ctx context.Context, toiletID string) (*Toilet, error) {
	row := s.pool.QueryRow(ctx, getToiletSQL, toiletID)

	var t Toilet
	if err := row.Scan(&t.ID, &t.Name, &t.Lat, &t.Lng); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

const listRecentReportsSQL = `
    SELECT id, toilet_id, congestion_level, reporter_id, created_at
    FROM congestion_reports
    WHERE toilet_id = $1
    ORDER BY created_at DESC
    LIMIT $2
`

// ListRecentReports returns the newest congestion reports for a fixture.
func (s *Store) ListRecentReports(ctx context.Context, toiletID string, limit int) ([]CongestionReport, error) {
	rows, err := s.pool.Query(ctx, listRecentReportsSQL, toiletID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]CongestionReport, 0, limit)
	for rows.Next() {
		var r CongestionReport
		if err := rows.Scan(&r.ID, &r.ToiletID, &r.Level, &r.ReporterID, &r.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

const insertReportSQL = `
    INSERT INTO congestion_reports (id, toilet_id, congestion_level, reporter_id, created_at)
    VALUES ($1, $2, $3, $4, now())
`

// InsertReport appends a congestion report. The id must be supplied by the
// caller; reports are never updated or deleted.
func (s *Store) InsertReport(ctx context.Context, id, toiletID string, level int, reporterID *string) error {
	if _, err := s.pool.Exec(ctx, insertReportSQL, id, toiletID, level, reporterID); err != nil {
		return fmt.Errorf("failed to insert congestion report: %w", err)
	}
	return nil
}
