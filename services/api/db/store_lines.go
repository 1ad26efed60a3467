package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const listLinesSQL = `
    SELECT id, name, color, COALESCE(max_cars, 10)
    FROM lines
    ORDER BY name
`

// ListLines returns all line reference records.
func (s *Store) ListLines(ctx context.Context) ([]Line, error) {
	rows, err := s.pool.Query(ctx, listLinesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.Name, &l.Color, &l.MaxCars); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

const lineTerminalSQL = `
    SELECT s.name
    FROM line_stations ls
    JOIN stations s ON s.id = ls.station_id
    WHERE ls.line_id = $1
    ORDER BY ls.station_order DESC
    LIMIT 1
`

const lineOriginSQL = `
    SELECT s.name
    FROM line_stations ls
    JOIN stations s ON s.id = ls.station_id
    WHERE ls.line_id = $1
    ORDER BY ls.station_order ASC
    LIMIT 1
`

// GetLineTerminals returns the station names at the highest and lowest
// station order of a line, used as direction display labels.
func (s *Store) GetLineTerminals(ctx context.Context, lineID string) (last, first string, err error) {
	if err := s.pool.QueryRow(ctx, lineTerminalSQL, lineID).Scan(&last); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", ErrNotFound
		}
		return "", "", err
	}
	if err := s.pool.QueryRow(ctx, lineOriginSQL, lineID).Scan(&first); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", ErrNotFound
		}
		return "", "", err
	}
	return last, first, nil
}

// LineStationEntry is one ordered station of a line with display labels.
type LineStationEntry struct {
	StationID    string   `json:"id"`
	Name         string   `json:"name"`
	StationOrder int      `json:"order"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	Dir1Label    *string  `json:"dir_1_label,omitempty"`
	DirM1Label   *string  `json:"dir_m1_label,omitempty"`
}

const listLineStationsSQL = `
    SELECT s.id, s.name, ls.station_order, s.lat, s.lng, ls.dir_1_label, ls.dir_m1_label
    FROM line_stations ls
    JOIN stations s ON s.id = ls.station_id
    WHERE ls.line_id = $1
    ORDER BY ls.station_order
`

// ListLineStations returns the stations of a line in station order.
func (s *Store) ListLineStations(ctx context.Context, lineID string) ([]LineStationEntry, error) {
	rows, err := s.pool.Query(ctx, listLineStationsSQL, lineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]LineStationEntry, 0)
	for rows.Next() {
		var e LineStationEntry
		if err := rows.Scan(
			&e.StationID,
			&e.Name,
			&e.StationOrder,
			&e.Lat,
			&e.Lng,
			&e.Dir1Label,
			&e.DirM1Label,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const listLineIDsNearStationsSQL = `
    SELECT DISTINCT ls.line_id
    FROM line_stations ls
    JOIN stations s ON s.id = ls.station_id
    WHERE s.lat BETWEEN $1 AND $2 AND s.lng BETWEEN $3 AND $4
`

// ListLineIDsNear returns ids of lines serving any station inside the
// bounding box.
func (s *Store) ListLineIDsNear(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]string, error) {
	rows, err := s.pool.Query(ctx, listLineIDsNearStationsSQL, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const listStationToiletsInBoxSQL = `
    SELECT id, name, station_name, lat, lng,
           COALESCE(inside_gate, false), COALESCE(is_wheelchair_accessible, false)
    FROM toilets
    WHERE is_station_toilet
      AND lat BETWEEN $1 AND $2
      AND lng BETWEEN $3 AND $4
`

// ListStationToiletsInBox returns station toilets inside the bounding box.
func (s *Store) ListStationToiletsInBox(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]StationToilet, error) {
	rows, err := s.pool.Query(ctx, listStationToiletsInBoxSQL, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	toilets := make([]StationToilet, 0)
	for rows.Next() {
		var t StationToilet
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.StationName,
			&t.Lat,
			&t.Lng,
			&t.InsideGate,
			&t.WheelchairAccessible,
		); err != nil {
			return nil, err
		}
		toilets = append(toilets, t)
	}
	return toilets, rows.Err()
}
