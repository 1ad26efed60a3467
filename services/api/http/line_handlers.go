package http

import (
	"context"
	"log"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	lineCacheKey    = "lines:all"
	nearbyLineBox   = 0.03
	nearbyToiletBox = 0.05
)

// LineInfo is one selectable line with direction display labels resolved
// from its terminal stations.
type LineInfo struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Color               string `json:"color"`
	Direction1Name      string `json:"direction_1_name"`
	DirectionMinus1Name string `json:"direction_minus_1_name"`
	MaxCars             int    `json:"max_cars"`
}

// handleListLines returns all lines, or only lines serving a station near
// the given coordinates. The unfiltered response is cached; line reference
// data changes rarely.
// GET /lines?lat&lng
func (s *Server) handleListLines(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	filtered := latErr == nil && lngErr == nil

	if !filtered {
		if cached, err := s.lineCache.Get(lineCacheKey); err == nil {
			c.JSON(http.StatusOK, cached.([]LineInfo))
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	lines, err := s.store.ListLines(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if filtered {
		ids, err := s.store.ListLineIDsNear(ctx, lat-nearbyLineBox, lat+nearbyLineBox, lng-nearbyLineBox, lng+nearbyLineBox)
		if err != nil {
			log.Printf("lines: nearby filter failed, returning all: %v", err)
		} else if len(ids) > 0 {
			nearby := make(map[string]bool, len(ids))
			for _, id := range ids {
				nearby[id] = true
			}
			kept := lines[:0]
			for _, l := range lines {
				if nearby[l.ID] {
					kept = append(kept, l)
				}
			}
			lines = kept
		}
	}

	result := make([]LineInfo, 0, len(lines))
	for _, l := range lines {
		dir1, dirM1 := s.lineDirectionNames(ctx, l.ID)
		result = append(result, LineInfo{
			ID:                  l.ID,
			Name:                l.Name,
			Color:               l.Color,
			Direction1Name:      dir1,
			DirectionMinus1Name: dirM1,
			MaxCars:             l.MaxCars,
		})
	}

	if !filtered {
		_ = s.lineCache.Set(lineCacheKey, result)
	}

	c.JSON(http.StatusOK, result)
}

// lineDirectionNames resolves direction labels from the line's terminal
// stations, falling back to generic labels when the lookup fails.
func (s *Server) lineDirectionNames(ctx context.Context, lineID string) (string, string) {
	cacheKey := "terminals:" + lineID
	if cached, err := s.lineCache.Get(cacheKey); err == nil {
		names := cached.([2]string)
		return names[0], names[1]
	}

	dir1, dirM1 := "outbound", "inbound"
	last, first, err := s.store.GetLineTerminals(ctx, lineID)
	if err != nil {
		log.Printf("lines: terminal lookup failed for %s: %v", lineID, err)
		return dir1, dirM1
	}
	if last != "" {
		dir1 = "for " + last
	}
	if first != "" {
		dirM1 = "for " + first
	}

	_ = s.lineCache.Set(cacheKey, [2]string{dir1, dirM1})
	return dir1, dirM1
}

// handleListStations returns the stations of a line in station order.
// GET /stations?line_id
func (s *Server) handleListStations(c *gin.Context) {
	lineID := c.Query("line_id")
	if lineID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "line_id is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	entries, err := s.store.ListLineStations(ctx, lineID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(entries) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "stations not found"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

// NearbyToilet is one station toilet ranked by distance from the rider.
type NearbyToilet struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	StationName    string   `json:"station_name"`
	DistanceKm     float64  `json:"distance_km"`
	WalkingMinutes int      `json:"walking_minutes"`
	Tags           []string `json:"tags"`
	Lat            float64  `json:"lat"`
	Lng            float64  `json:"lng"`
}

// handleNearbyToilets returns the closest station toilets to a coordinate,
// prefiltered by a bounding box and ranked by haversine distance.
// GET /nearby_toilets?lat&lng
func (s *Server) handleNearbyToilets(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	toilets, err := s.store.ListStationToiletsInBox(ctx,
		lat-nearbyToiletBox, lat+nearbyToiletBox,
		lng-nearbyToiletBox, lng+nearbyToiletBox)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := make([]NearbyToilet, 0, len(toilets))
	for _, t := range toilets {
		distKm := haversineKm(lat, lng, t.Lat, t.Lng)

		tags := make([]string, 0, 2)
		if t.InsideGate {
			tags = append(tags, "inside gate")
		}
		if t.WheelchairAccessible {
			tags = append(tags, "accessible")
		}

		name := t.Name
		if t.StationName != nil && *t.StationName != "" {
			name = *t.StationName
		}

		result = append(result, NearbyToilet{
			ID:             t.ID,
			Name:           t.Name,
			StationName:    name,
			DistanceKm:     math.Round(distKm*100) / 100,
			WalkingMinutes: int(distKm*3) + 2,
			Tags:           tags,
			Lat:            t.Lat,
			Lng:            t.Lng,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DistanceKm < result[j].DistanceKm
	})
	if len(result) > 5 {
		result = result[:5]
	}

	c.JSON(http.StatusOK, result)
}

// haversineKm returns the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
