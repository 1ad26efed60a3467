package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/toirenavi/train-toilet-api/services/api/engine"
)

// handlePredict runs the recommendation pipeline for the rider's position.
// GET /predict?line_id&current_station_id&user_car&direction
func (s *Server) handlePredict(c *gin.Context) {
	lineID := c.Query("line_id")
	stationID := c.Query("current_station_id")
	if lineID == "" || stationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "line_id and current_station_id are required"})
		return
	}

	userCar, err := strconv.Atoi(c.Query("user_car"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_car"})
		return
	}

	// Anything other than -1 follows the ascending chain.
	direction := 1
	if c.Query("direction") == "-1" {
		direction = -1
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	results, err := s.predictor.Predict(ctx, lineID, stationID, userCar, direction)
	if err != nil {
		if errors.Is(err, engine.ErrPositionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "current station not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, results)
}

type reportRequest struct {
	ToiletID        string  `json:"toilet_id" binding:"required"`
	CongestionLevel int     `json:"congestion_level" binding:"required,min=1,max=3"`
	ReporterID      *string `json:"reporter_id"`
}

// handleReportCongestion appends one rider-submitted congestion report.
// POST /report_congestion
func (s *Server) handleReportCongestion(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "congestion_level must be 1..3 and toilet_id is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	id := uuid.NewString()
	if err := s.store.InsertReport(ctx, id, req.ToiletID, req.CongestionLevel, req.ReporterID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "ok", "id": id})
}
