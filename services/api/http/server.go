package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/toirenavi/train-toilet-api/services/api/config"
	"github.com/toirenavi/train-toilet-api/services/api/db"
	"github.com/toirenavi/train-toilet-api/services/api/engine"
)

// Store is the data access surface the HTTP layer needs. *db.Store
// satisfies it.
type Store interface {
	engine.Repository
	InsertReport(ctx context.Context, id, toiletID string, level int, reporterID *string) error
	ListLines(ctx context.Context) ([]db.Line, error)
	GetLineTerminals(ctx context.Context, lineID string) (last, first string, err error)
	ListLineStations(ctx context.Context, lineID string) ([]db.LineStationEntry, error)
	ListLineIDsNear(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]string, error)
	ListStationToiletsInBox(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]db.StationToilet, error)
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg       config.Config
	store     Store
	predictor *engine.Engine
	router    *gin.Engine
	lineCache gcache.Cache
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, store Store) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsCfg))

	if cfg.BearerToken != "" {
		router.Use(bearerAuthMiddleware(cfg.BearerToken))
	}

	server := &Server{
		cfg:       cfg,
		store:     store,
		predictor: engine.New(store, cfg.ReportFetchLimit, cfg.DefaultCrowdLevel),
		router:    router,
		lineCache: gcache.New(256).
			LRU().
			Expiration(time.Duration(cfg.LineCacheTTLSecs) * time.Second).
			Build(),
	}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.router
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.GET("/predict", s.handlePredict)
	s.router.POST("/report_congestion", s.handleReportCongestion)
	s.router.GET("/lines", s.handleListLines)
	s.router.GET("/stations", s.handleListStations)
	s.router.GET("/nearby_toilets", s.handleNearbyToilets)
}

func bearerAuthMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != expected {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
