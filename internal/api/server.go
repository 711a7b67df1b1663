package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"districtrisk/internal"
	"districtrisk/internal/dataset"
	"districtrisk/internal/metrics"
	"districtrisk/internal/narrative"
	"districtrisk/internal/profiling"
	"districtrisk/internal/risk"
	"districtrisk/ports"

	"github.com/gin-gonic/gin"
)

// Options wires the server's collaborators.
type Options struct {
	Store          *dataset.Store
	Scorer         *risk.Scorer
	Engine         risk.Config
	ExportDecimals int
	Narrator       ports.NarrativeGenerator
	Metrics        *metrics.Metrics // nil disables /metrics
	GinMode        string
}

// Server is the HTTP surface over the risk engine.
type Server struct {
	router         *gin.Engine
	store          *dataset.Store
	scorer         *risk.Scorer
	engineConfig   risk.Config
	exportDecimals int
	narrator       ports.NarrativeGenerator
	metrics        *metrics.Metrics
	profiler       *profiling.DistributionAnalyzer
}

// NewServer creates a new server with routes and middleware installed
func NewServer(opts Options) *Server {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}

	s := &Server{
		router:         gin.New(),
		store:          opts.Store,
		scorer:         opts.Scorer,
		engineConfig:   opts.Engine,
		exportDecimals: opts.ExportDecimals,
		narrator:       opts.Narrator,
		metrics:        opts.Metrics,
		profiler:       profiling.NewDistributionAnalyzer(),
	}
	if s.scorer == nil {
		s.scorer = risk.NewScorer(nil)
	}
	if s.narrator == nil {
		s.narrator = narrative.NewRuleGenerator()
	}

	onSkip := s.engineConfig.OnSkip
	s.engineConfig.OnSkip = func(operation string, skipped int) {
		s.metrics.AddSkipped(operation, skipped)
		if onSkip != nil {
			onSkip(operation, skipped)
		}
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	if gin.Mode() == gin.DebugMode {
		s.router.Use(gin.Logger())
	}
	s.router.Use(gin.Recovery(), requestID(), observeRequests(s.metrics))
}

func (s *Server) setupRoutes() {
	// Catalog
	s.router.GET("/states", s.handleStates)
	s.router.GET("/districts/:state", s.handleDistricts)
	s.router.GET("/dates/:state/:district", s.handleDates)

	// Risk analytics
	s.router.GET("/risk", s.handleRisk)
	s.router.GET("/risk-verdict/:score", s.handleVerdict)
	s.router.GET("/risk-percentile/:state/:district/:date", s.handlePercentile)
	s.router.GET("/top-districts", s.handleTopDistricts)
	s.router.GET("/district-hotspots/:state", s.handleDistrictHotspots)
	s.router.GET("/hotspots", s.handleAllHotspots)
	s.router.GET("/risk-trend/:state/:district", s.handleTrend)
	s.router.GET("/model-stats", s.handleModelStats)
	s.router.GET("/population-summary", s.handlePopulationSummary)

	// Narratives
	s.router.GET("/risk-explanation/:state/:district/:date", s.handleExplanation)
	s.router.GET("/policy-recommendation/:state/:district/:date", s.handleRecommendation)

	// Export and operations
	s.router.GET("/download-ranked-data", s.handleDownload)
	s.router.POST("/admin/reload", s.handleReload)
	s.router.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
// for up to shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		internal.DefaultLogger.Info("[Server] listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	internal.DefaultLogger.Info("[Server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// engine binds the live Index for one request; a concurrent reload does not
// affect a request already holding its engine.
func (s *Server) engine() *risk.Engine {
	return risk.NewEngine(s.store.Current(), s.scorer, s.engineConfig)
}
