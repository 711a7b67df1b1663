package api

import (
	"net/http"
	"time"

	"districtrisk/domain/core"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleStates(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Current().States())
}

func (s *Server) handleDistricts(c *gin.Context) {
	districts, err := s.store.Current().Districts(c.Param("state"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, districts)
}

func (s *Server) handleDates(c *gin.Context) {
	dates, err := s.store.Current().Dates(c.Param("state"), c.Param("district"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = core.FormatDate(d)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleHealth(c *gin.Context) {
	idx := s.store.Current()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"source":    idx.Source(),
		"rows":      idx.Len(),
		"states":    len(idx.States()),
		"districts": idx.DistrictCount(),
		"loaded_at": idx.LoadedAt().UTC().Format(time.RFC3339),
		"estimator": s.scorer.HasEstimator(),
	})
}
