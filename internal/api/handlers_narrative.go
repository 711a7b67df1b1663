package api

import (
	"context"
	"net/http"

	"districtrisk/internal"
	"districtrisk/internal/narrative"
	"districtrisk/ports"

	"github.com/gin-gonic/gin"
)

type narrativeFunc func(ctx context.Context, facts ports.NarrativeFacts) (*ports.Narrative, error)

// narrativeFacts gathers the numeric facts for one district-date. The trend is
// optional: a history with no scorable rows leaves it nil.
func (s *Server) narrativeFacts(c *gin.Context) (*ports.NarrativeFacts, error) {
	state, district := c.Param("state"), c.Param("district")
	date, err := parseDate(c.Param("date"))
	if err != nil {
		return nil, err
	}

	e := s.engine()
	assessment, err := e.Assess(state, district, date)
	if err != nil {
		return nil, err
	}
	pct, err := e.PercentileAt(state, district, date, "")
	if err != nil {
		return nil, err
	}
	trend, err := e.Trend(state, district)
	if err != nil {
		internal.DefaultLogger.Debug("[API] no trend for %s/%s: %v", state, district, err)
		trend = nil
	}

	return &ports.NarrativeFacts{
		State:       state,
		District:    district,
		Date:        date,
		Observation: assessment.Observation,
		Score:       assessment.Score,
		Verdict:     assessment.Verdict,
		Percentile:  pct.Percentile,
		Trend:       trend,
	}, nil
}

// generateNarrative runs a generator and answers ?format=html directly.
// It returns false when the response has already been written.
func (s *Server) generateNarrative(c *gin.Context, generate narrativeFunc) (*ports.NarrativeFacts, *ports.Narrative, bool) {
	facts, err := s.narrativeFacts(c)
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	n, err := generate(c.Request.Context(), *facts)
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", narrative.RenderHTML(n.Markdown))
		return nil, nil, false
	}
	return facts, n, true
}

func (s *Server) handleExplanation(c *gin.Context) {
	facts, n, ok := s.generateNarrative(c, s.narrator.Explain)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"explanation": n.Markdown,
		"title":       n.Title,
		"generator":   n.Generator,
		"verdict":     facts.Verdict,
	})
}

func (s *Server) handleRecommendation(c *gin.Context) {
	facts, n, ok := s.generateNarrative(c, s.narrator.Recommend)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recommendation":  n.Markdown,
		"title":           n.Title,
		"generator":       n.Generator,
		"verdict":         facts.Verdict,
		"recommendations": narrative.Recommendations(*facts),
	})
}
