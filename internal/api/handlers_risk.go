package api

import (
	"fmt"
	"net/http"
	"time"

	"districtrisk/domain/core"
	"districtrisk/domain/observation"
	"districtrisk/internal/dataset"
	"districtrisk/internal/risk"

	"github.com/gin-gonic/gin"
)

type riskResponse struct {
	State           string              `json:"state"`
	District        string              `json:"district"`
	Date            string              `json:"date"`
	RiskScore       float64             `json:"risk_score"`
	Estimated       bool                `json:"estimated"`
	Verdict         observation.Verdict `json:"verdict"`
	BioRatio        observation.Metric  `json:"bio_ratio"`
	ChildPressure   observation.Metric  `json:"child_pressure"`
	ElderlyPressure observation.Metric  `json:"elderly_pressure"`
}

func newRiskResponse(obs observation.Observation, score float64, estimated bool, verdict observation.Verdict) riskResponse {
	return riskResponse{
		State:           obs.State,
		District:        obs.District,
		Date:            core.FormatDate(obs.Date),
		RiskScore:       score,
		Estimated:       estimated,
		Verdict:         verdict,
		BioRatio:        obs.BiometricToEnrolmentRatio,
		ChildPressure:   obs.ChildUpdatePressure,
		ElderlyPressure: obs.ElderlyUpdatePressure,
	}
}

// handleRisk answers /risk?state&district&date. A fully keyed request returns
// one assessment; a partial filter returns every scorable matching row.
func (s *Server) handleRisk(c *gin.Context) {
	e := s.engine()
	state, district, rawDate := c.Query("state"), c.Query("district"), c.Query("date")

	filter := dataset.Filter{State: state, District: district}
	if rawDate != "" {
		date, err := parseDate(rawDate)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.Date = &date
	}

	if state != "" && district != "" && filter.Date != nil {
		a, err := e.Assess(state, district, *filter.Date)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, newRiskResponse(a.Observation, a.Score, a.Estimated, a.Verdict))
		return
	}

	rows, err := e.Index().Filter(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	scored, skipped := e.ScoreRows("risk", rows)
	data := make([]riskResponse, 0, len(scored))
	for _, so := range scored {
		verdict, err := e.Classify(so.Score)
		if err != nil {
			respondError(c, err)
			return
		}
		data = append(data, newRiskResponse(so.Observation, so.Score, so.Estimated, verdict))
	}
	c.JSON(http.StatusOK, gin.H{
		"count":        len(data),
		"skipped_rows": skipped,
		"data":         data,
	})
}

func (s *Server) handleVerdict(c *gin.Context) {
	score, err := parseFloatParam("score", c.Param("score"))
	if err != nil {
		respondError(c, err)
		return
	}
	verdict, err := s.engine().Classify(score)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"verdict":     verdict,
		"description": verdict.Description(),
	})
}

func (s *Server) handlePercentile(c *gin.Context) {
	state, district := c.Param("state"), c.Param("district")
	date, err := parseDate(c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	scope, err := s.scopeParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := s.engine().PercentileAt(state, district, date, scope)
	if err != nil {
		respondError(c, err)
		return
	}

	pct := round(result.Percentile, 1)
	c.JSON(http.StatusOK, gin.H{
		"state":           state,
		"district":        district,
		"date":            core.FormatDate(date),
		"risk_score":      result.Score,
		"percentile":      pct,
		"scope":           result.Scope,
		"population_size": result.PopulationSize,
		"skipped_rows":    result.Skipped,
		"comparison":      fmt.Sprintf("Riskier than or equal to %.1f%% of %s", pct, populationLabel(result.Scope, state, date)),
	})
}

func (s *Server) scopeParam(c *gin.Context) (risk.Scope, error) {
	raw := c.Query("scope")
	if raw == "" {
		return s.engineConfig.PercentileScope, nil
	}
	return risk.ParseScope(raw)
}

func populationLabel(scope risk.Scope, state string, date time.Time) string {
	day := core.FormatDate(date)
	switch scope {
	case risk.ScopeDate:
		return "districts on " + day
	case risk.ScopeStateDate:
		return fmt.Sprintf("districts in %s on %s", state, day)
	case risk.ScopeAll:
		return "all observations"
	default:
		return "observations in " + state
	}
}

type topEntry struct {
	Rank        int     `json:"rank"`
	State       string  `json:"state"`
	District    string  `json:"district"`
	AverageRisk float64 `json:"average_risk"`
	Rows        int     `json:"rows"`
}

func (s *Server) handleTopDistricts(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		respondError(c, err)
		return
	}
	order, err := risk.ParseOrder(c.Query("order"))
	if err != nil {
		respondError(c, err)
		return
	}

	e := s.engine()
	population, err := statePopulation(c, e.Index())
	if err != nil {
		respondError(c, err)
		return
	}
	entries, err := e.Top(limit, population, order)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]topEntry, len(entries))
	for i, entry := range entries {
		out[i] = topEntry{
			Rank:        entry.Rank,
			State:       entry.State,
			District:    entry.District,
			AverageRisk: round(entry.Score, 4),
			Rows:        entry.Rows,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleDistrictHotspots(c *gin.Context) {
	sensitivity, err := querySensitivity(c)
	if err != nil {
		respondError(c, err)
		return
	}
	report, err := s.engine().Hotspots(c.Param("state"), sensitivity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleAllHotspots(c *gin.Context) {
	sensitivity, err := querySensitivity(c)
	if err != nil {
		respondError(c, err)
		return
	}
	reports, err := s.engine().AllHotspots(c.Request.Context(), sensitivity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (s *Server) handleTrend(c *gin.Context) {
	trend, err := s.engine().Trend(c.Param("state"), c.Param("district"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trend)
}

func (s *Server) handleModelStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine().ModelStats())
}

func (s *Server) handlePopulationSummary(c *gin.Context) {
	e := s.engine()
	population, err := statePopulation(c, e.Index())
	if err != nil {
		respondError(c, err)
		return
	}
	scores := e.Scores("population-summary", population)
	if len(scores) == 0 {
		respondError(c, core.ErrEmptyPopulation)
		return
	}
	summary, err := s.profiler.Summarize(scores)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":   c.Query("state"),
		"summary": summary,
	})
}
