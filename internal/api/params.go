package api

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"districtrisk/domain/core"
	"districtrisk/domain/observation"
	"districtrisk/internal/dataset"

	"github.com/gin-gonic/gin"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 1000
)

func parseDate(raw string) (time.Time, error) {
	d, err := core.ParseDate(raw)
	if err != nil {
		return time.Time{}, core.NewInvalidArgumentError("date", err.Error())
	}
	return d, nil
}

func parseFloatParam(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, core.NewInvalidArgumentError(name, fmt.Sprintf("%q is not a number", raw))
	}
	return v, nil
}

// queryLimit reads ?limit=, defaulting to 10 and capping at maxTopLimit.
// Non-positive values pass through so the ranking rejects them.
func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultTopLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewInvalidArgumentError("limit", fmt.Sprintf("%q is not an integer", raw))
	}
	if n > maxTopLimit {
		n = maxTopLimit
	}
	return n, nil
}

// querySensitivity reads ?sensitivity=; absent or zero means the configured
// default. The engine rejects negative values.
func querySensitivity(c *gin.Context) (float64, error) {
	raw := c.Query("sensitivity")
	if raw == "" {
		return 0, nil
	}
	return parseFloatParam("sensitivity", raw)
}

// statePopulation returns every row, or the rows of ?state= when given.
func statePopulation(c *gin.Context, idx *dataset.Index) ([]observation.Observation, error) {
	state := c.Query("state")
	if state == "" {
		return idx.All(), nil
	}
	return idx.Filter(dataset.Filter{State: state})
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
