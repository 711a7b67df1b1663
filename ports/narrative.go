package ports

import (
	"context"
	"time"

	"districtrisk/domain/observation"
)

// NarrativeFacts are the numeric facts handed to a narrative generator.
type NarrativeFacts struct {
	State       string
	District    string
	Date        time.Time
	Observation observation.Observation
	Score       float64
	Verdict     observation.Verdict
	Percentile  float64
	Trend       *observation.Trend
}

// Narrative is generated prose in Markdown.
type Narrative struct {
	Title     string `json:"title"`
	Markdown  string `json:"markdown"`
	Generator string `json:"generator"`
}

// NarrativeGenerator produces human-readable explanations and policy text.
type NarrativeGenerator interface {
	Explain(ctx context.Context, facts NarrativeFacts) (*Narrative, error)
	Recommend(ctx context.Context, facts NarrativeFacts) (*Narrative, error)
}
