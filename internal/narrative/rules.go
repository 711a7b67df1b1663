package narrative

import (
	"context"
	"fmt"
	"strings"

	"districtrisk/domain/core"
	"districtrisk/domain/observation"
	"districtrisk/ports"
)

// GeneratorName identifies narratives built by RuleGenerator.
const GeneratorName = "rules"

// Band boundaries of the prose, in the units of each column.
const (
	riskMinimal   = 0.001
	riskLow       = 0.01
	riskModerate  = 0.03
	riskElevated  = 0.025
	riskCritical  = 0.04
	ratioLow      = 2.0
	ratioBalanced = 5.0
	ratioHigh     = 10.0
	ratioStaffing = 5.0
	ratioCapacity = 8.0
	pressureMin   = 0.001
	pressureLow   = 0.01
	pressureWatch = 0.005
)

// Priority orders recommendations; lower values come first.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
	PriorityInformational
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityLow:
		return "LOW"
	default:
		return "INFORMATIONAL"
	}
}

// MarshalText renders the priority name in JSON.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Recommendation is one prioritized action item.
type Recommendation struct {
	Priority    Priority `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// RuleGenerator derives prose from fixed bands over the score and indicators.
// It never calls out to a model and is deterministic.
type RuleGenerator struct{}

var _ ports.NarrativeGenerator = RuleGenerator{}

// NewRuleGenerator returns the rule-based generator.
func NewRuleGenerator() RuleGenerator {
	return RuleGenerator{}
}

// Explain describes why a district-date carries its score.
func (RuleGenerator) Explain(ctx context.Context, facts ports.NarrativeFacts) (*ports.Narrative, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b strings.Builder
	title := fmt.Sprintf("District Analysis for %s, %s (%s)", facts.District, facts.State, core.FormatDate(facts.Date))
	fmt.Fprintf(&b, "**%s**\n\n", title)
	fmt.Fprintf(&b, "**Overall Risk Assessment (%s, score %.4f):** %s\n\n", facts.Verdict, facts.Score, assessment(facts.Score))
	fmt.Fprintf(&b, "**Relative Standing:** riskier than or equal to %.1f%% of comparable observations.\n\n", facts.Percentile)
	if facts.Trend != nil {
		fmt.Fprintf(&b, "**Trend:** %s\n\n", describeTrend(facts.Trend))
	}

	obs := facts.Observation
	b.WriteString("**Detailed Factor Analysis:**\n\n")
	fmt.Fprintf(&b, "1. **Biometric-to-Enrolment Ratio (%s):** %s\n", formatMetric(obs.BiometricToEnrolmentRatio, 2), ratioText(obs.BiometricToEnrolmentRatio))
	fmt.Fprintf(&b, "2. **Child Update Pressure (%s):** %s\n", formatMetric(obs.ChildUpdatePressure, 6), pressureText(obs.ChildUpdatePressure, "child"))
	fmt.Fprintf(&b, "3. **Elderly Update Pressure (%s):** %s\n\n", formatMetric(obs.ElderlyUpdatePressure, 6), pressureText(obs.ElderlyUpdatePressure, "elderly"))
	fmt.Fprintf(&b, "**Key Insight:** %s", keyInsight(facts))

	return &ports.Narrative{Title: title, Markdown: b.String(), Generator: GeneratorName}, nil
}

// Recommend lists prioritized administrative actions for a district-date.
func (RuleGenerator) Recommend(ctx context.Context, facts ports.NarrativeFacts) (*ports.Narrative, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b strings.Builder
	title := fmt.Sprintf("Policy Recommendations for %s, %s (%s)", facts.District, facts.State, core.FormatDate(facts.Date))
	fmt.Fprintf(&b, "**%s**\n\n", title)
	for i, rec := range Recommendations(facts) {
		fmt.Fprintf(&b, "%d. **[%s] %s**  \n   %s\n", i+1, rec.Priority, rec.Title, rec.Description)
	}
	b.WriteString("\n**Implementation Timeline:** act on critical and high-priority items within 30 days; schedule medium-priority items within 60 to 90 days.")

	return &ports.Narrative{Title: title, Markdown: b.String(), Generator: GeneratorName}, nil
}

// Recommendations applies the recommendation rules. The overall score rule leads;
// indicator rules follow in column order. With nothing to flag a single
// informational item is returned.
func Recommendations(facts ports.NarrativeFacts) []Recommendation {
	var recs []Recommendation
	obs := facts.Observation

	switch {
	case facts.Score > riskCritical:
		recs = append(recs, Recommendation{PriorityCritical, "Emergency Service Review",
			"Audit operations immediately to find bottlenecks, move staff and devices in from low-pressure districts, and switch to appointment-only enrolment until load falls."})
	case facts.Score > riskElevated:
		recs = append(recs, Recommendation{PriorityHigh, "Service Load Balancing",
			"Spread enrolments across more centres, extend opening hours, and streamline the enrolment workflow to absorb current demand."})
	}

	if r := obs.BiometricToEnrolmentRatio; r.Valid {
		switch {
		case r.Value > ratioCapacity:
			recs = append(recs, Recommendation{PriorityHigh, "Infrastructure Capacity Enhancement",
				fmt.Sprintf("A biometric-to-enrolment ratio of %.2f calls for additional centres with modern capture devices, queue management, and staggered appointments.", r.Value)})
		case r.Value > ratioStaffing:
			recs = append(recs, Recommendation{PriorityMedium, "Staffing and Resource Optimization",
				fmt.Sprintf("A biometric-to-enrolment ratio of %.2f signals a heavy update workload; add trained biometric operators and run regular throughput training.", r.Value)})
		}
	}

	if p := obs.ChildUpdatePressure; p.Valid {
		switch {
		case p.Value > pressureLow:
			recs = append(recs, Recommendation{PriorityMedium, "Specialized Child Services Centers",
				fmt.Sprintf("Child update pressure of %.6f warrants child-friendly centres, scheduling aligned with school calendars, and outreach camps at schools.", p.Value)})
		case p.Value > pressureWatch:
			recs = append(recs, Recommendation{PriorityLow, "Child Services Enhancement",
				"Hold periodic child enrolment camps to batch child updates away from regular centres."})
		}
	}

	if p := obs.ElderlyUpdatePressure; p.Valid {
		switch {
		case p.Value > pressureLow:
			recs = append(recs, Recommendation{PriorityMedium, "Elderly-Focused Service Centers",
				fmt.Sprintf("Elderly update pressure of %.6f warrants dedicated slots with accessibility features and home visits for immobile residents.", p.Value)})
		case p.Value > pressureWatch:
			recs = append(recs, Recommendation{PriorityLow, "Elderly Services Improvement",
				"Adopt age-friendly service protocols and give extra help during biometric capture for elderly residents."})
		}
	}

	if len(recs) == 0 {
		recs = append(recs, Recommendation{PriorityInformational, "Maintain Current Standards",
			"Workload is balanced. Keep existing service protocols and staff training in place."})
	}
	return recs
}

func assessment(score float64) string {
	switch {
	case score < riskMinimal:
		return "Exceptionally low service stress; enrolment and update processes run well within capacity."
	case score < riskLow:
		return "Low service stress with stable operations and adequate infrastructure for current demand."
	case score < riskModerate:
		return "Moderate service stress; operations remain functional but pressure on infrastructure is building and should be monitored."
	default:
		return "Significant service stress with elevated risk of disruption; infrastructure and staffing need prompt attention."
	}
}

func ratioText(m observation.Metric) string {
	if !m.Valid {
		return "Not reported for this date."
	}
	switch {
	case m.Value < ratioLow:
		return "New enrolments outpace updates, so coverage is still expanding."
	case m.Value < ratioBalanced:
		return "Updates and new enrolments are in healthy proportion, typical of mature coverage."
	case m.Value < ratioHigh:
		return "Updates clearly outnumber new enrolments; verification work on existing records is a material load."
	default:
		return "Updates dominate new enrolments, which points to near-complete coverage and a large record-maintenance workload."
	}
}

func pressureText(m observation.Metric, group string) string {
	if !m.Valid {
		return "Not reported for this date."
	}
	switch {
	case m.Value < pressureMin:
		return fmt.Sprintf("Minimal %s update activity; not a meaningful driver of stress.", group)
	case m.Value < pressureLow:
		return fmt.Sprintf("Low to moderate %s update activity, manageable within current capacity.", group)
	default:
		return fmt.Sprintf("Significant %s update pressure; these updates need specialised handling and reduce overall throughput.", group)
	}
}

func describeTrend(t *observation.Trend) string {
	n := len(t.Points)
	switch t.Direction {
	case observation.DirectionUp:
		return fmt.Sprintf("rising by %.6f per day over %d observations (volatility %.6f).", t.Slope, n, t.Volatility)
	case observation.DirectionDown:
		return fmt.Sprintf("falling by %.6f per day over %d observations (volatility %.6f).", -t.Slope, n, t.Volatility)
	default:
		return fmt.Sprintf("flat over %d observations (volatility %.6f).", n, t.Volatility)
	}
}

// keyInsight names the indicator that sits in the highest band.
func keyInsight(facts ports.NarrativeFacts) string {
	obs := facts.Observation
	driver := ""
	switch {
	case obs.BiometricToEnrolmentRatio.Valid && obs.BiometricToEnrolmentRatio.Value >= ratioBalanced:
		driver = "a high biometric-to-enrolment ratio"
	case obs.ChildUpdatePressure.Valid && obs.ChildUpdatePressure.Value >= pressureLow:
		driver = "child update pressure"
	case obs.ElderlyUpdatePressure.Valid && obs.ElderlyUpdatePressure.Value >= pressureLow:
		driver = "elderly update pressure"
	}

	level := strings.ToLower(string(facts.Verdict))
	if driver == "" {
		return fmt.Sprintf("Stress is %s and no single indicator stands out.", level)
	}
	return fmt.Sprintf("Stress is %s and is driven mainly by %s.", level, driver)
}

func formatMetric(m observation.Metric, decimals int) string {
	if !m.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", decimals, m.Value)
}
