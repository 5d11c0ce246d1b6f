package render

import (
	"fmt"
	"math"

	"github.com/sells-group/laborstat-cli/internal/refdata"
)

// Trend labels a month-over-month direction.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// SummarySentence renders the lead sentence for one state. mom is nil when no
// prior-month value is available.
func SummarySentence(stateName string, rate float64, apDate string, mom *float64, trend Trend) string {
	rateStr := fmt.Sprintf("%.1f", rate)

	if mom == nil {
		return fmt.Sprintf(
			"%s's unemployment rate was %s percent in %s. Month-over-month change data is not available.",
			stateName, rateStr, apDate)
	}
	if trend == TrendFlat {
		return fmt.Sprintf(
			"%s's unemployment rate was %s percent in %s, unchanged from the prior month.",
			stateName, rateStr, apDate)
	}

	direction := "up"
	if trend == TrendDown {
		direction = "down"
	}
	return fmt.Sprintf(
		"%s's unemployment rate was %s percent in %s, %s %.1f percentage points from the prior month.",
		stateName, rateStr, apDate, direction, math.Abs(*mom))
}

// RankingParagraph renders a divisional/regional/national ranking paragraph
// for one state, e.g. descriptor "highest unemployment rate". Returns "" when
// the state cannot be ranked at every scope.
func RankingParagraph(stateName, apDate, descriptor, stateCode string, ranks map[string]ScopeRanks, ref refdata.StateInfo, counts ScopeCounts) string {
	if ref.CensusRegion == "" || ref.CensusDivision == "" {
		return ""
	}
	r, ok := ranks[stateCode]
	if !ok {
		return ""
	}

	return fmt.Sprintf(
		"In %s, %s had the %s %s in the %s division of %d states, the %s %s in the %s region of %d states, and the %s %s in the country overall.",
		apDate, stateName,
		Ordinal(r.Divisional), descriptor, ref.CensusDivision, counts.Divisional[ref.CensusDivision],
		Ordinal(r.Regional), descriptor, ref.CensusRegion, counts.Regional[ref.CensusRegion],
		Ordinal(r.National), descriptor)
}
