package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/laborstat-cli/internal/refdata"
)

func TestSummarySentenceUp(t *testing.T) {
	mom := 0.1
	got := SummarySentence("Alabama", 4.6, "Dec. 1, 2025", &mom, TrendUp)
	assert.Equal(t,
		"Alabama's unemployment rate was 4.6 percent in Dec. 1, 2025, up 0.1 percentage points from the prior month.",
		got)
}

func TestSummarySentenceDown(t *testing.T) {
	mom := -0.3
	got := SummarySentence("Nevada", 5.1, "Dec. 1, 2025", &mom, TrendDown)
	assert.Contains(t, got, "down 0.3 percentage points")
}

func TestSummarySentenceFlat(t *testing.T) {
	mom := 0.0
	got := SummarySentence("Alabama", 4.6, "Dec. 1, 2025", &mom, TrendFlat)
	assert.Contains(t, got, "unchanged from the prior month")
}

func TestSummarySentenceNoPriorData(t *testing.T) {
	got := SummarySentence("Alabama", 4.6, "Dec. 1, 2025", nil, TrendFlat)
	assert.Contains(t, got, "Month-over-month change data is not available")
}

func TestRankingParagraph(t *testing.T) {
	dir, err := refdata.Load()
	require.NoError(t, err)
	ref, ok := dir.ByCode("AL")
	require.True(t, ok)

	ranks := map[string]ScopeRanks{
		"AL": {National: 12, Regional: 5, Divisional: 2},
	}
	counts := ScopeCounts{
		Regional:   map[string]int{"South": 16},
		Divisional: map[string]int{"East South Central": 4},
	}

	got := RankingParagraph("Alabama", "Dec. 1, 2025", "highest unemployment rate", "AL", ranks, ref, counts)
	assert.Equal(t,
		"In Dec. 1, 2025, Alabama had the 2nd highest unemployment rate in the East South Central division of 4 states, the 5th highest unemployment rate in the South region of 16 states, and the 12th highest unemployment rate in the country overall.",
		got)
}

func TestRankingParagraphUnrankable(t *testing.T) {
	got := RankingParagraph("Atlantis", "Dec. 1, 2025", "highest unemployment rate", "ZZ",
		map[string]ScopeRanks{}, refdata.StateInfo{}, ScopeCounts{})
	assert.Empty(t, got)
}
