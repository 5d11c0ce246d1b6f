package render

import (
	"sort"

	"github.com/sells-group/laborstat-cli/internal/refdata"
)

// Ranked is one (key, value) pair to be ranked.
type Ranked struct {
	Key   string
	Value float64
}

// CompetitionRanks ranks pairs using competition ranking (1, 1, 3 style),
// descending: rank 1 is the highest value. Ties share a rank and the next
// distinct value skips past them.
func CompetitionRanks(items []Ranked) map[string]int {
	sorted := make([]Ranked, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})

	ranks := make(map[string]int, len(sorted))
	i := 0
	for i < len(sorted) {
		j := i
		for j < len(sorted) && sorted[j].Value == sorted[i].Value {
			j++
		}
		for k := i; k < j; k++ {
			ranks[sorted[k].Key] = i + 1
		}
		i = j
	}
	return ranks
}

// ScopeRanks holds a state's rank at each geographic scope.
type ScopeRanks struct {
	National   int `json:"national"`
	Regional   int `json:"regional"`
	Divisional int `json:"divisional"`
}

// ScopedRanks computes national, regional and divisional competition ranks
// (all descending) for the given state values. States whose reference entry is
// missing are ranked nationally only.
func ScopedRanks(values map[string]float64, dir refdata.Directory) map[string]ScopeRanks {
	all := make([]Ranked, 0, len(values))
	regGroups := make(map[string][]Ranked)
	divGroups := make(map[string][]Ranked)

	// Deterministic grouping order.
	codes := make([]string, 0, len(values))
	for code := range values {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		val := values[code]
		all = append(all, Ranked{code, val})
		if ref, ok := dir.ByCode(code); ok && ref.CensusRegion != "" && ref.CensusDivision != "" {
			regGroups[ref.CensusRegion] = append(regGroups[ref.CensusRegion], Ranked{code, val})
			divGroups[ref.CensusDivision] = append(divGroups[ref.CensusDivision], Ranked{code, val})
		}
	}

	national := CompetitionRanks(all)

	regional := make(map[string]int)
	for _, group := range regGroups {
		for k, v := range CompetitionRanks(group) {
			regional[k] = v
		}
	}
	divisional := make(map[string]int)
	for _, group := range divGroups {
		for k, v := range CompetitionRanks(group) {
			divisional[k] = v
		}
	}

	out := make(map[string]ScopeRanks, len(values))
	for code := range values {
		out[code] = ScopeRanks{
			National:   national[code],
			Regional:   regional[code],
			Divisional: divisional[code],
		}
	}
	return out
}

// ScopeCounts tallies how many ranked states fall in each region and division.
type ScopeCounts struct {
	Regional   map[string]int
	Divisional map[string]int
}

// CountScopes counts ranked states per region/division for the given codes.
func CountScopes(codes []string, dir refdata.Directory) ScopeCounts {
	counts := ScopeCounts{
		Regional:   make(map[string]int),
		Divisional: make(map[string]int),
	}
	for _, code := range codes {
		if ref, ok := dir.ByCode(code); ok && ref.CensusRegion != "" && ref.CensusDivision != "" {
			counts.Regional[ref.CensusRegion]++
			counts.Divisional[ref.CensusDivision]++
		}
	}
	return counts
}
