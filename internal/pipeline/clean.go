package pipeline

import (
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/laborstat-cli/internal/model"
)

// dedupeKey is the composite identity of a wide row for duplicate removal.
type dedupeKey struct {
	code  string
	month string
	rate  string
	prior string
}

func rateKeyPart(v *float64) string {
	if v == nil {
		return "nil"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

// Dedupe removes exact duplicate rows (same state, month, current and prior
// rate), keeping the first occurrence in input order.
func Dedupe(rows []model.ValidatedRow) (kept []model.ValidatedRow, removed int) {
	seen := make(map[dedupeKey]bool, len(rows))
	for _, r := range rows {
		key := dedupeKey{
			code:  r.StateCode,
			month: r.MonthCanonical,
			rate:  rateKeyPart(r.Rate),
			prior: rateKeyPart(r.RatePrior),
		}
		if seen[key] {
			zap.L().Info("clean: deduped row",
				zap.String("state", r.StateCode),
				zap.String("month", r.MonthCanonical),
				zap.Int("row", r.SourceRowIndex),
			)
			removed++
			continue
		}
		seen[key] = true
		kept = append(kept, r)
	}
	return kept, removed
}

// PivotResult is the output of the revision pivot.
type PivotResult struct {
	Points    []model.LongFormPoint
	Revisions int
}

// Pivot expands each wide row into one or two long-format points and resolves
// collisions per (state_code, date) with chronological last-write-wins.
//
// Rows are processed in ascending month order, so a later month's claim about
// an earlier month (its prior-month point) is applied after that earlier
// month's own current-month point and wins. This ordering is a correctness
// requirement, not an optimization: the newest-dated source's opinion about
// any historical month is authoritative.
func Pivot(rows []model.ValidatedRow, ingestRun string) PivotResult {
	sorted := make([]model.ValidatedRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MonthCanonical < sorted[j].MonthCanonical
	})

	type stateDate struct {
		code string
		date string
	}

	var points []model.LongFormPoint
	index := make(map[stateDate]int)
	revisions := 0

	for _, row := range sorted {
		for _, p := range pivotRow(row, ingestRun) {
			key := stateDate{p.StateCode, p.Date}
			if i, ok := index[key]; ok {
				if points[i].Value != p.Value {
					zap.L().Info("clean: revision applied",
						zap.String("state", p.StateCode),
						zap.String("date", p.Date),
						zap.Float64("old", points[i].Value),
						zap.Float64("new", p.Value),
						zap.Int("row", p.SourceRowIndex),
					)
					revisions++
				}
				// Overwrite in place: the point keeps its first-seen position.
				points[i] = p
				continue
			}
			index[key] = len(points)
			points = append(points, p)
		}
	}

	return PivotResult{Points: points, Revisions: revisions}
}

// pivotRow emits the current-month point and, when a prior rate is present,
// the prior-month point.
func pivotRow(row model.ValidatedRow, ingestRun string) []model.LongFormPoint {
	var out []model.LongFormPoint

	if row.Rate != nil {
		out = append(out, model.LongFormPoint{
			StateCanonical: row.StateCanonical,
			StateCode:      row.StateCode,
			Date:           row.MonthCanonical + "-01",
			Value:          *row.Rate,
			Source:         row.Source,
			IngestRun:      ingestRun,
			SourceRowIndex: row.SourceRowIndex,
		})
	}

	if row.RatePrior != nil {
		prevDate, err := PrevMonthDate(row.MonthCanonical)
		if err != nil {
			zap.L().Warn("clean: cannot compute prior month, point skipped",
				zap.String("month", row.MonthCanonical),
				zap.Int("row", row.SourceRowIndex),
				zap.Error(err),
			)
			return out
		}
		out = append(out, model.LongFormPoint{
			StateCanonical: row.StateCanonical,
			StateCode:      row.StateCode,
			Date:           prevDate,
			Value:          *row.RatePrior,
			Source:         row.Source,
			IngestRun:      ingestRun,
			SourceRowIndex: row.SourceRowIndex,
		})
	}

	return out
}

// Publishable filters rows down to the publishable subset.
func Publishable(rows []model.ValidatedRow) []model.ValidatedRow {
	var out []model.ValidatedRow
	for _, r := range rows {
		if r.IsPublishable {
			out = append(out, r)
		}
	}
	return out
}
