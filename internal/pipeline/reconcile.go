package pipeline

import (
	"go.uber.org/zap"

	"github.com/sells-group/laborstat-cli/internal/model"
)

// stateMonth keys a claim or observation by state code and canonical month.
type stateMonth struct {
	code  string
	month string
}

func cloneRows(rows []model.ValidatedRow) []model.ValidatedRow {
	out := make([]model.ValidatedRow, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// ReconcileConflicts blocks any row whose current rate disagrees with another
// row's prior-month value referencing the same (state, month). A later month's
// stated prior value is treated as a revision of the earlier month's
// then-current value, so the earlier row must not be published standalone; the
// pivot will emit the revised value from the later row anyway.
//
// Returns a new slice; the input is not modified.
func ReconcileConflicts(rows []model.ValidatedRow) []model.ValidatedRow {
	out := cloneRows(rows)

	type claim struct {
		value    float64
		rowIndex int
	}

	// Prior-month claims from currently publishable rows only.
	claims := make(map[stateMonth][]claim)
	for _, r := range out {
		if !r.IsPublishable || r.RatePrior == nil {
			continue
		}
		ref, err := PrevMonth(r.MonthCanonical)
		if err != nil {
			continue
		}
		key := stateMonth{r.StateCode, ref}
		claims[key] = append(claims[key], claim{value: *r.RatePrior, rowIndex: r.SourceRowIndex})
	}

	for i := range out {
		r := &out[i]
		if !r.IsPublishable || r.Rate == nil {
			continue
		}
		for _, c := range claims[stateMonth{r.StateCode, r.MonthCanonical}] {
			if c.value != *r.Rate {
				r.QAFlags = append(r.QAFlags, model.Flag(model.FlagRateConflict,
					"current=%g vs prev_month=%g (from source row %d)", *r.Rate, c.value, c.rowIndex))
				r.IsPublishable = false
				zap.L().Info("reconcile: rate conflict",
					zap.String("state", r.StateCode),
					zap.String("month", r.MonthCanonical),
					zap.Int("row", r.SourceRowIndex),
					zap.Int("claiming_row", c.rowIndex),
				)
				// One conflict flag per row is sufficient.
				break
			}
		}
	}
	return out
}

// DetectImputations annotates publishable rows carrying missing_prev_month
// whose prior month will still get a long-format value from another row after
// the pivot. Informational only; publishability is unchanged.
//
// Must run after ReconcileConflicts so it sees the final publishable set.
// Returns a new slice; the input is not modified.
func DetectImputations(rows []model.ValidatedRow) []model.ValidatedRow {
	out := cloneRows(rows)

	// Every (state, month) that will have a value after the pivot.
	willHaveValue := make(map[stateMonth]bool)
	for _, r := range out {
		if !r.IsPublishable {
			continue
		}
		if r.Rate != nil {
			willHaveValue[stateMonth{r.StateCode, r.MonthCanonical}] = true
		}
		if r.RatePrior != nil {
			if prev, err := PrevMonth(r.MonthCanonical); err == nil {
				willHaveValue[stateMonth{r.StateCode, prev}] = true
			}
		}
	}

	for i := range out {
		r := &out[i]
		if !r.IsPublishable || !r.HasFlag(model.FlagMissingPrevMonth) {
			continue
		}
		prev, err := PrevMonth(r.MonthCanonical)
		if err != nil {
			continue
		}
		if willHaveValue[stateMonth{r.StateCode, prev}] {
			r.QAFlags = append(r.QAFlags, model.Flag(model.FlagPrevMonthImputed, "sourced from %s", prev))
		}
	}
	return out
}
