package model

// RawObservation is one record straight off the raw workbook, after type
// coercion but before any business validation. Rates are nil when the cell
// was empty.
type RawObservation struct {
	State     string
	StateCode string
	Month     string
	Rate      *float64
	RatePrior *float64
	Source    string
}

// ValidatedRow is the output of row validation: canonicalized, flag-annotated,
// and carrying a publishability verdict. The verdict may flip true→false during
// cross-row reconciliation, never false→true.
type ValidatedRow struct {
	StateCanonical string   `json:"state_canonical"`
	StateCode      string   `json:"state_code"`
	MonthCanonical string   `json:"month_canonical"`
	Rate           *float64 `json:"unemployment_rate"`
	RatePrior      *float64 `json:"unemployment_rate_prev_month"`
	Source         string   `json:"source"`
	SourceRowIndex int      `json:"source_row_index"`
	QAFlags        []QAFlag `json:"qa_flags"`
	IsPublishable  bool     `json:"is_publishable"`
}

// HasFlag reports whether the row carries a flag of the given category.
func (r ValidatedRow) HasFlag(cat FlagCategory) bool {
	for _, f := range r.QAFlags {
		if f.Category == cat {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the row. The reconciliation passes operate on
// copies so their inputs stay untouched.
func (r ValidatedRow) Clone() ValidatedRow {
	out := r
	out.QAFlags = make([]QAFlag, len(r.QAFlags))
	copy(out.QAFlags, r.QAFlags)
	if r.Rate != nil {
		v := *r.Rate
		out.Rate = &v
	}
	if r.RatePrior != nil {
		v := *r.RatePrior
		out.RatePrior = &v
	}
	return out
}

// LongFormPoint is one (state, date) observation in the long-format series.
// At most one point per (state_code, date) survives a pivot; across batches the
// store is append-only and readers keep the freshest ingest_run per key.
type LongFormPoint struct {
	StateCanonical string  `json:"state_canonical"`
	StateCode      string  `json:"state_code"`
	Date           string  `json:"date"` // "YYYY-MM-01"
	Value          float64 `json:"value"`
	Source         string  `json:"source"`
	IngestRun      string  `json:"ingest_run"`
	SourceRowIndex int     `json:"source_row_index"`
}
