package model

import "fmt"

// FlagCategory identifies a QA diagnostic category.
type FlagCategory string

// Blocking categories force is_publishable=false; the rest are informational.
const (
	FlagUnknownStateCode    FlagCategory = "unknown_state_code"
	FlagStateNameNormalized FlagCategory = "state_name_normalized"
	FlagUnparseableDate     FlagCategory = "unparseable_date"
	FlagDateCorrected       FlagCategory = "date_corrected"
	FlagMissingRate         FlagCategory = "missing_rate"
	FlagImplausibleRate     FlagCategory = "implausible_rate"
	FlagRateUnusuallyHigh   FlagCategory = "rate_unusually_high"
	FlagMissingPrevMonth    FlagCategory = "missing_prev_month"
	FlagRateConflict        FlagCategory = "rate_conflict"
	FlagPrevMonthImputed    FlagCategory = "prev_month_imputed"
)

// QAFlag is one diagnostic annotation on a validated row.
type QAFlag struct {
	Category FlagCategory `json:"category"`
	Detail   string       `json:"detail,omitempty"`
}

// Flag builds a QAFlag with a formatted detail string.
func Flag(cat FlagCategory, format string, args ...any) QAFlag {
	if format == "" {
		return QAFlag{Category: cat}
	}
	return QAFlag{Category: cat, Detail: fmt.Sprintf(format, args...)}
}

func (f QAFlag) String() string {
	if f.Detail == "" {
		return string(f.Category)
	}
	return fmt.Sprintf("%s: %s", f.Category, f.Detail)
}

// SummarizeFlags tallies QA flags across rows by category.
func SummarizeFlags(rows []ValidatedRow) map[string]int {
	counts := make(map[string]int)
	for _, r := range rows {
		for _, f := range r.QAFlags {
			counts[string(f.Category)]++
		}
	}
	return counts
}
