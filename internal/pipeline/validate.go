// Package pipeline implements the batch stages: per-row validation, cross-row
// reconciliation, the publish gate, and the dedupe/revision pivot.
package pipeline

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/laborstat-cli/internal/config"
	"github.com/sells-group/laborstat-cli/internal/fetcher"
	"github.com/sells-group/laborstat-cli/internal/model"
	"github.com/sells-group/laborstat-cli/internal/refdata"
)

// Workbook column headers.
const (
	colState     = "state"
	colStateCode = "state_code"
	colMonth     = "month"
	colRate      = "unemployment_rate"
	colRatePrior = "unemployment_rate_prev_month"
	colSource    = "source"
)

// Validator performs per-row structural and business validation.
type Validator struct {
	dir refdata.Directory
	cfg config.ValidationConfig
}

// NewValidator creates a Validator backed by the given state directory.
func NewValidator(dir refdata.Directory, cfg config.ValidationConfig) *Validator {
	return &Validator{dir: dir, cfg: cfg}
}

// ParseObservation coerces one raw record into a typed observation. A missing
// or empty mandatory cell, or a non-numeric rate cell, is a structural error:
// the row is dropped, not flagged.
func ParseObservation(rec fetcher.Record) (model.RawObservation, error) {
	var obs model.RawObservation

	for _, col := range []string{colState, colStateCode, colMonth, colSource} {
		if strings.TrimSpace(rec.Cells[col]) == "" {
			return obs, eris.Errorf("parse: missing %s", col)
		}
	}

	rate, err := parseRateCell(rec.Cells[colRate])
	if err != nil {
		return obs, eris.Wrapf(err, "parse: %s", colRate)
	}
	prior, err := parseRateCell(rec.Cells[colRatePrior])
	if err != nil {
		return obs, eris.Wrapf(err, "parse: %s", colRatePrior)
	}

	obs = model.RawObservation{
		State:     norm.NFC.String(rec.Cells[colState]),
		StateCode: rec.Cells[colStateCode],
		Month:     rec.Cells[colMonth],
		Rate:      rate,
		RatePrior: prior,
		Source:    norm.NFC.String(rec.Cells[colSource]),
	}
	return obs, nil
}

func parseRateCell(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Errorf("not numeric: %q", raw)
	}
	return &v, nil
}

// ValidateRow runs the business checks on one observation. rowIndex is the
// 1-based workbook row the observation came from; it is the only way to trace
// a QA flag back to raw input.
func (v *Validator) ValidateRow(raw model.RawObservation, rowIndex int) model.ValidatedRow {
	var flags []model.QAFlag
	publishable := true

	// State resolution: the code is authoritative, the display name is not.
	codeUpper := strings.ToUpper(strings.TrimSpace(raw.StateCode))
	var canonicalName string
	if ref, ok := v.dir.ByCode(codeUpper); ok {
		canonicalName = ref.Name
		if strings.TrimSpace(raw.State) != canonicalName {
			flags = append(flags, model.Flag(model.FlagStateNameNormalized,
				"original=%q canonical=%q", strings.TrimSpace(raw.State), canonicalName))
		}
	} else {
		flags = append(flags, model.Flag(model.FlagUnknownStateCode, "%s", codeUpper))
		publishable = false
		canonicalName = strings.TrimSpace(raw.State)
	}

	// Date normalization. An unparseable month keeps its raw text so the row
	// stays traceable in the validated-rows file.
	monthCanonical, ok := NormalizeMonth(raw.Month)
	if !ok {
		flags = append(flags, model.Flag(model.FlagUnparseableDate, "%q", raw.Month))
		publishable = false
		monthCanonical = raw.Month
	} else if strings.TrimSpace(raw.Month) != monthCanonical {
		flags = append(flags, model.Flag(model.FlagDateCorrected,
			"original=%q canonical=%q", strings.TrimSpace(raw.Month), monthCanonical))
	}

	// Rate plausibility.
	switch {
	case raw.Rate == nil:
		flags = append(flags, model.Flag(model.FlagMissingRate, ""))
		publishable = false
	case *raw.Rate < v.cfg.RateLowerBound || *raw.Rate >= v.cfg.RateUpperBound:
		flags = append(flags, model.Flag(model.FlagImplausibleRate, "%g", *raw.Rate))
		publishable = false
	case *raw.Rate >= v.cfg.RateWarningThreshold:
		// Warning only, stays publishable.
		flags = append(flags, model.Flag(model.FlagRateUnusuallyHigh, "%g", *raw.Rate))
	}

	if raw.RatePrior == nil {
		flags = append(flags, model.Flag(model.FlagMissingPrevMonth, ""))
	}

	return model.ValidatedRow{
		StateCanonical: canonicalName,
		StateCode:      codeUpper,
		MonthCanonical: monthCanonical,
		Rate:           raw.Rate,
		RatePrior:      raw.RatePrior,
		Source:         raw.Source,
		SourceRowIndex: rowIndex,
		QAFlags:        flags,
		IsPublishable:  publishable,
	}
}

// ValidateBatch parses and validates every record. Structurally invalid rows
// are dropped and logged with their workbook index; they do not count toward
// any gate statistic.
func (v *Validator) ValidateBatch(records []fetcher.Record) (rows []model.ValidatedRow, dropped int) {
	for _, rec := range records {
		raw, err := ParseObservation(rec)
		if err != nil {
			zap.L().Warn("validate: structural validation failed, row dropped",
				zap.Int("row", rec.Index),
				zap.Error(err),
			)
			dropped++
			continue
		}
		rows = append(rows, v.ValidateRow(raw, rec.Index))
	}
	return rows, dropped
}
