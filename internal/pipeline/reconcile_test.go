package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/laborstat-cli/internal/model"
)

func publishableRow(code, month string, rate, prior *float64, rowIndex int) model.ValidatedRow {
	return model.ValidatedRow{
		StateCanonical: code,
		StateCode:      code,
		MonthCanonical: month,
		Rate:           rate,
		RatePrior:      prior,
		Source:         "test",
		SourceRowIndex: rowIndex,
		IsPublishable:  true,
	}
}

func TestReconcileConflictsBlocksDisagreeingRow(t *testing.T) {
	// Row A says November's rate was 27.0; row B says November's rate,
	// seen from December, was 5.3. A is blocked, B is untouched.
	rows := []model.ValidatedRow{
		publishableRow("MT", "2025-11", fptr(27.0), nil, 2),
		publishableRow("MT", "2025-12", fptr(5.1), fptr(5.3), 3),
	}

	out := ReconcileConflicts(rows)

	require.Len(t, out, 2)
	assert.False(t, out[0].IsPublishable)
	assert.True(t, out[0].HasFlag(model.FlagRateConflict))
	assert.True(t, out[1].IsPublishable)
	assert.Empty(t, out[1].QAFlags)
}

func TestReconcileConflictsAgreementIsNotAConflict(t *testing.T) {
	rows := []model.ValidatedRow{
		publishableRow("AL", "2025-11", fptr(4.5), nil, 2),
		publishableRow("AL", "2025-12", fptr(4.6), fptr(4.5), 3),
	}

	out := ReconcileConflicts(rows)

	assert.True(t, out[0].IsPublishable)
	assert.True(t, out[1].IsPublishable)
	assert.Empty(t, out[0].QAFlags)
}

func TestReconcileConflictsIgnoresUnpublishableClaims(t *testing.T) {
	claimant := publishableRow("AL", "2025-12", fptr(4.6), fptr(9.9), 3)
	claimant.IsPublishable = false

	rows := []model.ValidatedRow{
		publishableRow("AL", "2025-11", fptr(4.5), nil, 2),
		claimant,
	}

	out := ReconcileConflicts(rows)
	assert.True(t, out[0].IsPublishable, "claims from blocked rows carry no weight")
}

func TestReconcileConflictsDifferentStatesDoNotInteract(t *testing.T) {
	rows := []model.ValidatedRow{
		publishableRow("AL", "2025-11", fptr(4.5), nil, 2),
		publishableRow("AK", "2025-12", fptr(4.1), fptr(9.9), 3),
	}

	out := ReconcileConflicts(rows)
	assert.True(t, out[0].IsPublishable)
	assert.True(t, out[1].IsPublishable)
}

func TestReconcileConflictsDoesNotMutateInput(t *testing.T) {
	rows := []model.ValidatedRow{
		publishableRow("MT", "2025-11", fptr(27.0), nil, 2),
		publishableRow("MT", "2025-12", fptr(5.1), fptr(5.3), 3),
	}

	_ = ReconcileConflicts(rows)

	assert.True(t, rows[0].IsPublishable)
	assert.Empty(t, rows[0].QAFlags)
}

func TestDetectImputationsAnnotatesCoveredGap(t *testing.T) {
	// December's row has no prior value, but November's own row will
	// provide the point anyway.
	gapRow := publishableRow("AL", "2025-12", fptr(4.6), nil, 3)
	gapRow.QAFlags = append(gapRow.QAFlags, model.Flag(model.FlagMissingPrevMonth, ""))

	rows := []model.ValidatedRow{
		publishableRow("AL", "2025-11", fptr(4.5), nil, 2),
		gapRow,
	}

	out := DetectImputations(rows)

	assert.True(t, out[1].HasFlag(model.FlagPrevMonthImputed))
	assert.True(t, out[1].IsPublishable, "imputation annotation never blocks")
}

func TestDetectImputationsUncoveredGapGetsNoAnnotation(t *testing.T) {
	gapRow := publishableRow("AL", "2025-12", fptr(4.6), nil, 2)
	gapRow.QAFlags = append(gapRow.QAFlags, model.Flag(model.FlagMissingPrevMonth, ""))

	out := DetectImputations([]model.ValidatedRow{gapRow})
	assert.False(t, out[0].HasFlag(model.FlagPrevMonthImputed))
}

func TestDetectImputationsIgnoresUnpublishableCoverage(t *testing.T) {
	blocked := publishableRow("AL", "2025-11", fptr(4.5), nil, 2)
	blocked.IsPublishable = false

	gapRow := publishableRow("AL", "2025-12", fptr(4.6), nil, 3)
	gapRow.QAFlags = append(gapRow.QAFlags, model.Flag(model.FlagMissingPrevMonth, ""))

	out := DetectImputations([]model.ValidatedRow{blocked, gapRow})
	assert.False(t, out[1].HasFlag(model.FlagPrevMonthImputed))
}

func TestReconcilePassOrdering(t *testing.T) {
	// The conflicting November row is blocked by the first pass, so it
	// must not count as imputation coverage in the second pass. December's
	// own prior value covers the gapless case instead.
	conflicted := publishableRow("MT", "2025-11", fptr(27.0), nil, 2)
	later := publishableRow("MT", "2025-12", fptr(5.1), fptr(5.3), 3)

	out := DetectImputations(ReconcileConflicts([]model.ValidatedRow{conflicted, later}))

	require.Len(t, out, 2)
	assert.False(t, out[0].IsPublishable)
	assert.True(t, out[1].IsPublishable)
	assert.False(t, out[1].HasFlag(model.FlagPrevMonthImputed))
}
