package pipeline

import (
	"go.uber.org/zap"

	"github.com/sells-group/laborstat-cli/internal/config"
	"github.com/sells-group/laborstat-cli/internal/model"
)

// GateResult holds the outcome of the publish gate check.
type GateResult struct {
	Passed             bool    `json:"passed"`
	FullyUnpublishable int     `json:"fully_unpublishable"`
	Fraction           float64 `json:"fraction"`
}

// CheckPublishGate is the whole-batch circuit breaker: a state counts against
// the gate only when every one of its rows is unpublishable, and the batch
// aborts when the fraction of such states (over the expected state total)
// exceeds the configured threshold. It guards against systemic upstream
// corruption, not isolated per-row noise.
func CheckPublishGate(rows []model.ValidatedRow, cfg config.ValidationConfig) GateResult {
	hasPublishable := make(map[string]bool)
	for _, r := range rows {
		if _, seen := hasPublishable[r.StateCode]; !seen {
			hasPublishable[r.StateCode] = false
		}
		if r.IsPublishable {
			hasPublishable[r.StateCode] = true
		}
	}

	fully := 0
	for _, ok := range hasPublishable {
		if !ok {
			fully++
		}
	}

	fraction := float64(fully) / float64(cfg.TotalStates)
	result := GateResult{
		Passed:             fraction <= cfg.GateThreshold,
		FullyUnpublishable: fully,
		Fraction:           fraction,
	}

	if !result.Passed {
		zap.L().Error("publish gate tripped",
			zap.Int("fully_unpublishable", fully),
			zap.Int("total_states", cfg.TotalStates),
			zap.Float64("fraction", fraction),
			zap.Float64("threshold", cfg.GateThreshold),
		)
	} else {
		zap.L().Info("publish gate passed",
			zap.Int("fully_unpublishable", fully),
			zap.Float64("fraction", fraction),
		)
	}
	return result
}
