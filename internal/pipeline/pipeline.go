package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/laborstat-cli/internal/config"
	"github.com/sells-group/laborstat-cli/internal/fetcher"
	"github.com/sells-group/laborstat-cli/internal/model"
	"github.com/sells-group/laborstat-cli/internal/refdata"
	"github.com/sells-group/laborstat-cli/internal/store"
)

// ErrGateTripped aborts the batch before any point is appended. It is the only
// batch-fatal condition; everything else is absorbed as a QA flag or a
// structural drop.
var ErrGateTripped = eris.New("publish gate tripped: too many states fully unpublishable")

// Pipeline wires the batch stages to their collaborators.
type Pipeline struct {
	Cfg   *config.Config
	Dir   refdata.Directory
	Clean *store.LongFormStore
	Runs  store.RunStore // optional; nil disables run history
}

// NewRunID formats a timestamp-based run identifier.
func NewRunID(now time.Time) string {
	return now.Format("20060102_150405")
}

// ValidationResult is the outcome of the validate step.
type ValidationResult struct {
	Rows            []model.ValidatedRow
	Gate            GateResult
	LatestDataMonth string
	Dropped         int
	InputFile       string
	RowsFile        string
}

// RunValidation ingests the workbook, validates each row, runs both
// reconciliation passes and the publish gate, and persists the validated rows
// plus the validate manifest. The gate verdict is returned, not enforced;
// enforcement belongs to the orchestrator.
func (p *Pipeline) RunValidation(inputPath, runID string) (*ValidationResult, error) {
	if inputPath == "" {
		var err error
		inputPath, err = fetcher.FindInputFile(p.Cfg.Input.Dir)
		if err != nil {
			return nil, err
		}
	}

	zap.L().Info("validate: reading workbook", zap.String("path", inputPath))
	records, err := fetcher.ReadWorkbook(inputPath, p.Cfg.Input.Sheet)
	if err != nil {
		return nil, err
	}
	zap.L().Info("validate: raw rows read", zap.Int("rows", len(records)))

	validator := NewValidator(p.Dir, p.Cfg.Validation)
	rows, dropped := validator.ValidateBatch(records)
	zap.L().Info("validate: structural validation done",
		zap.Int("validated", len(rows)),
		zap.Int("dropped", dropped),
	)

	// Cross-row passes: conflicts first, imputation detection second.
	rows = ReconcileConflicts(rows)
	rows = DetectImputations(rows)

	latest := ""
	for _, r := range rows {
		if r.IsPublishable && r.MonthCanonical > latest {
			latest = r.MonthCanonical
		}
	}

	gate := CheckPublishGate(rows, p.Cfg.Validation)

	rowsFile, err := store.WriteValidatedRows(p.Cfg.Data.ValidatedDir,
		fmt.Sprintf("validated_rows_%s_%s.json", latest, runID), rows)
	if err != nil {
		return nil, err
	}
	zap.L().Info("validate: wrote validated rows", zap.String("path", rowsFile), zap.Int("rows", len(rows)))

	manifest := &model.ValidateManifest{
		RunID:           runID,
		ProducedAt:      time.Now().Format(time.RFC3339),
		LatestDataMonth: latest,
		RowsFile:        rowsFile,
		QASummary:       model.SummarizeFlags(rows),
	}
	if err := store.WriteValidateManifest(p.Cfg.Data.StateDir, manifest); err != nil {
		return nil, err
	}

	return &ValidationResult{
		Rows:            rows,
		Gate:            gate,
		LatestDataMonth: latest,
		Dropped:         dropped,
		InputFile:       inputPath,
		RowsFile:        rowsFile,
	}, nil
}

// CleanResult is the outcome of the clean step.
type CleanResult struct {
	Points           []model.LongFormPoint
	RowsDedupedInput int
	RevisionsApplied int
}

// RunClean filters to the publishable subset, deduplicates, pivots with
// chronological last-write-wins, and appends the result to the long-format
// store under a single shared ingest timestamp.
func (p *Pipeline) RunClean(rows []model.ValidatedRow, runID string) (*CleanResult, error) {
	ingestRun := time.Now().UTC().Format(time.RFC3339)

	publishable := Publishable(rows)
	zap.L().Info("clean: publishable rows",
		zap.Int("publishable", len(publishable)),
		zap.Int("total", len(rows)),
	)

	deduped, removed := Dedupe(publishable)
	if removed > 0 {
		zap.L().Info("clean: deduped input rows", zap.Int("removed", removed))
	}

	pivoted := Pivot(deduped, ingestRun)
	zap.L().Info("clean: pivot complete",
		zap.Int("points", len(pivoted.Points)),
		zap.Int("revisions", pivoted.Revisions),
	)

	if err := p.Clean.Append(pivoted.Points); err != nil {
		return nil, err
	}
	zap.L().Info("clean: appended points", zap.String("path", p.Clean.Path()), zap.Int("points", len(pivoted.Points)))

	manifest := &model.CleanManifest{
		RunID:            runID,
		ProducedAt:       time.Now().Format(time.RFC3339),
		RowsAppended:     len(pivoted.Points),
		RowsDedupedInput: removed,
		RevisionsApplied: pivoted.Revisions,
		DateRange:        dateRange(pivoted.Points),
		StatesCovered:    statesCovered(pivoted.Points),
	}
	if err := store.WriteCleanManifest(p.Cfg.Data.StateDir, manifest); err != nil {
		return nil, err
	}

	return &CleanResult{
		Points:           pivoted.Points,
		RowsDedupedInput: removed,
		RevisionsApplied: pivoted.Revisions,
	}, nil
}

func dateRange(points []model.LongFormPoint) model.DateRange {
	var dr model.DateRange
	for _, p := range points {
		if dr.Min == nil || p.Date < *dr.Min {
			d := p.Date
			dr.Min = &d
		}
		if dr.Max == nil || p.Date > *dr.Max {
			d := p.Date
			dr.Max = &d
		}
	}
	return dr
}

func statesCovered(points []model.LongFormPoint) []string {
	set := make(map[string]bool)
	for _, p := range points {
		set[p.StateCode] = true
	}
	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Run executes the full batch: validate, gate, clean, output. The run
// manifest and the run-history store are updated at each step. Returns
// ErrGateTripped when the gate aborts the batch.
func (p *Pipeline) Run(ctx context.Context, runID string) (*model.RunManifest, error) {
	zap.L().Info("pipeline start", zap.String("run_id", runID))

	manifest := &model.RunManifest{
		RunID:     runID,
		StartedAt: time.Now().Format(time.RFC3339),
		Status:    model.RunStatusStarted,
	}

	var recordID string
	if p.Runs != nil {
		rec, err := p.Runs.CreateRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		recordID = rec.ID
	}

	save := func(status model.RunStatus) error {
		manifest.Status = status
		if err := store.WriteRunManifest(p.Cfg.Data.StateDir, manifest); err != nil {
			return err
		}
		if p.Runs != nil {
			if err := p.Runs.UpdateRunManifest(ctx, recordID, status, manifest); err != nil {
				return err
			}
		}
		return nil
	}

	if err := save(model.RunStatusValidating); err != nil {
		return manifest, err
	}

	vres, err := p.RunValidation("", runID)
	if err != nil {
		return manifest, err
	}

	publishable := Publishable(vres.Rows)
	states := make(map[string]bool)
	for _, r := range publishable {
		states[r.StateCode] = true
	}

	gatePassed := vres.Gate.Passed
	manifest.StepsCompleted = append(manifest.StepsCompleted, "validate")
	manifest.InputFile = vres.InputFile
	manifest.RowsIngested = len(vres.Rows) + vres.Dropped
	manifest.RowsDropped = vres.Dropped
	manifest.RowsValidated = len(vres.Rows)
	manifest.RowsPublishable = len(publishable)
	manifest.StatesWithData = len(states)
	manifest.LatestDataMonth = vres.LatestDataMonth
	manifest.GatePassed = &gatePassed

	if !gatePassed {
		manifest.AbortReason = "Publish gate tripped: too many states fully unpublishable."
		if err := save(model.RunStatusAborted); err != nil {
			return manifest, err
		}
		zap.L().Error("pipeline aborted", zap.String("run_id", runID))
		return manifest, ErrGateTripped
	}

	if err := save(model.RunStatusCleaning); err != nil {
		return manifest, err
	}

	cres, err := p.RunClean(vres.Rows, runID)
	if err != nil {
		return manifest, err
	}
	manifest.StepsCompleted = append(manifest.StepsCompleted, "clean")
	zap.L().Info("clean: points written", zap.Int("points", len(cres.Points)))

	if err := save(model.RunStatusOutputting); err != nil {
		return manifest, err
	}

	if err := p.RunOutput(ctx, runID, vres.LatestDataMonth); err != nil {
		return manifest, err
	}
	manifest.StepsCompleted = append(manifest.StepsCompleted, "output")

	if err := save(model.RunStatusCompleted); err != nil {
		return manifest, err
	}
	zap.L().Info("pipeline complete", zap.String("run_id", runID))
	return manifest, nil
}
