package model

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusStarted    RunStatus = "started"
	RunStatusValidating RunStatus = "validating"
	RunStatusCleaning   RunStatus = "cleaning"
	RunStatusOutputting RunStatus = "outputting"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusAborted    RunStatus = "aborted"
)

// ValidateManifest describes one validation run and points at the validated
// rows file it produced. qa_summary tallies flags by category.
type ValidateManifest struct {
	RunID           string         `json:"run_id"`
	ProducedAt      string         `json:"produced_at"`
	LatestDataMonth string         `json:"latest_data_month"`
	RowsFile        string         `json:"rows_file"`
	QASummary       map[string]int `json:"qa_summary"`
}

// DateRange is the min/max date covered by a clean run. Nil when the run
// produced no points.
type DateRange struct {
	Min *string `json:"min"`
	Max *string `json:"max"`
}

// CleanManifest describes one dedupe/pivot/append run.
type CleanManifest struct {
	RunID            string    `json:"run_id"`
	ProducedAt       string    `json:"produced_at"`
	RowsAppended     int       `json:"rows_appended"`
	RowsDedupedInput int       `json:"rows_deduped_input"`
	RevisionsApplied int       `json:"revisions_applied"`
	DateRange        DateRange `json:"date_range"`
	StatesCovered    []string  `json:"states_covered"`
}

// RunManifest tracks an end-to-end pipeline run across its steps.
type RunManifest struct {
	RunID           string    `json:"run_id"`
	StartedAt       string    `json:"started_at"`
	Status          RunStatus `json:"status"`
	StepsCompleted  []string  `json:"steps_completed"`
	LatestDataMonth string    `json:"latest_data_month,omitempty"`
	InputFile       string    `json:"input_file,omitempty"`
	RowsIngested    int       `json:"rows_ingested"`
	RowsDropped     int       `json:"rows_dropped"`
	RowsValidated   int       `json:"rows_validated"`
	RowsPublishable int       `json:"rows_publishable"`
	StatesWithData  int       `json:"states_with_data"`
	GatePassed      *bool     `json:"gate_passed"`
	AbortReason     string    `json:"abort_reason,omitempty"`
}
