package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/laborstat-cli/internal/model"
	"github.com/sells-group/laborstat-cli/internal/pipeline"
)

var validateInput string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the input workbook and report the gate verdict",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := initPipeline()
		if err != nil {
			return err
		}

		runID := pipeline.NewRunID(time.Now())
		vres, err := p.RunValidation(validateInput, runID)
		if err != nil {
			return eris.Wrap(err, "validate")
		}

		zap.L().Info("validation complete",
			zap.Int("rows", len(vres.Rows)),
			zap.Int("dropped", vres.Dropped),
			zap.Bool("gate_passed", vres.Gate.Passed),
		)

		summary := struct {
			RunID           string              `json:"run_id"`
			InputFile       string              `json:"input_file"`
			LatestDataMonth string              `json:"latest_data_month"`
			RowsValidated   int                 `json:"rows_validated"`
			RowsDropped     int                 `json:"rows_dropped"`
			Gate            pipeline.GateResult `json:"gate"`
			QASummary       map[string]int      `json:"qa_summary"`
			RowsFile        string              `json:"rows_file"`
		}{
			RunID:           runID,
			InputFile:       vres.InputFile,
			LatestDataMonth: vres.LatestDataMonth,
			RowsValidated:   len(vres.Rows),
			RowsDropped:     vres.Dropped,
			Gate:            vres.Gate,
			QASummary:       model.SummarizeFlags(vres.Rows),
			RowsFile:        vres.RowsFile,
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateInput, "input", "", "input workbook path (default: the single .xlsx in the input dir)")
	rootCmd.AddCommand(validateCmd)
}
