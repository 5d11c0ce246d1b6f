package main

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/laborstat-cli/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full batch: validate, gate, clean, output",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := initPipeline()
		if err != nil {
			return err
		}
		p.Runs = st

		runID := pipeline.NewRunID(time.Now())
		manifest, err := p.Run(ctx, runID)
		if err != nil {
			if errors.Is(err, pipeline.ErrGateTripped) {
				zap.L().Error("batch aborted by publish gate", zap.String("run_id", runID))
				// The manifest still records what happened.
				enc := json.NewEncoder(os.Stderr)
				enc.SetIndent("", "  ")
				_ = enc.Encode(manifest)
			}
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("batch complete",
			zap.String("run_id", runID),
			zap.Int("rows_validated", manifest.RowsValidated),
			zap.Int("rows_publishable", manifest.RowsPublishable),
			zap.String("latest_data_month", manifest.LatestDataMonth),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(manifest)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
