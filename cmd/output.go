package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/laborstat-cli/internal/store"
)

var outputCmd = &cobra.Command{
	Use:   "output",
	Short: "Render publication artifacts from the long-format store",
	Long:  "Reads the freshest version of every stored point, computes month-over-month changes and rankings, and writes the narrative payload plus the map and table CSVs.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := initPipeline()
		if err != nil {
			return err
		}

		// Reuse the last validate run's identity and latest month when
		// available; RunOutput falls back to the stored data otherwise.
		runID := "adhoc"
		latest := ""
		if manifest, err := store.ReadValidateManifest(cfg.Data.StateDir); err == nil {
			runID = manifest.RunID
			latest = manifest.LatestDataMonth
		}

		if err := p.RunOutput(cmd.Context(), runID, latest); err != nil {
			return eris.Wrap(err, "output")
		}

		zap.L().Info("output complete", zap.String("run_id", runID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(outputCmd)
}
