package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/laborstat-cli/internal/store"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Pivot the latest validated rows into the long-format store",
	Long:  "Loads the most recent validate step's output, filters to publishable rows, deduplicates, pivots with chronological last-write-wins, and appends to the clean data file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := initPipeline()
		if err != nil {
			return err
		}

		manifest, err := store.ReadValidateManifest(cfg.Data.StateDir)
		if err != nil {
			return eris.Wrap(err, "no validate output found; run validate first")
		}
		rows, err := store.ReadValidatedRows(manifest.RowsFile)
		if err != nil {
			return eris.Wrap(err, "read validated rows")
		}

		cres, err := p.RunClean(rows, manifest.RunID)
		if err != nil {
			return eris.Wrap(err, "clean")
		}

		zap.L().Info("clean complete",
			zap.String("run_id", manifest.RunID),
			zap.Int("points", len(cres.Points)),
			zap.Int("revisions", cres.RevisionsApplied),
			zap.Int("deduped", cres.RowsDedupedInput),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"run_id":             manifest.RunID,
			"rows_appended":      len(cres.Points),
			"revisions_applied":  cres.RevisionsApplied,
			"rows_deduped_input": cres.RowsDedupedInput,
		})
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
