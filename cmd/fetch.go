package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/laborstat-cli/internal/fetcher"
)

var fetchSource string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the raw workbook from the upstream FTP source",
	RunE: func(cmd *cobra.Command, _ []string) error {
		source := fetchSource
		if source == "" {
			source = cfg.Input.FTPSource
		}
		if source == "" {
			return eris.New("no FTP source configured; set input.ftp_source or pass --source")
		}

		f := fetcher.NewWorkbookFetcher(cfg.Input)
		dest, err := f.FetchWorkbook(cmd.Context(), source, cfg.Input.Dir)
		if err != nil {
			return eris.Wrap(err, "fetch workbook")
		}

		zap.L().Info("workbook ready", zap.String("path", dest))
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchSource, "source", "", "ftp:// URL of the workbook (default from config)")
	rootCmd.AddCommand(fetchCmd)
}
