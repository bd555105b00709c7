package main

import (
	"encoding/json"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dimi-labs/kensho-cli/internal/model"
	"github.com/dimi-labs/kensho-cli/internal/report"
	"github.com/dimi-labs/kensho-cli/internal/store"
)

var (
	reportMinImportance  int
	reportStatementsOnly bool
	reportOutputDir      string
)

var reportCmd = &cobra.Command{
	Use:   "report TICKER",
	Short: "Re-render HTML and XLSX reports from the latest stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ticker := args[0]

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		data, err := st.LatestArtifact(ctx, ticker, store.ArtifactReportJSON)
		if err != nil {
			return eris.Wrap(err, "load report artifact")
		}
		if data == nil {
			return eris.Errorf("no stored report for %s, run `kensho run %s` first", ticker, ticker)
		}

		var rpt model.Report
		if err := json.Unmarshal(data, &rpt); err != nil {
			return eris.Wrap(err, "decode report artifact")
		}

		filtered := report.Filter(&rpt, report.Options{
			MinImportance:  reportMinImportance,
			StatementsOnly: reportStatementsOnly,
		})

		outDir := reportOutputDir
		if outDir == "" {
			outDir = cfg.Report.OutputDir
		}
		base := filepath.Join(outDir, ticker+"_"+rpt.Form)

		if err := report.WriteJSON(filtered, base+".json"); err != nil {
			return err
		}
		if err := report.WriteHTML(filtered, base+".html"); err != nil {
			return err
		}
		if err := report.WriteXLSX(filtered, base+".xlsx"); err != nil {
			return err
		}

		zap.L().Info("reports written",
			zap.String("ticker", ticker),
			zap.Int("sections", len(filtered.Sections)),
			zap.String("base", base),
		)
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVar(&reportMinImportance, "min-importance", 0, "drop items below this importance (0-5)")
	reportCmd.Flags().BoolVar(&reportStatementsOnly, "statements-only", false, "keep only the main financial statements")
	reportCmd.Flags().StringVar(&reportOutputDir, "out", "", "output directory (default from config)")
	rootCmd.AddCommand(reportCmd)
}
