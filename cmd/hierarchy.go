package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dimi-labs/kensho-cli/internal/edgar"
	"github.com/dimi-labs/kensho-cli/internal/xbrl"
)

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy TICKER",
	Short: "Download the latest filing and dump its presentation hierarchy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ticker := args[0]

		f := newFetcher()
		ec := edgar.NewClient(f)

		filing, err := locateFiling(ctx, ec, ticker)
		if err != nil {
			return eris.Wrap(err, "locate filing")
		}

		instance, presentation, _, err := fetchFilingDocs(ctx, f, filing)
		if err != nil {
			return err
		}

		norm := xbrl.NewNormalizer(strings.ToLower(ticker))
		contexts, warnings, err := xbrl.ResolveContexts(bytes.NewReader(instance), norm)
		if err != nil {
			return eris.Wrap(err, "resolve contexts")
		}
		for _, w := range warnings {
			zap.L().Warn("context skipped", zap.String("context", w.ContextID), zap.String("reason", w.Reason))
		}

		facts, err := xbrl.ExtractFacts(bytes.NewReader(instance), contexts, cfg.EDGAR.Taxonomy, norm)
		if err != nil {
			return eris.Wrap(err, "extract facts")
		}

		selected := xbrl.SelectLatest(contexts)
		hierarchy, err := xbrl.BuildHierarchy(bytes.NewReader(presentation), facts, selected, norm)
		if err != nil {
			return eris.Wrap(err, "build hierarchy")
		}

		zap.L().Info("hierarchy built",
			zap.Int("contexts", len(contexts)),
			zap.Int("selected", len(selected)),
			zap.Int("sections", len(hierarchy)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hierarchy)
	},
}

func init() {
	rootCmd.AddCommand(hierarchyCmd)
}
