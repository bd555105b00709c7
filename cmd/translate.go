package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dimi-labs/kensho-cli/internal/store"
	"github.com/dimi-labs/kensho-cli/internal/xbrl"
)

var translateCmd = &cobra.Command{
	Use:   "translate TICKER",
	Short: "Translate the stored hierarchy of the latest run into a Korean report",
	Long:  "Reads the hierarchy artifact saved by a previous run, translates labels to Korean (with cache), and prints the report JSON. Avoids re-downloading the filing.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ticker := args[0]

		if err := cfg.Validate("run"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		data, err := st.LatestArtifact(ctx, ticker, store.ArtifactHierarchy)
		if err != nil {
			return eris.Wrap(err, "load hierarchy artifact")
		}
		if data == nil {
			return eris.Errorf("no stored hierarchy for %s, run `kensho run %s` first", ticker, ticker)
		}

		var hierarchy map[string][]*xbrl.PresentationNode
		if err := json.Unmarshal(data, &hierarchy); err != nil {
			return eris.Wrap(err, "decode hierarchy artifact")
		}

		rpt, stats, err := newTranslator(st).Translate(ctx, hierarchy)
		if err != nil {
			return eris.Wrap(err, "translate")
		}
		rpt.Ticker = ticker

		zap.L().Info("translation complete",
			zap.Int("translated_tags", stats.TranslatedTags),
			zap.Int("cache_hits", stats.CacheHits),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rpt)
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)
}
