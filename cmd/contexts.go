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

var contextsCmd = &cobra.Command{
	Use:   "contexts TICKER",
	Short: "Download the latest filing and dump its resolved context map",
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

		instance, err := fetchDoc(ctx, f, edgar.InstanceURL(filing.DocumentURL()))
		if err != nil {
			return eris.Wrap(err, "fetch instance")
		}

		norm := xbrl.NewNormalizer(strings.ToLower(ticker))
		contexts, warnings, err := xbrl.ResolveContexts(bytes.NewReader(instance), norm)
		if err != nil {
			return eris.Wrap(err, "resolve contexts")
		}
		if len(contexts) == 0 {
			zap.L().Warn("no contexts in raw instance, trying inline fallback")
			primary, err := fetchDoc(ctx, f, edgar.InlineViewerStripped(filing.DocumentURL()))
			if err != nil {
				return eris.Wrap(err, "fetch inline document")
			}
			contexts, warnings, err = xbrl.ResolveInlineContexts(bytes.NewReader(primary))
			if err != nil {
				return eris.Wrap(err, "resolve inline contexts")
			}
		}
		for _, w := range warnings {
			zap.L().Warn("context skipped", zap.String("context", w.ContextID), zap.String("reason", w.Reason))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(contexts)
	},
}

func init() {
	rootCmd.AddCommand(contextsCmd)
}
