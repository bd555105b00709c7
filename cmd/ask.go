package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dimi-labs/kensho-cli/internal/model"
	"github.com/dimi-labs/kensho-cli/internal/qa"
	"github.com/dimi-labs/kensho-cli/internal/store"
	anthropicpkg "github.com/dimi-labs/kensho-cli/pkg/anthropic"
)

var askQuestion string

var askCmd = &cobra.Command{
	Use:   "ask TICKER",
	Short: "Ask Korean questions about the latest stored report",
	Long:  "Starts an interactive question-answering session over the most recent translated report for the ticker. Pass --question for a single non-interactive answer.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ticker := args[0]

		if err := cfg.Validate("ask"); err != nil {
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

		engine := qa.NewEngine(&rpt, anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.SonnetModel)

		if askQuestion != "" {
			answer, err := engine.Ask(ctx, askQuestion)
			if err != nil {
				return eris.Wrap(err, "answer question")
			}
			fmt.Println(answer)
			return nil
		}

		fmt.Printf("%s %s 리포트에 대해 질문하세요. 종료하려면 exit을 입력하세요.\n", rpt.Ticker, rpt.Form)
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("질문> ")
			if !scanner.Scan() {
				break
			}
			question := strings.TrimSpace(scanner.Text())
			if question == "" {
				continue
			}
			if question == "exit" || question == "quit" || question == "종료" {
				break
			}

			answer, err := engine.Ask(ctx, question)
			if err != nil {
				fmt.Fprintf(os.Stderr, "오류: %v\n", err)
				continue
			}
			fmt.Println(answer)
			fmt.Println()
		}
		return scanner.Err()
	},
}

func init() {
	askCmd.Flags().StringVar(&askQuestion, "question", "", "ask a single question and exit")
	rootCmd.AddCommand(askCmd)
}
