package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketdesk/feedsync/internal/metrics"
	"github.com/marketdesk/feedsync/internal/model"
)

var ingestPages int

var ingestCmd = &cobra.Command{
	Use:   "ingest <qna|review> <product-url>",
	Short: "Crawl a product page and file new items as tickets",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		productURL := args[1]

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		metrics.Init()

		pages := ingestPages
		if pages == 0 && kind == model.SourceKindReview {
			pages = cfg.Crawler.ReviewPages
		}

		summary, err := buildPipeline(st).Run(ctx, kind, productURL, pages)
		if err != nil {
			return eris.Wrap(err, "ingestion run")
		}

		zap.L().Info("ingestion finished",
			zap.String("kind", string(kind)),
			zap.Int("created", summary.Created),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	ingestCmd.Flags().IntVar(&ingestPages, "pages", 0, "review pages to crawl (default from config, qna ignores it)")
	rootCmd.AddCommand(ingestCmd)
}
