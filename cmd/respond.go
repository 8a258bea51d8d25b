package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/marketdesk/feedsync/internal/metrics"
	"github.com/marketdesk/feedsync/internal/respond"
	"github.com/marketdesk/feedsync/pkg/anthropic"
)

var (
	respondLimit   int
	respondDelayMs int
)

var respondCmd = &cobra.Command{
	Use:   "respond [ticket-id...]",
	Short: "Draft replies for open question tickets, one at a time",
	Long:  "Sends each ticket to the model sequentially with a fixed delay between calls and saves the drafts as internal comments for agent review. With no ticket ids, picks open question tickets up to the limit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic API key is required (FEEDSYNC_ANTHROPIC_KEY)")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		metrics.Init()

		if respondLimit > 0 {
			cfg.Respond.Limit = respondLimit
		}
		if respondDelayMs >= 0 {
			cfg.Respond.DelayMs = respondDelayMs
		}

		responder := respond.NewResponder(st, anthropic.NewClient(cfg.Anthropic.Key), cfg)
		report, err := responder.Run(ctx, args)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	respondCmd.Flags().IntVar(&respondLimit, "limit", 0, "max tickets to draft replies for (default from config)")
	respondCmd.Flags().IntVar(&respondDelayMs, "delay-ms", -1, "delay between model calls in milliseconds (default from config)")
	rootCmd.AddCommand(respondCmd)
}
