package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketdesk/feedsync/internal/ingest"
)

var purgeCmd = &cobra.Command{
	Use:   "purge <qna|review>",
	Short: "Delete every ticket ingested from the given source",
	Long:  "Deletes tickets whose description carries the source's provenance header, with their comments and companion review records. Tickets created by hand are never touched.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		kind, err := parseKind(args[0])
		if err != nil {
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

		count, err := st.DeleteTicketsByDescriptionPrefix(ctx, ingest.SourcePrefix(kind))
		if err != nil {
			return eris.Wrap(err, "purge tickets")
		}

		zap.L().Info("purge complete",
			zap.String("kind", string(kind)),
			zap.Int("deleted", count),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"success": true, "count": count})
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}
