package main

import (
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/marketdesk/feedsync/internal/model"
	"github.com/marketdesk/feedsync/internal/store"
)

var (
	exportOut         string
	exportWithReviews bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tickets to an .xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		tickets, err := st.ListTickets(ctx, store.TicketFilter{})
		if err != nil {
			return eris.Wrap(err, "list tickets")
		}

		file := xlsx.NewFile()
		if err := addTicketSheet(file, tickets); err != nil {
			return err
		}

		if exportWithReviews {
			reviews, err := st.ListReviews(ctx, 0)
			if err != nil {
				return eris.Wrap(err, "list reviews")
			}
			if err := addReviewSheet(file, reviews); err != nil {
				return err
			}
		}

		if err := file.Save(exportOut); err != nil {
			return eris.Wrapf(err, "write workbook %s", exportOut)
		}

		zap.L().Info("export complete",
			zap.String("path", exportOut),
			zap.Int("tickets", len(tickets)),
		)
		return nil
	},
}

func addTicketSheet(file *xlsx.File, tickets []model.Ticket) error {
	sheet, err := file.AddSheet("Tickets")
	if err != nil {
		return eris.Wrap(err, "add ticket sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"ID", "Subject", "Status", "Priority", "Customer ID", "Created", "Resolved"} {
		header.AddCell().SetString(h)
	}

	for _, t := range tickets {
		row := sheet.AddRow()
		row.AddCell().SetString(t.ID)
		row.AddCell().SetString(t.Subject)
		row.AddCell().SetString(string(t.Status))
		row.AddCell().SetString(string(t.Priority))
		row.AddCell().SetString(t.CustomerID)
		row.AddCell().SetString(t.CreatedAt.Format(time.RFC3339))
		resolved := ""
		if t.ResolvedAt != nil {
			resolved = t.ResolvedAt.Format(time.RFC3339)
		}
		row.AddCell().SetString(resolved)
	}
	return nil
}

func addReviewSheet(file *xlsx.File, reviews []model.ReviewRecord) error {
	sheet, err := file.AddSheet("Reviews")
	if err != nil {
		return eris.Wrap(err, "add review sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"ID", "Ticket ID", "Product", "Rating", "Author", "Date", "Content"} {
		header.AddCell().SetString(h)
	}

	for _, r := range reviews {
		row := sheet.AddRow()
		row.AddCell().SetString(r.ID)
		row.AddCell().SetString(r.TicketID)
		row.AddCell().SetString(r.ProductRef)
		row.AddCell().SetString(strconv.Itoa(r.Rating))
		row.AddCell().SetString(r.AuthorName)
		row.AddCell().SetString(r.Date.Format("2006-01-02"))
		row.AddCell().SetString(r.Content)
	}
	return nil
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "tickets.xlsx", "output workbook path")
	exportCmd.Flags().BoolVar(&exportWithReviews, "with-reviews", false, "add a sheet with companion review records")
	rootCmd.AddCommand(exportCmd)
}
