package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketdesk/feedsync/internal/model"
	"github.com/marketdesk/feedsync/internal/store"
)

// TicketWriter persists tickets and, for reviews, the companion analytics
// record. The companion write is best-effort: its failure is logged and
// never rolls back the ticket.
type TicketWriter struct {
	st           store.Store
	reviewSource string
}

// NewTicketWriter creates a writer tagging companion review records with
// the given source label.
func NewTicketWriter(st store.Store, reviewSource string) *TicketWriter {
	return &TicketWriter{st: st, reviewSource: reviewSource}
}

// Write persists a ticket for the record. A store.ErrDuplicateSourceKey
// from the unique natural-key column is passed through unchanged so the
// pipeline can count the record as a duplicate.
func (w *TicketWriter) Write(ctx context.Context, rec model.CanonicalRecord, customer *model.Customer, cls model.Classification, productRef string) (*model.Ticket, error) {
	ticket := &model.Ticket{
		ID:          uuid.New().String(),
		Subject:     rec.Title,
		Description: BuildDescription(rec),
		Status:      cls.Status,
		Priority:    cls.Priority,
		CustomerID:  customer.ID,
		SourceKey:   SourceKey(rec),
	}

	if err := w.st.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}

	if rec.SourceKind == model.SourceKindReview {
		review := &model.ReviewRecord{
			ID:         uuid.New().String(),
			TicketID:   ticket.ID,
			ProductRef: productRef,
			Rating:     rec.Rating,
			Content:    rec.BodyText,
			AuthorName: rec.AuthorName,
			Source:     w.reviewSource,
			Date:       parseReviewDate(rec.SourceTimestamp),
		}
		if err := w.st.CreateReview(ctx, review); err != nil {
			zap.L().Warn("companion review write failed, keeping ticket",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err),
			)
		}
	}

	return ticket, nil
}

// reviewDateLayouts are the date shapes observed in crawler output, most
// specific first. The timestamp stays opaque everywhere else; only the
// analytics record wants a real time value.
var reviewDateLayouts = []string{
	"2006.01.02",
	"06.01.02",
	"2006-01-02",
}

func parseReviewDate(raw string) time.Time {
	trimmed := strings.TrimSuffix(strings.TrimSpace(raw), ".")
	for _, layout := range reviewDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
