package ingest

import (
	"context"

	"github.com/marketdesk/feedsync/internal/model"
	"github.com/marketdesk/feedsync/internal/store"
)

// DuplicateResolver decides whether an equivalent ticket already exists
// for a canonical record. It runs before any write for the record; the
// unique source_key constraint backstops it when two runs overlap.
type DuplicateResolver struct {
	st store.Store
}

// NewDuplicateResolver creates a resolver backed by the given store.
func NewDuplicateResolver(st store.Store) *DuplicateResolver {
	return &DuplicateResolver{st: st}
}

// Exists reports whether an equivalent ticket is already persisted.
//
// QnA items are duplicates iff an existing ticket has the identical
// subject, its customer has the identical author name, and its
// description contains the source timestamp. All three conditions are
// required; day-granularity timestamps can under-distinguish two same-day
// same-title same-author items, but titles are unique enough in practice.
//
// Reviews key on their upstream id via the labeled description marker,
// with a raw substring scan as a secondary match for tickets written
// before the marker existed. Reviews without an id fall back to the
// author+timestamp heuristic.
func (r *DuplicateResolver) Exists(ctx context.Context, rec model.CanonicalRecord) (bool, error) {
	// Fast path: the materialized natural key.
	if found, err := r.st.TicketExistsBySourceKey(ctx, SourceKey(rec)); err != nil {
		return false, err
	} else if found {
		return true, nil
	}

	if rec.SourceKind == model.SourceKindReview {
		return r.reviewExists(ctx, rec)
	}
	return r.st.QnADuplicateExists(ctx, rec.Title, rec.AuthorName, rec.SourceTimestamp)
}

func (r *DuplicateResolver) reviewExists(ctx context.Context, rec model.CanonicalRecord) (bool, error) {
	if rec.SourceID == "" {
		return r.st.QnADuplicateExists(ctx, rec.Title, rec.AuthorName, rec.SourceTimestamp)
	}

	found, err := r.st.TicketDescriptionContains(ctx, SourceIDLabel+rec.SourceID)
	if err != nil || found {
		return found, err
	}
	// Weaker legacy match: the bare id anywhere in a description.
	return r.st.TicketDescriptionContains(ctx, rec.SourceID)
}
