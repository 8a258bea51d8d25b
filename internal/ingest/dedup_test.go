package ingest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketdesk/feedsync/internal/model"
	"github.com/marketdesk/feedsync/internal/store"
)

func persistRecord(t *testing.T, st store.Store, rec model.CanonicalRecord, withSourceKey bool) {
	t.Helper()
	ctx := context.Background()

	customer, err := NewCustomerResolver(st, "customer.invalid").Resolve(ctx, rec.AuthorName)
	require.NoError(t, err)

	key := ""
	if withSourceKey {
		key = SourceKey(rec)
	}
	require.NoError(t, st.CreateTicket(ctx, &model.Ticket{
		ID:          uuid.New().String(),
		Subject:     rec.Title,
		Description: BuildDescription(rec),
		Status:      model.TicketStatusOpen,
		Priority:    model.PriorityHigh,
		CustomerID:  customer.ID,
		SourceKey:   key,
	}))
}

func TestDedup_QnA_SourceKeyFastPath(t *testing.T) {
	st := newTestStore(t)
	r := NewDuplicateResolver(st)

	rec := model.CanonicalRecord{
		SourceKind: model.SourceKindQnA,
		Title:      "배송 문의", AuthorName: "김철수",
		SourceTimestamp: "2024.01.05.", BodyText: "no answer yet",
	}
	persistRecord(t, st, rec, true)

	found, err := r.Exists(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDedup_QnA_HeuristicForPreKeyTickets(t *testing.T) {
	// Tickets persisted before source keys existed still dedup through
	// the subject+author+timestamp scan.
	st := newTestStore(t)
	r := NewDuplicateResolver(st)
	ctx := context.Background()

	rec := model.CanonicalRecord{
		SourceKind: model.SourceKindQnA,
		Title:      "배송 문의", AuthorName: "김철수",
		SourceTimestamp: "2024.01.05.", BodyText: "no answer yet",
	}
	persistRecord(t, st, rec, false)

	found, err := r.Exists(ctx, rec)
	require.NoError(t, err)
	assert.True(t, found)

	// Any of the three conditions differing means a new item.
	for name, variant := range map[string]model.CanonicalRecord{
		"different title":     {SourceKind: model.SourceKindQnA, Title: "환불 문의", AuthorName: "김철수", SourceTimestamp: "2024.01.05."},
		"different author":    {SourceKind: model.SourceKindQnA, Title: "배송 문의", AuthorName: "이영희", SourceTimestamp: "2024.01.05."},
		"different timestamp": {SourceKind: model.SourceKindQnA, Title: "배송 문의", AuthorName: "김철수", SourceTimestamp: "2024.01.06."},
	} {
		found, err := r.Exists(ctx, variant)
		require.NoError(t, err, name)
		assert.False(t, found, name)
	}
}

func TestDedup_Review_SourceIDMarker(t *testing.T) {
	st := newTestStore(t)
	r := NewDuplicateResolver(st)
	ctx := context.Background()

	rec := model.CanonicalRecord{
		SourceKind: model.SourceKindReview,
		Title:      "[Review] 2 - bad", AuthorName: "이영희",
		SourceTimestamp: "24.01.05.", BodyText: "bad", Rating: 2, SourceID: "8812",
	}
	persistRecord(t, st, rec, false)

	found, err := r.Exists(ctx, rec)
	require.NoError(t, err)
	assert.True(t, found)

	other := rec
	other.SourceID = "9999"
	found, err = r.Exists(ctx, other)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDedup_Review_EmptySourceIDFallsBackToHeuristic(t *testing.T) {
	st := newTestStore(t)
	r := NewDuplicateResolver(st)
	ctx := context.Background()

	rec := model.CanonicalRecord{
		SourceKind: model.SourceKindReview,
		Title:      "[Review] 4 - fine", AuthorName: "이영희",
		SourceTimestamp: "24.01.05.", BodyText: "fine", Rating: 4,
	}
	persistRecord(t, st, rec, false)

	found, err := r.Exists(ctx, rec)
	require.NoError(t, err)
	assert.True(t, found)

	// An id-less review must never match everything.
	other := rec
	other.AuthorName = "박민수"
	found, err = r.Exists(ctx, other)
	require.NoError(t, err)
	assert.False(t, found)
}
