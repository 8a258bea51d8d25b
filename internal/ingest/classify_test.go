package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marketdesk/feedsync/internal/model"
)

func TestClassify_QnA(t *testing.T) {
	c := NewClassifier([]string{"answered", "답변완료"})

	cases := []struct {
		status       string
		wantStatus   model.TicketStatus
		wantPriority model.Priority
	}{
		{"답변완료", model.TicketStatusResolved, model.PriorityLow},
		{"ANSWERED", model.TicketStatusResolved, model.PriorityLow},
		{"답변완료 (판매자)", model.TicketStatusResolved, model.PriorityLow},
		{"답변대기", model.TicketStatusOpen, model.PriorityHigh},
		{"", model.TicketStatusOpen, model.PriorityHigh},
	}
	for _, tc := range cases {
		got := c.Classify(model.CanonicalRecord{SourceKind: model.SourceKindQnA, Status: tc.status})
		assert.Equal(t, tc.wantStatus, got.Status, "status %q", tc.status)
		assert.Equal(t, tc.wantPriority, got.Priority, "status %q", tc.status)
	}
}

func TestClassify_Review_FullRatingRange(t *testing.T) {
	c := NewClassifier(nil)

	cases := []struct {
		rating       int
		wantStatus   model.TicketStatus
		wantPriority model.Priority
	}{
		{1, model.TicketStatusOpen, model.PriorityHigh},
		{2, model.TicketStatusOpen, model.PriorityHigh},
		{3, model.TicketStatusOpen, model.PriorityMedium},
		{4, model.TicketStatusResolved, model.PriorityLow},
		{5, model.TicketStatusResolved, model.PriorityLow},
	}
	for _, tc := range cases {
		got := c.Classify(model.CanonicalRecord{SourceKind: model.SourceKindReview, Rating: tc.rating})
		assert.Equal(t, tc.wantStatus, got.Status, "rating %d", tc.rating)
		assert.Equal(t, tc.wantPriority, got.Priority, "rating %d", tc.rating)
	}
}
