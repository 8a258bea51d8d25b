package ingest

import (
	"strings"

	"github.com/marketdesk/feedsync/internal/model"
)

// Classifier maps a canonical record to a lifecycle status and priority.
// Pure and total over the declared input domain.
type Classifier struct {
	answeredTokens []string
}

// NewClassifier creates a classifier with the given answered-status
// vocabulary. The upstream QnA status field is free text, not an enum, so
// "answered" detection is a substring match against these tokens.
func NewClassifier(answeredTokens []string) *Classifier {
	return &Classifier{answeredTokens: answeredTokens}
}

// Classify returns the status/priority pair for a record.
//
// QnA: answered → RESOLVED/LOW, otherwise OPEN/HIGH (an unanswered
// question is a customer waiting).
// Review: ratings 1-2 → OPEN/HIGH, 3 → OPEN/MEDIUM, 4-5 → RESOLVED/LOW.
// Ratings arrive pre-clamped into [1,5] by the normalizer.
func (c *Classifier) Classify(rec model.CanonicalRecord) model.Classification {
	if rec.SourceKind == model.SourceKindReview {
		switch {
		case rec.Rating <= 2:
			return model.Classification{Status: model.TicketStatusOpen, Priority: model.PriorityHigh}
		case rec.Rating == 3:
			return model.Classification{Status: model.TicketStatusOpen, Priority: model.PriorityMedium}
		default:
			return model.Classification{Status: model.TicketStatusResolved, Priority: model.PriorityLow}
		}
	}

	if c.isAnswered(rec.Status) {
		return model.Classification{Status: model.TicketStatusResolved, Priority: model.PriorityLow}
	}
	return model.Classification{Status: model.TicketStatusOpen, Priority: model.PriorityHigh}
}

func (c *Classifier) isAnswered(status string) bool {
	lowered := strings.ToLower(status)
	for _, token := range c.answeredTokens {
		if strings.Contains(lowered, strings.ToLower(token)) {
			return true
		}
	}
	return false
}
