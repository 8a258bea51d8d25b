// Package ingest turns canonical crawler records into tickets exactly once
// per logical item: duplicate resolution, customer resolution,
// classification and the ticket write itself.
package ingest

import (
	"fmt"
	"strings"

	"github.com/marketdesk/feedsync/internal/model"
)

// Provenance marker format. These exact prefixes are a durable contract:
// they are the duplicate resolver's natural key and the purge selector,
// not incidental formatting. Do not change them without migrating every
// persisted ticket description.
const (
	QnAPrefix    = "[Source QNA - "
	ReviewPrefix = "[Source Review - "

	SourceIDLabel = "source id: "

	separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

	maxInlineImages = 5
)

// SourcePrefix returns the provenance prefix for a kind.
func SourcePrefix(kind model.SourceKind) string {
	if kind == model.SourceKindReview {
		return ReviewPrefix
	}
	return QnAPrefix
}

// SourceKey materializes the record's natural key for the unique ticket
// column. QnA items key on title+author+timestamp; reviews key on their
// upstream id, falling back to author+timestamp when the id is absent.
func SourceKey(rec model.CanonicalRecord) string {
	if rec.SourceKind == model.SourceKindReview {
		if rec.SourceID != "" {
			return "review:" + rec.SourceID
		}
		return "review:" + rec.AuthorName + "|" + rec.SourceTimestamp
	}
	return "qna:" + rec.Title + "|" + rec.AuthorName + "|" + rec.SourceTimestamp
}

// BuildDescription renders the full ticket description: provenance header,
// body, separator, and the footer block the duplicate resolver scans.
func BuildDescription(rec model.CanonicalRecord) string {
	var b strings.Builder

	b.WriteString(SourcePrefix(rec.SourceKind))
	b.WriteString(rec.SourceTimestamp)
	b.WriteString("]\n\n")

	if rec.SourceKind == model.SourceKindReview {
		fmt.Fprintf(&b, "rating: %d\n", rec.Rating)
		fmt.Fprintf(&b, "content: %s", rec.BodyText)
		if len(rec.Images) > 0 {
			b.WriteString("\n\n[images]\n")
			shown := rec.Images
			if len(shown) > maxInlineImages {
				shown = shown[:maxInlineImages]
			}
			b.WriteString(strings.Join(shown, "\n"))
			if extra := len(rec.Images) - maxInlineImages; extra > 0 {
				fmt.Fprintf(&b, "\n... and %d more", extra)
			}
		}
	} else {
		b.WriteString(rec.BodyText)
	}

	b.WriteString("\n\n")
	b.WriteString(separator)
	b.WriteString("\n")
	fmt.Fprintf(&b, "author: %s\n", rec.AuthorName)
	fmt.Fprintf(&b, "date: %s\n", rec.SourceTimestamp)

	if rec.SourceKind == model.SourceKindReview {
		b.WriteString(SourceIDLabel)
		b.WriteString(rec.SourceID)
	} else {
		fmt.Fprintf(&b, "status: %s", rec.Status)
		if rec.Secret {
			b.WriteString("\n[secret]")
		}
	}

	return b.String()
}
