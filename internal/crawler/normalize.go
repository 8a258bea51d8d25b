package crawler

import (
	"fmt"

	"github.com/marketdesk/feedsync/internal/model"
)

const (
	defaultAuthor     = "anonymous"
	defaultAnswer     = "no answer yet"
	defaultContent    = "no content"
	defaultTimestamp  = "unknown"
	defaultRating     = 5
	titlePreviewRunes = 30
)

// Normalize maps a raw crawler item into a canonical record. It is total:
// every optional field has a default and normalization never fails on
// missing data.
func Normalize(raw RawItem, kind model.SourceKind) model.CanonicalRecord {
	rec := model.CanonicalRecord{
		SourceKind:      kind,
		AuthorName:      raw.Author,
		SourceTimestamp: raw.Date,
	}
	if rec.AuthorName == "" {
		rec.AuthorName = defaultAuthor
	}
	if rec.SourceTimestamp == "" {
		rec.SourceTimestamp = defaultTimestamp
	}

	switch kind {
	case model.SourceKindReview:
		rec.Rating = clampRating(raw.Rating)
		rec.BodyText = raw.Content
		if rec.BodyText == "" {
			rec.BodyText = defaultContent
		}
		rec.Title = reviewTitle(rec.Rating, raw.Content)
		rec.SourceID = raw.ID
		rec.Images = raw.Images
	default: // QnA
		rec.Title = raw.Title
		rec.BodyText = raw.Answer
		if rec.BodyText == "" {
			rec.BodyText = defaultAnswer
		}
		rec.Status = raw.Status
		rec.Secret = raw.IsSecret
	}
	return rec
}

// reviewTitle synthesizes "[Review] {rating} - {first 30 chars of content}",
// truncating by runes so multi-byte content doesn't split mid-character.
func reviewTitle(rating int, content string) string {
	preview := content
	if preview == "" {
		preview = defaultContent
	}
	runes := []rune(preview)
	if len(runes) > titlePreviewRunes {
		preview = string(runes[:titlePreviewRunes]) + "..."
	}
	return fmt.Sprintf("[Review] %d - %s", rating, preview)
}

// clampRating folds the upstream rating into [1,5]. Ratings are never
// validated upstream; an absent rating comes through as 0 and gets the
// historical default of 5.
func clampRating(raw float64) int {
	if raw == 0 {
		return defaultRating
	}
	r := int(raw)
	if r < 1 {
		return 1
	}
	if r > 5 {
		return 5
	}
	return r
}
