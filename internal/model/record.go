package model

// SourceKind identifies which marketplace surface a crawled item came from.
type SourceKind string

const (
	SourceKindQnA    SourceKind = "qna"
	SourceKindReview SourceKind = "review"
)

// Valid reports whether k is one of the declared source kinds.
func (k SourceKind) Valid() bool {
	return k == SourceKindQnA || k == SourceKindReview
}

// CanonicalRecord is the normalized, source-kind-agnostic shape every raw
// crawler item is converted into before dedup and classification. All
// optional upstream fields are defaulted during normalization, so a
// CanonicalRecord is always fully populated except BodyText, which may be
// legitimately empty upstream ("no answer yet" is substituted).
type CanonicalRecord struct {
	SourceKind SourceKind `json:"source_kind"`
	Title      string     `json:"title"`
	AuthorName string     `json:"author_name"` // never empty; "anonymous" when absent
	BodyText   string     `json:"body_text"`
	// SourceTimestamp is an opaque date string exactly as the crawler
	// emitted it (e.g. "24.01.01"). It is part of the dedup natural key
	// and must not be reformatted.
	SourceTimestamp string   `json:"source_timestamp"`
	Status          string   `json:"status,omitempty"` // QnA free-text answer status
	Rating          int      `json:"rating,omitempty"` // review rating 1-5
	Secret          bool     `json:"secret,omitempty"`
	SourceID        string   `json:"source_id,omitempty"` // review-only upstream identifier
	Images          []string `json:"images,omitempty"`
}

// IngestionSummary reports the outcome of one ingestion run back to the
// caller. Created + SkippedDuplicates + Failed == TotalSeen.
type IngestionSummary struct {
	Created           int `json:"created"`
	SkippedDuplicates int `json:"skipped_duplicates"`
	Failed            int `json:"failed"`
	TotalSeen         int `json:"total_seen"`
}
