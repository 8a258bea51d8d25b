package crawler

import (
	"bytes"
	"encoding/json"
)

// RawItem is one semi-structured item from the crawler payload. QnA and
// review items share this shape; each kind populates a different subset.
type RawItem struct {
	// QnA fields
	Status   string `json:"status"`
	Answer   string `json:"answer"`
	IsSecret bool   `json:"isSecret"`

	// Review fields
	ID      string   `json:"id"`
	Rating  float64  `json:"rating"`
	Content string   `json:"content"`
	Images  []string `json:"images"`

	// Shared
	Title  string `json:"title"`
	Author string `json:"author"`
	Date   string `json:"date"`
}

// envelope is the single stdout payload the crawler contract promises.
// Different script generations named the item list differently, so all
// three keys are accepted.
type envelope struct {
	Success bool      `json:"success"`
	Error   string    `json:"error"`
	Items   []RawItem `json:"items"`
	Data    []RawItem `json:"data"`
	Reviews []RawItem `json:"reviews"`
	Count   int       `json:"count"`
}

// Parse decodes the crawler's stdout. A payload that cannot be decoded is
// a *ParseError (contract mismatch); a well-formed payload carrying
// success=false is a *DomainError with the upstream message verbatim.
// A successful payload with zero items is a valid, empty result.
func Parse(stdout []byte) ([]RawItem, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(stdout))
	if err := dec.Decode(&env); err != nil {
		return nil, &ParseError{Err: err}
	}

	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "crawler reported failure without a message"
		}
		return nil, &DomainError{Message: msg}
	}

	items := env.Items
	if len(items) == 0 {
		items = env.Data
	}
	if len(items) == 0 {
		items = env.Reviews
	}
	return items, nil
}
