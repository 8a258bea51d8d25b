package model

import "time"

// ReviewRecord is the companion analytics artifact written alongside a
// review-sourced ticket. It feeds downstream sentiment analysis and is
// best-effort: a failed review write never rolls back the ticket.
type ReviewRecord struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id,omitempty"`
	ProductRef string    `json:"product_ref"` // product URL the crawl ran against
	Rating     int       `json:"rating"`
	Content    string    `json:"content"`
	AuthorName string    `json:"author_name"`
	Source     string    `json:"source"`
	Date       time.Time `json:"date"`
	CreatedAt  time.Time `json:"created_at"`
}
