package model

import "time"

// TicketStatus represents the lifecycle state of a support ticket.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "OPEN"
	TicketStatusResolved TicketStatus = "RESOLVED"
)

// Priority represents ticket urgency.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Classification pairs the lifecycle status and priority assigned to an
// incoming record by the classifier.
type Classification struct {
	Status   TicketStatus `json:"status"`
	Priority Priority     `json:"priority"`
}

// Ticket is a persisted support ticket. Description embeds the provenance
// block (kind marker + source timestamp + author/source id) that serves as
// the durable natural key for dedup and as the bulk-deletion selector.
type Ticket struct {
	ID          string       `json:"id"`
	Subject     string       `json:"subject"`
	Description string       `json:"description"`
	Status      TicketStatus `json:"status"`
	Priority    Priority     `json:"priority"`
	CustomerID  string       `json:"customer_id"`
	// SourceKey is the materialized natural key (unique, nullable for
	// tickets created outside ingestion). A uniqueness violation on this
	// column is treated as "already exists", not as an error.
	SourceKey  string     `json:"source_key,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// TicketComment is a note attached to a ticket. LLM-drafted replies are
// stored as internal auto-generated comments pending agent approval.
type TicketComment struct {
	ID            string    `json:"id"`
	TicketID      string    `json:"ticket_id"`
	Content       string    `json:"content"`
	Internal      bool      `json:"internal"`
	AutoGenerated bool      `json:"auto_generated"`
	CreatedAt     time.Time `json:"created_at"`
}

// TicketStats summarizes ticket counts for the dashboard.
type TicketStats struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Resolved int `json:"resolved"`
}
