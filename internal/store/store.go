// Package store persists tickets, customers and companion review records.
// Two backends implement the same interface: SQLite for single-box
// deployments and Postgres for shared ones.
package store

import (
	"context"
	"errors"

	"github.com/marketdesk/feedsync/internal/model"
)

// ErrDuplicateSourceKey is returned by CreateTicket when the ticket's
// natural key already exists. Ingestion treats it as "already exists",
// not as a failure; it is what closes the check-then-write race between
// overlapping runs.
var ErrDuplicateSourceKey = errors.New("store: duplicate source key")

// TicketFilter specifies criteria for listing tickets.
type TicketFilter struct {
	Status model.TicketStatus `json:"status,omitempty"`
	// SourcePrefix restricts results to tickets whose description starts
	// with the given provenance prefix.
	SourcePrefix string `json:"source_prefix,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the ingestion pipeline.
type Store interface {
	// Tickets
	CreateTicket(ctx context.Context, t *model.Ticket) error
	GetTicket(ctx context.Context, id string) (*model.Ticket, error)
	ListTickets(ctx context.Context, filter TicketFilter) ([]model.Ticket, error)
	TicketStats(ctx context.Context) (*model.TicketStats, error)
	UpdateTicketStatus(ctx context.Context, id string, status model.TicketStatus) error
	DeleteTicketsByDescriptionPrefix(ctx context.Context, prefix string) (int, error)

	// Dedup reads
	TicketExistsBySourceKey(ctx context.Context, key string) (bool, error)
	QnADuplicateExists(ctx context.Context, subject, authorName, dateSubstring string) (bool, error)
	TicketDescriptionContains(ctx context.Context, substring string) (bool, error)

	// Comments
	AddTicketComment(ctx context.Context, c *model.TicketComment) error
	ListTicketComments(ctx context.Context, ticketID string) ([]model.TicketComment, error)

	// Customers
	GetCustomer(ctx context.Context, id string) (*model.Customer, error)
	FindCustomerByName(ctx context.Context, name string) (*model.Customer, error)
	CreateCustomer(ctx context.Context, c *model.Customer) error

	// Companion review records
	CreateReview(ctx context.Context, r *model.ReviewRecord) error
	ListReviews(ctx context.Context, limit int) ([]model.ReviewRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
