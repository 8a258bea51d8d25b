package model

import "time"

// CustomerStatus represents the account state of a customer record.
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "ACTIVE"
	CustomerStatusInactive CustomerStatus = "INACTIVE"
)

// Customer is a persisted customer record. The identity key is Name:
// crawled items carry only a display name, so two distinct people sharing
// a name collapse into one record. This is a documented precision limit.
type Customer struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"` // synthetic, derived from Name
	Status    CustomerStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}
