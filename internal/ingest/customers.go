package ingest

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/marketdesk/feedsync/internal/model"
	"github.com/marketdesk/feedsync/internal/store"
)

// CustomerResolver finds or creates a customer by author name. Name is the
// only identity the crawler exposes, so two real people sharing a name
// collapse into one record. Not safe under true concurrency for the same
// new name; ingestion is sequential per run.
type CustomerResolver struct {
	st          store.Store
	emailDomain string
}

// NewCustomerResolver creates a resolver that synthesizes emails on the
// given domain.
func NewCustomerResolver(st store.Store, emailDomain string) *CustomerResolver {
	return &CustomerResolver{st: st, emailDomain: emailDomain}
}

// Resolve returns the customer with the exact name, creating one with
// status ACTIVE and a synthetic email if none exists.
func (r *CustomerResolver) Resolve(ctx context.Context, authorName string) (*model.Customer, error) {
	c, err := r.st.FindCustomerByName(ctx, authorName)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}

	c = &model.Customer{
		ID:     uuid.New().String(),
		Name:   authorName,
		Email:  SynthesizeEmail(authorName, r.emailDomain),
		Status: model.CustomerStatusActive,
	}
	if err := r.st.CreateCustomer(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SynthesizeEmail derives a deterministic placeholder address from a
// display name: NFKC-normalize, keep ASCII alphanumerics, lowercase,
// append the configured domain. Names with no ASCII-representable runes
// (common for Korean authors) yield an empty local part; the address is a
// placeholder, never a deliverable mailbox.
func SynthesizeEmail(name, domain string) string {
	normalized := norm.NFKC.String(name)

	var local strings.Builder
	for _, r := range normalized {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			local.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			local.WriteRune(r + ('a' - 'A'))
		}
	}
	return local.String() + "@" + domain
}
