package respond

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/marketdesk/feedsync/internal/config"
	"github.com/marketdesk/feedsync/internal/ingest"
	"github.com/marketdesk/feedsync/internal/metrics"
	"github.com/marketdesk/feedsync/internal/model"
	"github.com/marketdesk/feedsync/internal/resilience"
	"github.com/marketdesk/feedsync/internal/store"
	"github.com/marketdesk/feedsync/pkg/anthropic"
)

const systemPrompt = `You are a customer support agent for an online marketplace store.
Draft a reply to the customer inquiry below. Be courteous and concrete,
answer in the customer's language, and do not promise anything the
ticket text does not support. Reply with the draft text only.`

// Responder drafts replies for open crawler-sourced tickets. Drafts are
// saved as internal auto-generated comments; nothing is sent to the
// customer until an agent approves the draft.
type Responder struct {
	st        store.Store
	llm       anthropic.Client
	model     string
	maxTokens int64
	limit     int
	delay     time.Duration
	retry     resilience.RetryConfig
}

// NewResponder wires a responder from configuration.
func NewResponder(st store.Store, llm anthropic.Client, cfg *config.Config) *Responder {
	return &Responder{
		st:        st,
		llm:       llm,
		model:     cfg.Anthropic.Model,
		maxTokens: cfg.Anthropic.MaxTokens,
		limit:     cfg.Respond.Limit,
		delay:     time.Duration(cfg.Respond.DelayMs) * time.Millisecond,
		retry:     resilience.DefaultRetryConfig(),
	}
}

// Run drafts replies for the given ticket ids, strictly one at a time.
// With no ids it selects open question tickets up to the configured
// limit, newest first. Per-item failures are recorded in the report; the
// only hard error is failing to select tickets.
func (r *Responder) Run(ctx context.Context, ticketIDs []string) (*BatchReport, error) {
	if len(ticketIDs) == 0 {
		tickets, err := r.st.ListTickets(ctx, store.TicketFilter{
			Status:       model.TicketStatusOpen,
			SourcePrefix: ingest.QnAPrefix,
			Limit:        r.limit,
		})
		if err != nil {
			return nil, eris.Wrap(err, "respond: select open tickets")
		}
		for _, t := range tickets {
			ticketIDs = append(ticketIDs, t.ID)
		}
	}

	zap.L().Info("batch response run starting",
		zap.Int("tickets", len(ticketIDs)),
		zap.Duration("delay", r.delay),
	)

	report := RunSequential(ctx, ticketIDs, r.delay, r.draftOne)

	zap.L().Info("batch response run complete",
		zap.Int("success", report.SuccessCount),
		zap.Int("failed", report.FailCount),
	)
	return &report, nil
}

func (r *Responder) draftOne(ctx context.Context, ticketID string) (err error) {
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.RecordBatchResponse(outcome)
	}()

	ticket, err := r.st.GetTicket(ctx, ticketID)
	if err != nil {
		return eris.Wrapf(err, "respond: load ticket %s", ticketID)
	}
	if ticket == nil {
		return eris.Errorf("respond: ticket %s not found", ticketID)
	}

	customerName := ""
	if customer, err := r.st.GetCustomer(ctx, ticket.CustomerID); err == nil && customer != nil {
		customerName = customer.Name
	}

	resp, err := resilience.DoVal(ctx, r.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return r.llm.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     r.model,
			MaxTokens: r.maxTokens,
			System:    anthropic.BuildCachedSystemBlocks(systemPrompt),
			Messages: []anthropic.Message{
				{Role: "user", Content: buildPrompt(ticket, customerName)},
			},
		})
	})
	if err != nil {
		return eris.Wrapf(err, "respond: draft reply for ticket %s", ticketID)
	}

	draft := strings.TrimSpace(resp.FirstText())
	if draft == "" {
		return eris.Errorf("respond: empty draft for ticket %s", ticketID)
	}

	comment := &model.TicketComment{
		ID:            uuid.New().String(),
		TicketID:      ticketID,
		Content:       draft,
		Internal:      true,
		AutoGenerated: true,
	}
	if err := r.st.AddTicketComment(ctx, comment); err != nil {
		return eris.Wrapf(err, "respond: save draft for ticket %s", ticketID)
	}

	resp.Usage.LogCost(r.model, "respond")
	return nil
}

func buildPrompt(t *model.Ticket, customerName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", t.Subject)
	if customerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", customerName)
	}
	fmt.Fprintf(&b, "\n%s\n", t.Description)
	return b.String()
}
