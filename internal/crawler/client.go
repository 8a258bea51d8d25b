package crawler

import (
	"context"

	"github.com/marketdesk/feedsync/internal/config"
	"github.com/marketdesk/feedsync/internal/metrics"
	"github.com/marketdesk/feedsync/internal/model"
)

// Source is the crawl entry point the ingestion pipeline depends on.
type Source interface {
	Fetch(ctx context.Context, kind model.SourceKind, productURL string, pages int) ([]model.CanonicalRecord, error)
}

// Client ties the invoker, parser and normalizer together behind Source.
type Client struct {
	invoker *Invoker
}

// NewClient creates a crawl client from explicit configuration.
func NewClient(cfg config.CrawlerConfig) *Client {
	return &Client{invoker: NewInvoker(cfg)}
}

// Fetch runs one crawl and returns fully normalized canonical records in
// the order the crawler produced them.
func (c *Client) Fetch(ctx context.Context, kind model.SourceKind, productURL string, pages int) ([]model.CanonicalRecord, error) {
	timer := metrics.CrawlTimer(kind)
	out, err := c.invoker.Invoke(ctx, kind, productURL, pages)
	if err != nil {
		timer.Done("invoke_error")
		return nil, err
	}

	raw, err := Parse(out.Stdout)
	if err != nil {
		timer.Done("parse_error")
		return nil, err
	}
	timer.Done("ok")

	records := make([]model.CanonicalRecord, 0, len(raw))
	for _, item := range raw {
		records = append(records, Normalize(item, kind))
	}
	return records, nil
}
