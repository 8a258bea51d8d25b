package ingest

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/marketdesk/feedsync/internal/crawler"
	"github.com/marketdesk/feedsync/internal/metrics"
	"github.com/marketdesk/feedsync/internal/model"
	"github.com/marketdesk/feedsync/internal/store"
)

// Pipeline drives one ingestion run: crawl, then per record dedup-check,
// customer resolution, classification and write. Records are processed
// strictly in crawl order. A persistence failure aborts only that
// record's processing; the batch continues.
type Pipeline struct {
	source     crawler.Source
	dedup      *DuplicateResolver
	customers  *CustomerResolver
	classifier *Classifier
	writer     *TicketWriter
}

// NewPipeline wires the ingestion stages together.
func NewPipeline(source crawler.Source, dedup *DuplicateResolver, customers *CustomerResolver, classifier *Classifier, writer *TicketWriter) *Pipeline {
	return &Pipeline{
		source:     source,
		dedup:      dedup,
		customers:  customers,
		classifier: classifier,
		writer:     writer,
	}
}

// Run executes one ingestion for the given kind and product URL. Crawl
// failures (infra, parse, domain) are returned; per-record failures are
// absorbed into the summary.
func (p *Pipeline) Run(ctx context.Context, kind model.SourceKind, productURL string, pages int) (*model.IngestionSummary, error) {
	records, err := p.source.Fetch(ctx, kind, productURL, pages)
	if err != nil {
		return nil, err
	}

	summary := &model.IngestionSummary{TotalSeen: len(records)}
	for _, rec := range records {
		switch p.processRecord(ctx, rec, productURL) {
		case outcomeCreated:
			summary.Created++
		case outcomeDuplicate:
			summary.SkippedDuplicates++
		case outcomeFailed:
			summary.Failed++
		}
	}

	zap.L().Info("ingestion run complete",
		zap.String("kind", string(kind)),
		zap.String("product_url", productURL),
		zap.Int("total_seen", summary.TotalSeen),
		zap.Int("created", summary.Created),
		zap.Int("skipped_duplicates", summary.SkippedDuplicates),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

type recordOutcome string

const (
	outcomeCreated   recordOutcome = "created"
	outcomeDuplicate recordOutcome = "duplicate"
	outcomeFailed    recordOutcome = "failed"
)

func (p *Pipeline) processRecord(ctx context.Context, rec model.CanonicalRecord, productURL string) (outcome recordOutcome) {
	defer func() {
		metrics.RecordIngestItem(rec.SourceKind, string(outcome))
	}()

	exists, err := p.dedup.Exists(ctx, rec)
	if err != nil {
		zap.L().Error("duplicate check failed, skipping record",
			zap.String("title", rec.Title), zap.Error(err))
		return outcomeFailed
	}
	if exists {
		return outcomeDuplicate
	}

	customer, err := p.customers.Resolve(ctx, rec.AuthorName)
	if err != nil {
		zap.L().Error("customer resolution failed, skipping record",
			zap.String("author", rec.AuthorName), zap.Error(err))
		return outcomeFailed
	}

	cls := p.classifier.Classify(rec)

	if _, err := p.writer.Write(ctx, rec, customer, cls, productURL); err != nil {
		if errors.Is(err, store.ErrDuplicateSourceKey) {
			// Another run won the check-then-write race; the item exists.
			return outcomeDuplicate
		}
		zap.L().Error("ticket write failed, skipping record",
			zap.String("title", rec.Title), zap.Error(err))
		return outcomeFailed
	}
	return outcomeCreated
}
