package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/marketdesk/feedsync/internal/crawler"
	"github.com/marketdesk/feedsync/internal/ingest"
	"github.com/marketdesk/feedsync/internal/model"
	"github.com/marketdesk/feedsync/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "feedsync.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func buildPipeline(st store.Store) *ingest.Pipeline {
	return ingest.NewPipeline(
		crawler.NewClient(cfg.Crawler),
		ingest.NewDuplicateResolver(st),
		ingest.NewCustomerResolver(st, cfg.Ingest.EmailDomain),
		ingest.NewClassifier(cfg.Ingest.AnsweredTokens),
		ingest.NewTicketWriter(st, cfg.Ingest.ReviewSource),
	)
}

func parseKind(arg string) (model.SourceKind, error) {
	switch arg {
	case "qna":
		return model.SourceKindQnA, nil
	case "review", "reviews":
		return model.SourceKindReview, nil
	default:
		return "", eris.Errorf("unknown source kind %q (want qna or review)", arg)
	}
}
