package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/intake-cli/internal/audit"
	"github.com/sells-group/intake-cli/internal/refstore"
	"github.com/sells-group/intake-cli/internal/resilience"
	"github.com/sells-group/intake-cli/internal/resolver"
	"github.com/sells-group/intake-cli/pkg/anthropic"
	"github.com/sells-group/intake-cli/pkg/voyage"
)

func initStore(ctx context.Context) (refstore.Store, error) {
	var (
		st  refstore.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "intake.db"
		}
		st, err = refstore.NewSQLite(dsn)
	case "postgres":
		st, err = refstore.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.EmbeddingDim, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		cache := refstore.NewEntityCache(cfg.Cache.Capacity, cfg.Cache.TTL)
		return refstore.NewCachedStore(st, cache), nil
	}
	return st, nil
}

// initResolver wires the cascade: store, embedding client, tiebreak client,
// audit sink, health tracker. The audit sink shares the postgres pool when
// one exists; otherwise decisions go to the structured log.
func initResolver(st refstore.Store) *resolver.Resolver {
	embedder := voyage.NewClient(cfg.Voyage.Key,
		voyage.WithBaseURL(cfg.Voyage.BaseURL),
		voyage.WithModel(cfg.Voyage.Model),
		voyage.WithRateLimit(cfg.Voyage.RateLimit, cfg.Voyage.RateBurst),
	)
	llm := anthropic.NewClient(cfg.Anthropic.Key)

	var sink audit.Sink = audit.LogSink{}
	if pg := postgresStore(st); pg != nil {
		sink = audit.NewPostgresSink(pg.Pool())
	}

	health := resilience.NewHealthTracker(cfg.Health.FailureThreshold)
	return resolver.New(st, embedder, llm, sink, health, cfg.Resolver)
}

// postgresStore unwraps the cache layer, returning nil for other drivers.
func postgresStore(st refstore.Store) *refstore.PostgresStore {
	if cached, ok := st.(*refstore.CachedStore); ok {
		st = cached.Store
	}
	pg, _ := st.(*refstore.PostgresStore)
	return pg
}
