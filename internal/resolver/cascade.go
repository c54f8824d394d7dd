package resolver

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/intake-cli/internal/audit"
	"github.com/sells-group/intake-cli/internal/model"
	"github.com/sells-group/intake-cli/internal/refstore"
	"github.com/sells-group/intake-cli/internal/resilience"
	"github.com/sells-group/intake-cli/pkg/anthropic"
	"github.com/sells-group/intake-cli/pkg/voyage"
)

// Config holds the cascade tunables. Thresholds and margins are data, not
// code, so they can be tuned per deployment without touching stage logic.
type Config struct {
	TopK                int           `yaml:"top_k" mapstructure:"top_k"`
	MaxAlternatives     int           `yaml:"max_alternatives" mapstructure:"max_alternatives"`
	AutoAcceptThreshold float64       `yaml:"auto_accept_threshold" mapstructure:"auto_accept_threshold"`
	TiebreakThreshold   float64       `yaml:"tiebreak_threshold" mapstructure:"tiebreak_threshold"`
	ScoreMargin         float64       `yaml:"score_margin" mapstructure:"score_margin"`
	TiebreakConfidence  float64       `yaml:"tiebreak_confidence" mapstructure:"tiebreak_confidence"`
	TiebreakCandidates  int           `yaml:"tiebreak_candidates" mapstructure:"tiebreak_candidates"`
	TiebreakModel       string        `yaml:"tiebreak_model" mapstructure:"tiebreak_model"`
	TiebreakMaxTokens   int64         `yaml:"tiebreak_max_tokens" mapstructure:"tiebreak_max_tokens"`
	ProviderTimeout     time.Duration `yaml:"provider_timeout" mapstructure:"provider_timeout"`
	ItemWorkers         int           `yaml:"item_workers" mapstructure:"item_workers"`
	QuantitySwapRatio   float64       `yaml:"quantity_swap_ratio" mapstructure:"quantity_swap_ratio"`
}

// DefaultConfig returns the production defaults for the cascade.
func DefaultConfig() Config {
	return Config{
		TopK:                25,
		MaxAlternatives:     5,
		AutoAcceptThreshold: 0.85,
		TiebreakThreshold:   0.75,
		ScoreMargin:         0.03,
		TiebreakConfidence:  0.80,
		TiebreakCandidates:  3,
		TiebreakModel:       "claude-haiku-4-5-20251001",
		TiebreakMaxTokens:   256,
		ProviderTimeout:     15 * time.Second,
		ItemWorkers:         4,
		QuantitySwapRatio:   10,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	if c.MaxAlternatives <= 0 {
		c.MaxAlternatives = d.MaxAlternatives
	}
	if c.AutoAcceptThreshold <= 0 {
		c.AutoAcceptThreshold = d.AutoAcceptThreshold
	}
	if c.TiebreakThreshold <= 0 {
		c.TiebreakThreshold = d.TiebreakThreshold
	}
	if c.ScoreMargin <= 0 {
		c.ScoreMargin = d.ScoreMargin
	}
	if c.TiebreakConfidence <= 0 {
		c.TiebreakConfidence = d.TiebreakConfidence
	}
	if c.TiebreakCandidates <= 0 {
		c.TiebreakCandidates = d.TiebreakCandidates
	}
	if c.TiebreakModel == "" {
		c.TiebreakModel = d.TiebreakModel
	}
	if c.TiebreakMaxTokens <= 0 {
		c.TiebreakMaxTokens = d.TiebreakMaxTokens
	}
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = d.ProviderTimeout
	}
	if c.ItemWorkers <= 0 {
		c.ItemWorkers = d.ItemWorkers
	}
	if c.QuantitySwapRatio <= 0 {
		c.QuantitySwapRatio = d.QuantitySwapRatio
	}
	return c
}

// Resolver runs the resolution cascade for all entity kinds. It holds no
// per-call state; one instance serves concurrent resolutions.
type Resolver struct {
	store    refstore.Store
	embedder voyage.Client
	llm      anthropic.Client
	sink     audit.Sink
	health   *resilience.HealthTracker
	retryCfg resilience.RetryConfig
	cfg      Config
}

// New creates a Resolver. A nil sink falls back to log-only auditing and a
// nil health tracker gets a private one.
func New(store refstore.Store, embedder voyage.Client, llm anthropic.Client, sink audit.Sink, health *resilience.HealthTracker, cfg Config) *Resolver {
	if sink == nil {
		sink = audit.LogSink{}
	}
	if health == nil {
		health = resilience.NewHealthTracker(3)
	}
	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("provider", "resolve")
	return &Resolver{
		store:    store,
		embedder: embedder,
		llm:      llm,
		sink:     sink,
		health:   health,
		retryCfg: retryCfg,
		cfg:      cfg.withDefaults(),
	}
}

// Health exposes the per-stage health snapshot so callers can short-circuit
// to manual review when a provider-backed stage is flagged unhealthy.
func (r *Resolver) Health() map[string]resilience.StageStatus {
	return r.health.Status()
}

// Resolve runs the full cascade for one normalized query. Exactly one audit
// record is written per call, matched or not, including infrastructure
// failures. A store outage is returned as an error (wrapped
// refstore.ErrUnavailable) and is never reported as "no match".
func (r *Resolver) Resolve(ctx context.Context, q model.MatchQuery) (model.MatchResult, error) {
	spec, ok := SpecFor(q.Kind)
	if !ok {
		return model.MatchResult{}, eris.Errorf("resolver: unknown entity kind %q", q.Kind)
	}

	start := time.Now()

	detResult, seeds, err := r.deterministic(ctx, q)
	if err != nil {
		r.writeAudit(ctx, q, model.NoMatch(nil, "store failure: "+err.Error()), nil, "")
		return model.MatchResult{}, err
	}
	if detResult != nil {
		r.writeAudit(ctx, q, *detResult, nil, "")
		r.logOutcome(q, *detResult, start)
		return *detResult, nil
	}

	scored, err := r.retrieve(ctx, spec, q, seeds)
	if err != nil {
		r.writeAudit(ctx, q, model.NoMatch(nil, "store failure: "+err.Error()), nil, "")
		return model.MatchResult{}, err
	}

	candidates := rerank(spec, q, scored)
	result, tiebreakRaw := r.gate(ctx, q, candidates)

	r.writeAudit(ctx, q, result, alternatives(candidates, r.cfg.MaxAlternatives), tiebreakRaw)
	r.logOutcome(q, result, start)
	return result, nil
}

// writeAudit appends the decision trace. Sink failures are logged, never
// propagated: losing one audit line must not fail a resolution.
func (r *Resolver) writeAudit(ctx context.Context, q model.MatchQuery, res model.MatchResult, candidates []model.Alternative, tiebreakRaw string) {
	record := model.AuditRecord{
		Kind:        q.Kind,
		Query:       q,
		Candidates:  candidates,
		ChosenKey:   res.Key,
		Method:      res.Method,
		Confidence:  res.Confidence,
		Reasons:     res.Reasons,
		TiebreakRaw: tiebreakRaw,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.sink.Append(ctx, record); err != nil {
		zap.L().Error("audit append failed",
			zap.String("kind", string(q.Kind)),
			zap.Error(err),
		)
	}
}

func (r *Resolver) logOutcome(q model.MatchQuery, res model.MatchResult, start time.Time) {
	zap.L().Debug("resolution complete",
		zap.String("kind", string(q.Kind)),
		zap.Bool("matched", res.Matched),
		zap.String("method", string(res.Method)),
		zap.Float64("confidence", res.Confidence),
		zap.Duration("elapsed", time.Since(start)),
	)
}
