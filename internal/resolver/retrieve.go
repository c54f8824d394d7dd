package resolver

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/intake-cli/internal/model"
	"github.com/sells-group/intake-cli/internal/refstore"
	"github.com/sells-group/intake-cli/internal/resilience"
)

// stage names used by the health tracker.
const (
	stageEmbedding = "embedding"
	stageTiebreak  = "tiebreak"
)

// retrieve embeds the kind-ordered query text and pulls the top-K active
// entities by cosine similarity, pre-filtered by domain when the
// deterministic pass established one. Seeds from ambiguous deterministic
// hits are guaranteed a spot in the returned set.
//
// An embedding failure degrades: the seeds (possibly none) come back with
// zero similarity and the error stays inside this stage.
func (r *Resolver) retrieve(ctx context.Context, spec KindSpec, q model.MatchQuery, seeds []model.ReferenceEntity) ([]refstore.ScoredEntity, error) {
	text := spec.QueryText(q)
	if text == "" {
		return seedScored(seeds), nil
	}

	vec, err := resilience.DoVal(ctx, r.retryCfg, func(ctx context.Context) ([]float32, error) {
		ctx, cancel := context.WithTimeout(ctx, r.cfg.ProviderTimeout)
		defer cancel()
		return r.embedder.Embed(ctx, text)
	})
	r.health.Record(stageEmbedding, err)
	if err != nil {
		zap.L().Warn("embedding call failed, degrading to deterministic seeds",
			zap.String("kind", string(q.Kind)),
			zap.Error(err),
		)
		return seedScored(seeds), nil
	}

	scored, err := r.store.TopKByEmbedding(ctx, q.Kind, vec, r.cfg.TopK, q.Domain)
	if err != nil {
		return nil, err
	}

	// Append any seed the vector search missed (e.g. no embedding on file).
	present := make(map[string]bool, len(scored))
	for _, s := range scored {
		present[s.Entity.Key] = true
	}
	for _, e := range seeds {
		if !present[e.Key] {
			scored = append(scored, refstore.ScoredEntity{Entity: e})
		}
	}
	return scored, nil
}

func seedScored(seeds []model.ReferenceEntity) []refstore.ScoredEntity {
	out := make([]refstore.ScoredEntity, 0, len(seeds))
	for _, e := range seeds {
		out = append(out, refstore.ScoredEntity{Entity: e})
	}
	return out
}
