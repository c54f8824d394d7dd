package resolver

import (
	"context"
	"fmt"

	"github.com/sells-group/intake-cli/internal/model"
)

// gate applies the confidence bands to the reranked candidates and, for
// ambiguous mid-band calls, delegates to the LLM tiebreak. Returns the
// result and the raw tiebreak response (empty unless the tiebreak ran).
//
// Bands, with s = top composite score and margin = lead over the runner-up:
//   - s >= auto-accept and margin >= the configured minimum: accept as
//     semantic with confidence s.
//   - s >= tiebreak floor: a candidate carrying a deterministic bonus signal
//     (domain, phone, or address) with a clear margin is corroborated and
//     accepted; otherwise, when more than one candidate sits within the
//     margin, the LLM tiebreak decides; everything else is no-match. The
//     same corroboration rule applies to every entity kind.
//   - below the floor: no match, ranked alternatives preserved for review.
func (r *Resolver) gate(ctx context.Context, q model.MatchQuery, candidates []model.Candidate) (model.MatchResult, string) {
	alts := alternatives(candidates, r.cfg.MaxAlternatives)
	if len(candidates) == 0 {
		return model.NoMatch(nil, "no candidates retrieved"), ""
	}

	top := candidates[0]
	ambiguous := len(candidates) > 1 && top.Score-candidates[1].Score < r.cfg.ScoreMargin

	if top.Score >= r.cfg.AutoAcceptThreshold && !ambiguous {
		return model.MatchResult{
			Matched:      true,
			Method:       model.MethodSemantic,
			Confidence:   top.Score,
			Key:          top.Entity.Key,
			Alternatives: alts,
			Reasons:      []string{fmt.Sprintf("composite score %.3f above auto-accept threshold", top.Score)},
		}, ""
	}

	if top.Score < r.cfg.TiebreakThreshold {
		return model.NoMatch(alts, fmt.Sprintf("top score %.3f below confidence floor", top.Score)), ""
	}

	corroborated := top.Bonuses.Domain > 0 || top.Bonuses.Phone > 0 || top.Bonuses.Address > 0
	if corroborated && !ambiguous {
		return model.MatchResult{
			Matched:      true,
			Method:       model.MethodSemantic,
			Confidence:   top.Score,
			Key:          top.Entity.Key,
			Alternatives: alts,
			Reasons:      []string{fmt.Sprintf("mid-band score %.3f corroborated by deterministic signal", top.Score)},
		}, ""
	}

	if ambiguous {
		key, raw, reason := r.tiebreak(ctx, q, candidates)
		if key != "" {
			reasons := []string{"llm tiebreak selection"}
			if reason != "" {
				reasons = append(reasons, reason)
			}
			return model.MatchResult{
				Matched:      true,
				Method:       model.MethodSemanticLLM,
				Confidence:   r.cfg.TiebreakConfidence,
				Key:          key,
				Alternatives: alts,
				Reasons:      reasons,
			}, raw
		}
		return model.NoMatch(alts, "llm tiebreak declined to select"), raw
	}

	return model.NoMatch(alts, fmt.Sprintf("mid-band score %.3f without corroborating signal", top.Score)), ""
}
