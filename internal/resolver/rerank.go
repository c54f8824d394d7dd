package resolver

import (
	"sort"
	"strings"

	"github.com/sells-group/intake-cli/internal/model"
	"github.com/sells-group/intake-cli/internal/refstore"
)

// rerank computes the composite score for each retrieved entity using the
// kind's weight table and returns candidates sorted best-first. Scores are
// clamped to [0,1].
func rerank(spec KindSpec, q model.MatchQuery, scored []refstore.ScoredEntity) []model.Candidate {
	out := make([]model.Candidate, 0, len(scored))
	for _, s := range scored {
		b := bonuses(spec.Weights, q, s.Entity)
		c := model.Candidate{
			Entity:     s.Entity,
			Similarity: s.Similarity,
			Bonuses:    b,
			Score:      clamp01(spec.Weights.Similarity*s.Similarity + b.Total()),
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func bonuses(w WeightTable, q model.MatchQuery, e model.ReferenceEntity) model.BonusComponents {
	var b model.BonusComponents

	if w.Domain > 0 && q.Domain != "" && strings.EqualFold(q.Domain, e.Domain) {
		b.Domain = w.Domain
	}
	if w.Alias > 0 && q.Name != "" {
		b.Alias = w.Alias * aliasOverlap(q.Name, e)
	}
	if w.Phone > 0 && q.Phone != "" && q.Phone == e.Phone {
		b.Phone = w.Phone
	}
	if w.Address > 0 && q.Address != "" && e.Address != "" {
		b.Address = w.Address * tokenContainment(q.Address, e.Address)
	}
	return b
}

// aliasOverlap returns the best token-containment ratio between the query
// name and the candidate's name or any of its aliases.
func aliasOverlap(queryName string, e model.ReferenceEntity) float64 {
	best := tokenContainment(queryName, e.Name)
	for _, alias := range e.Aliases {
		if r := tokenContainment(queryName, alias); r > best {
			best = r
		}
	}
	return best
}

// tokenContainment returns the fraction of query tokens present in the
// candidate text, case-insensitively. 1.0 means every query token appears.
func tokenContainment(query, candidate string) float64 {
	qTokens := strings.Fields(strings.ToLower(query))
	if len(qTokens) == 0 {
		return 0
	}
	cTokens := make(map[string]bool)
	for _, t := range strings.Fields(strings.ToLower(candidate)) {
		cTokens[t] = true
	}
	hits := 0
	for _, t := range qTokens {
		if cTokens[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(qTokens))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// alternatives converts the top candidates into compact (key, score) pairs
// for the result and the audit trail.
func alternatives(candidates []model.Candidate, max int) []model.Alternative {
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	out := make([]model.Alternative, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, model.Alternative{Key: c.Entity.Key, Name: c.Entity.Name, Score: c.Score})
	}
	return out
}
