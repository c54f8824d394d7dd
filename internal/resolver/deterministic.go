package resolver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/intake-cli/internal/model"
)

// Deterministic rule confidences. External-id hits are definitionally
// correct; the rest step down as the attribute gets easier to share between
// distinct entities.
const (
	confExternalID = 1.00
	confEmail      = 0.95
	confDomain     = 0.90
	confPhone      = 0.90
	confName       = 0.85
)

// deterministic runs the ordered exact-equality rules. It returns either a
// confident single-hit result (cascade ends), or a non-empty ambiguous seed
// set for semantic reranking, or (nil, nil) meaning no rule fired.
//
// A multi-hit rule does not stop the sequence: its hits are collected as
// seeds and later rules still get a chance to single out one entity. A query
// with an ambiguous email but a unique phone still resolves exactly.
func (r *Resolver) deterministic(ctx context.Context, q model.MatchQuery) (*model.MatchResult, []model.ReferenceEntity, error) {
	log := zap.L().With(zap.String("kind", string(q.Kind)))

	var seeds []model.ReferenceEntity
	seen := map[string]bool{}
	collect := func(hits []model.ReferenceEntity) {
		for _, h := range hits {
			if !seen[h.Key] {
				seen[h.Key] = true
				seeds = append(seeds, h)
			}
		}
	}

	// Rule 1: natural/external id.
	if q.ExternalID != "" {
		e, err := r.store.GetByKey(ctx, q.Kind, q.ExternalID)
		if err != nil {
			return nil, nil, err
		}
		if e != nil {
			return &model.MatchResult{
				Matched:    true,
				Method:     model.MethodExact,
				Confidence: confExternalID,
				Key:        e.Key,
				Reasons:    []string{"external id equality"},
			}, nil, nil
		}
	}

	// Rule 2: exact email.
	if q.Email != "" {
		hits, err := r.store.FindByEmail(ctx, q.Kind, q.Email)
		if err != nil {
			return nil, nil, err
		}
		if len(hits) == 1 {
			return &model.MatchResult{
				Matched:    true,
				Method:     model.MethodExact,
				Confidence: confEmail,
				Key:        hits[0].Key,
				Reasons:    []string{"email equality"},
			}, nil, nil
		}
		if len(hits) > 1 {
			log.Debug("ambiguous email hits collected as seeds", zap.Int("hits", len(hits)))
			collect(hits)
		}
	}

	// Rule 3: exact domain, active entities only. A single hit
	// short-circuits; multiple hits are a seed set, not a failure.
	if q.Domain != "" {
		hits, err := r.store.FindByDomain(ctx, q.Kind, q.Domain)
		if err != nil {
			return nil, nil, err
		}
		if len(hits) == 1 {
			return &model.MatchResult{
				Matched:    true,
				Method:     model.MethodDomain,
				Confidence: confDomain,
				Key:        hits[0].Key,
				Reasons:    []string{"single active entity on domain " + q.Domain},
			}, nil, nil
		}
		if len(hits) > 1 {
			log.Debug("ambiguous domain hits collected as seeds",
				zap.String("domain", q.Domain),
				zap.Int("hits", len(hits)),
			)
			collect(hits)
		}
	}

	// Rule 4: normalized phone digits.
	if q.Phone != "" {
		hits, err := r.store.FindByPhone(ctx, q.Kind, q.Phone)
		if err != nil {
			return nil, nil, err
		}
		if len(hits) == 1 {
			return &model.MatchResult{
				Matched:    true,
				Method:     model.MethodExact,
				Confidence: confPhone,
				Key:        hits[0].Key,
				Reasons:    []string{"phone digit equality"},
			}, nil, nil
		}
		if len(hits) > 1 {
			collect(hits)
		}
	}

	// Rule 5: case-insensitive exact name. Multiple exact ties prefer the
	// shortest name, which tends to be the canonical record rather than a
	// "DBA" or location-suffixed variant.
	if q.Name != "" {
		hits, err := r.store.FindByName(ctx, q.Kind, q.Name)
		if err != nil {
			return nil, nil, err
		}
		if len(hits) > 0 {
			best := hits[0]
			for _, h := range hits[1:] {
				if len(h.Name) < len(best.Name) {
					best = h
				}
			}
			reason := "name equality"
			if len(hits) > 1 {
				reason = fmt.Sprintf("name equality (%d ties, shortest name preferred)", len(hits))
			}
			return &model.MatchResult{
				Matched:    true,
				Method:     model.MethodExact,
				Confidence: confName,
				Key:        best.Key,
				Reasons:    []string{reason},
			}, nil, nil
		}
	}

	return nil, seeds, nil
}
