package resolver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/intake-cli/internal/model"
)

// ResolveItems resolves every line item of a record. Charge-code lines are
// classified off the fixed table without touching the semantic path; product
// lines run the full cascade concurrently under a bounded worker pool. After
// resolution the quantity guardrail corrects implausibly paired codes.
//
// A store outage on any line fails the whole batch; individual no-matches do
// not.
func (r *Resolver) ResolveItems(ctx context.Context, items []model.LineItem) ([]model.ResolvedLine, error) {
	out := make([]model.ResolvedLine, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.ItemWorkers)

	for i, item := range items {
		g.Go(func() error {
			line, err := r.resolveItem(gctx, item)
			if err != nil {
				return err
			}
			out[i] = line
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.quantityGuardrail(out)
	return out, nil
}

func (r *Resolver) resolveItem(ctx context.Context, item model.LineItem) (model.ResolvedLine, error) {
	q := ItemQuery(item)

	if code, ok := MatchChargeCode(q.SKU, q.Description); ok {
		result := model.MatchResult{
			Matched:    true,
			Method:     model.MethodExact,
			Confidence: 1.0,
			Key:        code,
			Reasons:    []string{"charge-code table"},
		}
		r.writeAudit(ctx, q, result, nil, "")
		return model.ResolvedLine{Item: item, Result: result, ChargeCode: code}, nil
	}

	result, err := r.Resolve(ctx, q)
	if err != nil {
		return model.ResolvedLine{}, err
	}
	return model.ResolvedLine{Item: item, Result: result}, nil
}

// quantityGuardrail swaps the resolved codes of a charge-coded line and a
// product line when the charge line's quantity is implausibly larger. Large
// quantities almost always belong to physical products, not fixed charges;
// extraction occasionally assigns them to the wrong line.
func (r *Resolver) quantityGuardrail(lines []model.ResolvedLine) {
	for ci := range lines {
		charge := &lines[ci]
		if charge.ChargeCode == "" || charge.Item.Quantity <= 0 {
			continue
		}
		for pi := range lines {
			product := &lines[pi]
			if pi == ci || product.ChargeCode != "" || !product.Result.Matched || product.Item.Quantity <= 0 {
				continue
			}
			if charge.Item.Quantity >= product.Item.Quantity*r.cfg.QuantitySwapRatio {
				swapResolved(charge, product)
				break
			}
		}
	}
}

// swapResolved exchanges the resolution outcomes of two lines, leaving the
// raw items in place.
func swapResolved(charge, product *model.ResolvedLine) {
	reason := fmt.Sprintf("quantity guardrail: swapped codes between lines %d and %d", charge.Item.Line, product.Item.Line)

	charge.Result, product.Result = product.Result, charge.Result
	charge.ChargeCode, product.ChargeCode = product.ChargeCode, charge.ChargeCode

	charge.Result.Reasons = append(charge.Result.Reasons, reason)
	product.Result.Reasons = append(product.Result.Reasons, reason)
}
