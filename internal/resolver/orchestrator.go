package resolver

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/intake-cli/internal/model"
)

// ProcessRecord resolves one extracted intake record end to end: customer
// first, then the contact scoped to the resolved customer, then every line
// item. The aggregate status folds the three outcomes by severity, worst
// first: error, new_customer, missing_contact, invalid_items, ready.
//
// Infrastructure failures land in StatusError with the wrapped error
// attached; they are never reported as a business no-match.
func (r *Resolver) ProcessRecord(ctx context.Context, rec model.IntakeRecord) model.ValidationOutcome {
	out := model.ValidationOutcome{Status: model.StatusReady}

	customer, err := r.Resolve(ctx, CustomerQuery(rec.Customer))
	if err != nil {
		return errorOutcome(err)
	}
	out.Customer = customer

	var customerKey string
	if customer.Matched {
		customerKey = customer.Key
	} else {
		out.Status = model.StatusNewCustomer
	}

	contact, defaulted, err := r.resolveContact(ctx, rec.Contact, customerKey)
	if err != nil {
		return errorOutcome(err)
	}
	out.Contact = contact
	out.ContactDefaulted = defaulted
	if !contact.Matched && !defaulted && out.Status == model.StatusReady {
		out.Status = model.StatusMissingContact
	}

	items, err := r.ResolveItems(ctx, rec.Items)
	if err != nil {
		return errorOutcome(err)
	}
	out.Items = items
	if out.Status == model.StatusReady && hasUnresolvedItem(items) {
		out.Status = model.StatusInvalidItems
	}

	zap.L().Info("record processed",
		zap.String("status", string(out.Status)),
		zap.Bool("contact_defaulted", out.ContactDefaulted),
		zap.Int("items", len(items)),
	)
	return out
}

// resolveContact runs the contact cascade and applies the default-identity
// relaxation: when the contact fragment carries no email and the cascade
// finds nothing, a matched customer's default identity stands in rather
// than flagging the record. A fragment with an email is a real person claim
// and never defaults away.
func (r *Resolver) resolveContact(ctx context.Context, in model.ContactInput, customerKey string) (model.MatchResult, bool, error) {
	q := ContactQuery(in, customerKey)

	result, err := r.Resolve(ctx, q)
	if err != nil {
		return model.MatchResult{}, false, err
	}
	if result.Matched {
		return result, false, nil
	}
	if customerKey != "" && q.Email == "" {
		result.Reasons = append(result.Reasons, "customer default identity applied")
		return result, true, nil
	}
	return result, false, nil
}

func hasUnresolvedItem(items []model.ResolvedLine) bool {
	for _, line := range items {
		if !line.Result.Matched {
			return true
		}
	}
	return false
}

func errorOutcome(err error) model.ValidationOutcome {
	zap.L().Error("record processing failed", zap.Error(err))
	return model.ValidationOutcome{
		Status: model.StatusError,
		Error:  err.Error(),
	}
}
