// Package resolver implements the entity-resolution cascade: deterministic
// lookup, semantic retrieval, heuristic reranking, LLM tiebreak, and the
// confidence gate, plus the orchestrator that folds customer, contact, and
// line-item resolution into one record-level outcome.
package resolver

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/intake-cli/internal/model"
)

// foldTransform strips diacritics: decompose, drop combining marks, recompose.
var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normText lower-cases, folds diacritics, and collapses whitespace. Blank
// input stays blank so absent fields remain absent downstream.
func normText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if folded, _, err := transform.String(foldTransform, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// normEmail reduces an email to local@domain: unwraps angle brackets
// ("Jane <jane@acme.com>" → "jane@acme.com"), lower-cases, trims. Returns ""
// for anything without exactly one "@".
func normEmail(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '<'); i >= 0 {
		if j := strings.IndexByte(s[i:], '>'); j > 0 {
			s = s[i+1 : i+j]
		}
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.Count(s, "@") != 1 || strings.HasPrefix(s, "@") || strings.HasSuffix(s, "@") {
		return ""
	}
	return s
}

// domainOf returns the domain part of a normalized email, or "".
func domainOf(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 && i < len(email)-1 {
		return email[i+1:]
	}
	return ""
}

// normPhone strips everything but digits. Country-code digits are kept as
// given; we never guess at a leading "1".
func normPhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CustomerQuery builds the normalized MatchQuery for a customer fragment.
func CustomerQuery(in model.CustomerInput) model.MatchQuery {
	email := normEmail(in.Email)
	return model.MatchQuery{
		Kind:       model.KindCustomer,
		ExternalID: strings.TrimSpace(in.ExternalID),
		Name:       normText(in.Name),
		Email:      email,
		Domain:     domainOf(email),
		Phone:      normPhone(in.Phone),
		Address:    normText(in.Address),
	}
}

// ContactQuery builds the normalized MatchQuery for a contact fragment,
// scoped to the already-resolved customer when one exists.
func ContactQuery(in model.ContactInput, customerKey string) model.MatchQuery {
	email := normEmail(in.Email)
	return model.MatchQuery{
		Kind:        model.KindContact,
		Name:        normText(in.Name),
		Email:       email,
		Domain:      domainOf(email),
		Phone:       normPhone(in.Phone),
		Title:       normText(in.Title),
		CustomerKey: customerKey,
	}
}

// ItemQuery builds the normalized MatchQuery for a catalog line item.
func ItemQuery(in model.LineItem) model.MatchQuery {
	return model.MatchQuery{
		Kind:        model.KindItem,
		ExternalID:  strings.TrimSpace(in.SKU),
		SKU:         normText(in.SKU),
		Description: normText(in.Description),
		Color:       normText(in.Color),
	}
}
