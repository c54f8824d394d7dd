package resolver

import (
	"strings"

	"github.com/sells-group/intake-cli/internal/model"
)

// WeightTable defines the composite-score split for one entity kind. The
// weights sum to 1.0; similarity carries the bulk and each bonus is all or
// nothing (domain, phone) or proportional (alias, address overlap).
type WeightTable struct {
	Similarity float64
	Domain     float64
	Alias      float64
	Phone      float64
	Address    float64
}

// QueryAttr names one MatchQuery attribute for kind-specific query-text
// assembly.
type QueryAttr int

const (
	AttrName QueryAttr = iota
	AttrTitle
	AttrEmail
	AttrDomain
	AttrPhone
	AttrAddress
	AttrSKU
	AttrDescription
	AttrColor
)

func attrValue(q model.MatchQuery, a QueryAttr) string {
	switch a {
	case AttrName:
		return q.Name
	case AttrTitle:
		return q.Title
	case AttrEmail:
		return q.Email
	case AttrDomain:
		return q.Domain
	case AttrPhone:
		return q.Phone
	case AttrAddress:
		return q.Address
	case AttrSKU:
		return q.SKU
	case AttrDescription:
		return q.Description
	case AttrColor:
		return q.Color
	}
	return ""
}

// KindSpec parameterizes the cascade per entity kind: which attributes make
// up the embedding query text (in fixed order), and how composite scores are
// weighted. Adding an entity kind means adding a row here, not a new
// resolver.
type KindSpec struct {
	Kind       model.EntityKind
	QueryOrder []QueryAttr
	Weights    WeightTable
}

// kindSpecs is the registry of supported entity kinds. Customers get the
// richer 70/15/5/5/5 split because organizations carry phone and address
// signals; contacts and items use 70/20/10.
var kindSpecs = map[model.EntityKind]KindSpec{
	model.KindCustomer: {
		Kind:       model.KindCustomer,
		QueryOrder: []QueryAttr{AttrName, AttrDomain, AttrEmail, AttrPhone, AttrAddress},
		Weights:    WeightTable{Similarity: 0.70, Domain: 0.15, Alias: 0.05, Phone: 0.05, Address: 0.05},
	},
	model.KindContact: {
		Kind:       model.KindContact,
		QueryOrder: []QueryAttr{AttrName, AttrTitle, AttrEmail, AttrDomain, AttrPhone},
		Weights:    WeightTable{Similarity: 0.70, Domain: 0.20, Alias: 0.10},
	},
	model.KindItem: {
		Kind:       model.KindItem,
		QueryOrder: []QueryAttr{AttrSKU, AttrDescription, AttrColor},
		Weights:    WeightTable{Similarity: 0.70, Domain: 0.20, Alias: 0.10},
	},
}

// SpecFor returns the KindSpec for a kind, or false for unknown kinds.
func SpecFor(kind model.EntityKind) (KindSpec, bool) {
	spec, ok := kindSpecs[kind]
	return spec, ok
}

// QueryText concatenates the available attributes in the spec's fixed order.
// Absent attributes are skipped, not padded.
func (s KindSpec) QueryText(q model.MatchQuery) string {
	parts := make([]string, 0, len(s.QueryOrder))
	for _, attr := range s.QueryOrder {
		if v := attrValue(q, attr); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " | ")
}
