// Package model defines the shared data types for the intake resolution
// pipeline: reference entities, match queries, candidates, results, and the
// aggregate validation outcome.
package model

// EntityKind identifies which reference dataset a query resolves against.
type EntityKind string

const (
	KindCustomer EntityKind = "customer"
	KindContact  EntityKind = "contact"
	KindItem     EntityKind = "item"
)

// Valid reports whether k is a known entity kind.
func (k EntityKind) Valid() bool {
	switch k {
	case KindCustomer, KindContact, KindItem:
		return true
	}
	return false
}

// ReferenceEntity is one canonical record in the reference dataset. Records
// are immutable per version: import/sync jobs own the write path, the
// resolution cascade only reads.
type ReferenceEntity struct {
	Kind        EntityKind `json:"kind"`
	Key         string     `json:"key"` // customer number / contact id / SKU
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"` // digits only
	Domain      string     `json:"domain,omitempty"`
	Title       string     `json:"title,omitempty"`
	Address     string     `json:"address,omitempty"`
	Description string     `json:"description,omitempty"`
	Aliases     []string   `json:"aliases,omitempty"`
	Embedding   []float32  `json:"-"`
	Active      bool       `json:"active"`
}
