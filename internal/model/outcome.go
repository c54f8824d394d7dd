package model

// RecordStatus is the aggregate disposition of one intake record.
type RecordStatus string

const (
	// StatusReady means every fragment resolved confidently.
	StatusReady RecordStatus = "ready"
	// StatusNewCustomer means the customer fragment found no match.
	StatusNewCustomer RecordStatus = "new_customer"
	// StatusMissingContact means the customer matched but the contact did
	// not, and no customer-level default identity applies.
	StatusMissingContact RecordStatus = "missing_contact"
	// StatusInvalidItems means at least one line item stayed unresolved
	// after the quantity guardrail ran.
	StatusInvalidItems RecordStatus = "invalid_items"
	// StatusError means resolution infrastructure failed (store outage).
	// Deliberately distinct from the business statuses so downstream
	// automation never mistakes an outage for a new customer.
	StatusError RecordStatus = "error"
)

// ValidationOutcome aggregates the three per-entity results for one record.
type ValidationOutcome struct {
	Status   RecordStatus   `json:"status"`
	Customer MatchResult    `json:"customer"`
	Contact  MatchResult    `json:"contact"`
	Items    []ResolvedLine `json:"items,omitempty"`
	// ContactDefaulted is true when the missing-contact relaxation applied:
	// the customer matched and its default identity stands in for the
	// unresolvable contact.
	ContactDefaulted bool   `json:"contact_defaulted,omitempty"`
	Error            string `json:"error,omitempty"`
}
