package model

// MatchQuery is the normalized snapshot of input attributes for one
// resolution attempt. Built by the normalizer, discarded after the call.
// Fields the input did not supply stay empty; the normalizer never emits
// placeholder values, so "" always means absent.
type MatchQuery struct {
	Kind        EntityKind `json:"kind"`
	ExternalID  string     `json:"external_id,omitempty"`
	Name        string     `json:"name,omitempty"`
	Email       string     `json:"email,omitempty"`
	Domain      string     `json:"domain,omitempty"`
	Phone       string     `json:"phone,omitempty"` // digits only
	Address     string     `json:"address,omitempty"`
	Title       string     `json:"title,omitempty"`
	SKU         string     `json:"sku,omitempty"`
	Description string     `json:"description,omitempty"`
	Color       string     `json:"color,omitempty"`

	// CustomerKey carries the already-resolved customer through to contact
	// resolution so contacts can be scoped to the matched organization.
	CustomerKey string `json:"customer_key,omitempty"`
}

// Empty reports whether the query carries no usable attributes at all.
func (q MatchQuery) Empty() bool {
	return q.ExternalID == "" && q.Name == "" && q.Email == "" &&
		q.Domain == "" && q.Phone == "" && q.Address == "" &&
		q.Title == "" && q.SKU == "" && q.Description == ""
}
