package model

// CustomerInput is the raw customer fragment extracted from an intake document.
type CustomerInput struct {
	ExternalID string `json:"external_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
}

// ContactInput is the raw contact fragment extracted from an intake document.
type ContactInput struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Title string `json:"title,omitempty"`
}

// LineItem is one raw catalog line from an intake document.
type LineItem struct {
	Line        int     `json:"line"`
	SKU         string  `json:"sku,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       string  `json:"color,omitempty"`
	Quantity    float64 `json:"quantity"`
}

// IntakeRecord is one full extracted document: a customer reference, a
// contact reference, and the catalog line items.
type IntakeRecord struct {
	Customer CustomerInput `json:"customer"`
	Contact  ContactInput  `json:"contact"`
	Items    []LineItem    `json:"items"`
}

// ResolvedLine pairs a line item with its resolution outcome. ChargeCode is
// set when the line resolved via the non-inventory charge-code table; for
// product lines the resolved SKU lives in Result.Key.
type ResolvedLine struct {
	Item       LineItem    `json:"item"`
	Result     MatchResult `json:"result"`
	ChargeCode string      `json:"charge_code,omitempty"`
}

// ResolvedKey returns whichever code the line resolved to, or "".
func (l ResolvedLine) ResolvedKey() string {
	if l.ChargeCode != "" {
		return l.ChargeCode
	}
	return l.Result.Key
}
