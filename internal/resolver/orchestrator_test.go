package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/intake-cli/internal/model"
	"github.com/sells-group/intake-cli/internal/refstore"
)

func fullyResolvableStore() *mockStore {
	return &mockStore{
		byKey: map[string]*model.ReferenceEntity{
			"CUST-1": {Kind: model.KindCustomer, Key: "CUST-1", Name: "Acme Corp", Active: true},
			"PC54":   {Kind: model.KindItem, Key: "PC54", Name: "Port & Company Tee", Active: true},
		},
		byEmail: map[string][]model.ReferenceEntity{
			"jane@acme.com": {{Kind: model.KindContact, Key: "CT-1", Name: "Jane Doe", Active: true}},
		},
	}
}

func readyRecord() model.IntakeRecord {
	return model.IntakeRecord{
		Customer: model.CustomerInput{ExternalID: "CUST-1", Name: "Acme Corp"},
		Contact:  model.ContactInput{Name: "Jane Doe", Email: "jane@acme.com"},
		Items: []model.LineItem{
			{Line: 1, SKU: "PC54", Description: "navy tee", Quantity: 48},
			{Line: 2, Description: "setup charge", Quantity: 1},
		},
	}
}

func TestProcessRecord_Ready(t *testing.T) {
	r := newTestResolver(fullyResolvableStore(), nil, nil, nil)

	out := r.ProcessRecord(context.Background(), readyRecord())

	assert.Equal(t, model.StatusReady, out.Status)
	assert.Equal(t, "CUST-1", out.Customer.Key)
	assert.Equal(t, "CT-1", out.Contact.Key)
	assert.False(t, out.ContactDefaulted)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "PC54", out.Items[0].ResolvedKey())
	assert.Equal(t, "SETUP", out.Items[1].ResolvedKey())
}

func TestProcessRecord_NewCustomer(t *testing.T) {
	st := fullyResolvableStore()
	delete(st.byKey, "CUST-1")
	r := newTestResolver(st, nil, nil, nil)

	out := r.ProcessRecord(context.Background(), readyRecord())

	assert.Equal(t, model.StatusNewCustomer, out.Status)
	assert.False(t, out.Customer.Matched)
	// Contact and items are still resolved so review sees the full picture.
	assert.Equal(t, "CT-1", out.Contact.Key)
	assert.Len(t, out.Items, 2)
}

func TestProcessRecord_MissingContact(t *testing.T) {
	st := fullyResolvableStore()
	delete(st.byEmail, "jane@acme.com")
	r := newTestResolver(st, nil, nil, nil)

	out := r.ProcessRecord(context.Background(), readyRecord())

	assert.Equal(t, model.StatusMissingContact, out.Status)
	assert.False(t, out.Contact.Matched)
	assert.False(t, out.ContactDefaulted, "a contact claiming an email never defaults away")
}

func TestProcessRecord_ContactDefaultsWithoutEmail(t *testing.T) {
	st := fullyResolvableStore()
	r := newTestResolver(st, nil, nil, nil)

	rec := readyRecord()
	rec.Contact = model.ContactInput{Name: "front desk"}

	out := r.ProcessRecord(context.Background(), rec)

	assert.Equal(t, model.StatusReady, out.Status)
	assert.True(t, out.ContactDefaulted)
	assert.False(t, out.Contact.Matched)
}

func TestProcessRecord_InvalidItems(t *testing.T) {
	st := fullyResolvableStore()
	r := newTestResolver(st, nil, nil, nil)

	rec := readyRecord()
	rec.Items = append(rec.Items, model.LineItem{Line: 3, SKU: "NOPE-404", Description: "mystery gadget", Quantity: 1})

	out := r.ProcessRecord(context.Background(), rec)

	assert.Equal(t, model.StatusInvalidItems, out.Status)
}

func TestProcessRecord_StatusSeverityOrdering(t *testing.T) {
	// An unknown customer outranks unresolved items in the folded status.
	st := fullyResolvableStore()
	delete(st.byKey, "CUST-1")
	r := newTestResolver(st, nil, nil, nil)

	rec := readyRecord()
	rec.Items = append(rec.Items, model.LineItem{Line: 3, SKU: "NOPE-404", Description: "mystery gadget", Quantity: 1})

	out := r.ProcessRecord(context.Background(), rec)

	assert.Equal(t, model.StatusNewCustomer, out.Status)
}

func TestProcessRecord_StoreOutageIsError(t *testing.T) {
	st := &mockStore{err: refstore.ErrUnavailable}
	r := newTestResolver(st, nil, nil, nil)

	out := r.ProcessRecord(context.Background(), readyRecord())

	assert.Equal(t, model.StatusError, out.Status)
	assert.NotEmpty(t, out.Error)
	assert.Empty(t, out.Items)
}
