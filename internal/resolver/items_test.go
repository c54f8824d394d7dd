package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/intake-cli/internal/model"
	"github.com/sells-group/intake-cli/internal/refstore"
)

func TestResolveItems_ChargeCodeBypassesCascade(t *testing.T) {
	em := &mockEmbedder{}
	sink := &captureSink{}
	r := newTestResolver(&mockStore{}, em, nil, sink)

	lines, err := r.ResolveItems(context.Background(), []model.LineItem{
		{Line: 1, Description: "Setup Charge", Quantity: 1},
	})

	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "SETUP", lines[0].ChargeCode)
	assert.True(t, lines[0].Result.Matched)
	assert.Equal(t, model.MethodExact, lines[0].Result.Method)
	assert.Equal(t, 1.0, lines[0].Result.Confidence)
	assert.Zero(t, em.calls, "charge-code lines never reach the embedding stage")
	assert.Equal(t, 1, sink.len())
}

func TestResolveItems_QuantityGuardrailSwaps(t *testing.T) {
	st := &mockStore{
		byKey: map[string]*model.ReferenceEntity{
			"PC54": {Kind: model.KindItem, Key: "PC54", Name: "Port & Company Tee", Active: true},
		},
	}
	r := newTestResolver(st, nil, nil, nil)

	// Extraction put 500 units on the setup fee and 5 on the shirts.
	lines, err := r.ResolveItems(context.Background(), []model.LineItem{
		{Line: 1, Description: "setup charge", Quantity: 500},
		{Line: 2, SKU: "PC54", Description: "navy tee", Quantity: 5},
	})

	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Empty(t, lines[0].ChargeCode)
	assert.Equal(t, "PC54", lines[0].Result.Key, "product resolution moves to the high-quantity line")

	assert.Equal(t, "SETUP", lines[1].ChargeCode)
	assert.Equal(t, "SETUP", lines[1].ResolvedKey())

	// Raw extracted lines stay untouched; only outcomes swap.
	assert.Equal(t, 500.0, lines[0].Item.Quantity)
	assert.Equal(t, 5.0, lines[1].Item.Quantity)
}

func TestResolveItems_NoSwapForPlausibleQuantities(t *testing.T) {
	st := &mockStore{
		byKey: map[string]*model.ReferenceEntity{
			"PC54": {Kind: model.KindItem, Key: "PC54", Name: "Port & Company Tee", Active: true},
		},
	}
	r := newTestResolver(st, nil, nil, nil)

	lines, err := r.ResolveItems(context.Background(), []model.LineItem{
		{Line: 1, Description: "setup charge", Quantity: 1},
		{Line: 2, SKU: "PC54", Description: "navy tee", Quantity: 48},
	})

	require.NoError(t, err)
	assert.Equal(t, "SETUP", lines[0].ChargeCode)
	assert.Equal(t, "PC54", lines[1].Result.Key)
}

func TestResolveItems_StoreOutageFailsBatch(t *testing.T) {
	st := &mockStore{err: refstore.ErrUnavailable}
	r := newTestResolver(st, nil, nil, nil)

	_, err := r.ResolveItems(context.Background(), []model.LineItem{
		{Line: 1, SKU: "PC54", Description: "navy tee", Quantity: 5},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, refstore.ErrUnavailable))
}

func TestResolveItems_UnresolvedLineDoesNotFailBatch(t *testing.T) {
	r := newTestResolver(&mockStore{}, nil, nil, nil)

	lines, err := r.ResolveItems(context.Background(), []model.LineItem{
		{Line: 1, SKU: "MYSTERY-1", Description: "unknown gadget", Quantity: 10},
	})

	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.False(t, lines[0].Result.Matched)
	assert.Empty(t, lines[0].ResolvedKey())
}

func TestResolveItems_PreservesOrder(t *testing.T) {
	st := &mockStore{
		byKey: map[string]*model.ReferenceEntity{
			"A-1": {Kind: model.KindItem, Key: "A-1", Name: "Alpha", Active: true},
			"B-2": {Kind: model.KindItem, Key: "B-2", Name: "Beta", Active: true},
			"C-3": {Kind: model.KindItem, Key: "C-3", Name: "Gamma", Active: true},
		},
	}
	r := newTestResolver(st, nil, nil, nil)

	lines, err := r.ResolveItems(context.Background(), []model.LineItem{
		{Line: 1, SKU: "A-1", Quantity: 1},
		{Line: 2, SKU: "B-2", Quantity: 1},
		{Line: 3, SKU: "C-3", Quantity: 1},
	})

	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "A-1", lines[0].Result.Key)
	assert.Equal(t, "B-2", lines[1].Result.Key)
	assert.Equal(t, "C-3", lines[2].Result.Key)
}
