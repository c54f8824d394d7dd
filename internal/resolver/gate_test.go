package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/intake-cli/internal/model"
)

func candidate(key string, score float64, b model.BonusComponents) model.Candidate {
	return model.Candidate{
		Entity:  model.ReferenceEntity{Kind: model.KindCustomer, Key: key, Name: key, Active: true},
		Bonuses: b,
		Score:   score,
	}
}

func TestGate_AutoAcceptAboveThreshold(t *testing.T) {
	llm := &mockLLM{}
	r := newTestResolver(nil, nil, llm, nil)

	result, raw := r.gate(context.Background(), model.MatchQuery{Kind: model.KindCustomer}, []model.Candidate{
		candidate("CUST-1", 0.91, model.BonusComponents{}),
		candidate("CUST-2", 0.60, model.BonusComponents{}),
	})

	assert.True(t, result.Matched)
	assert.Equal(t, model.MethodSemantic, result.Method)
	assert.Equal(t, 0.91, result.Confidence)
	assert.Equal(t, "CUST-1", result.Key)
	assert.Empty(t, raw)
	assert.Zero(t, llm.calls)
}

func TestGate_HighScoreButThinMarginGoesToTiebreak(t *testing.T) {
	llm := &mockLLM{text: `{"selected_id": "CUST-2", "reason": "query names the west branch"}`}
	r := newTestResolver(nil, nil, llm, nil)

	result, raw := r.gate(context.Background(), model.MatchQuery{Kind: model.KindCustomer}, []model.Candidate{
		candidate("CUST-1", 0.88, model.BonusComponents{}),
		candidate("CUST-2", 0.87, model.BonusComponents{}),
	})

	assert.True(t, result.Matched)
	assert.Equal(t, model.MethodSemanticLLM, result.Method)
	assert.Equal(t, "CUST-2", result.Key)
	assert.Equal(t, 0.80, result.Confidence)
	assert.NotEmpty(t, raw)
	assert.Equal(t, 1, llm.calls)
}

func TestGate_MidBandCorroboratedSkipsLLM(t *testing.T) {
	llm := &mockLLM{}
	r := newTestResolver(nil, nil, llm, nil)

	result, _ := r.gate(context.Background(), model.MatchQuery{Kind: model.KindCustomer}, []model.Candidate{
		candidate("CUST-1", 0.80, model.BonusComponents{Domain: 0.15}),
		candidate("CUST-2", 0.55, model.BonusComponents{}),
	})

	assert.True(t, result.Matched)
	assert.Equal(t, model.MethodSemantic, result.Method)
	assert.Equal(t, "CUST-1", result.Key)
	assert.Zero(t, llm.calls, "corroborated mid-band result must not spend an LLM call")
}

func TestGate_MidBandUncorroboratedIsNoMatch(t *testing.T) {
	llm := &mockLLM{}
	r := newTestResolver(nil, nil, llm, nil)

	result, _ := r.gate(context.Background(), model.MatchQuery{Kind: model.KindCustomer}, []model.Candidate{
		candidate("CUST-1", 0.80, model.BonusComponents{}),
		candidate("CUST-2", 0.55, model.BonusComponents{}),
	})

	assert.False(t, result.Matched)
	assert.Equal(t, model.MethodNone, result.Method)
	assert.Zero(t, llm.calls)
	assert.Len(t, result.Alternatives, 2)
}

func TestGate_TiebreakNoneIsNoMatch(t *testing.T) {
	llm := &mockLLM{text: `{"selected_id": "NONE", "reason": "neither is convincing"}`}
	r := newTestResolver(nil, nil, llm, nil)

	result, raw := r.gate(context.Background(), model.MatchQuery{Kind: model.KindCustomer}, []model.Candidate{
		candidate("CUST-1", 0.80, model.BonusComponents{}),
		candidate("CUST-2", 0.79, model.BonusComponents{}),
	})

	assert.False(t, result.Matched)
	assert.NotEmpty(t, raw, "raw tiebreak response is preserved for the audit trail")
}

func TestGate_BelowFloorKeepsAlternatives(t *testing.T) {
	r := newTestResolver(nil, nil, nil, nil)

	result, _ := r.gate(context.Background(), model.MatchQuery{Kind: model.KindCustomer}, []model.Candidate{
		candidate("CUST-1", 0.60, model.BonusComponents{}),
		candidate("CUST-2", 0.40, model.BonusComponents{}),
	})

	assert.False(t, result.Matched)
	assert.Equal(t, model.MethodNone, result.Method)
	assert.Zero(t, result.Confidence)
	assert.Len(t, result.Alternatives, 2)
	assert.Equal(t, "CUST-1", result.Alternatives[0].Key)
}

func TestGate_NoCandidates(t *testing.T) {
	r := newTestResolver(nil, nil, nil, nil)

	result, _ := r.gate(context.Background(), model.MatchQuery{Kind: model.KindCustomer}, nil)

	assert.False(t, result.Matched)
	assert.Empty(t, result.Alternatives)
}

func TestGate_LLMFailureNeverSelects(t *testing.T) {
	llm := &mockLLM{err: assert.AnError}
	r := newTestResolver(nil, nil, llm, nil)

	result, _ := r.gate(context.Background(), model.MatchQuery{Kind: model.KindCustomer}, []model.Candidate{
		candidate("CUST-1", 0.88, model.BonusComponents{}),
		candidate("CUST-2", 0.87, model.BonusComponents{}),
	})

	assert.False(t, result.Matched)
}
