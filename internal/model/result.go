package model

// MatchMethod names the cascade stage that produced a result.
type MatchMethod string

const (
	MethodExact       MatchMethod = "exact"
	MethodDomain      MatchMethod = "domain"
	MethodSemantic    MatchMethod = "semantic"
	MethodSemanticLLM MatchMethod = "semantic+llm"
	MethodNone        MatchMethod = "none"
)

// BonusComponents itemizes the rule-based additions to a candidate's raw
// similarity. Each value is the weighted contribution actually applied,
// not the raw weight.
type BonusComponents struct {
	Domain  float64 `json:"domain,omitempty"`
	Alias   float64 `json:"alias,omitempty"`
	Phone   float64 `json:"phone,omitempty"`
	Address float64 `json:"address,omitempty"`
}

// Total returns the sum of all bonus contributions.
func (b BonusComponents) Total() float64 {
	return b.Domain + b.Alias + b.Phone + b.Address
}

// Candidate is an ephemeral scored reference to one entity during a single
// resolution attempt.
type Candidate struct {
	Entity     ReferenceEntity `json:"entity"`
	Similarity float64         `json:"similarity"` // raw cosine, 0 for deterministic seeds
	Bonuses    BonusComponents `json:"bonuses"`
	Score      float64         `json:"score"` // composite, clamped to [0,1]
}

// Alternative is a compact (key, score) pair preserved for human review.
type Alternative struct {
	Key   string  `json:"key"`
	Name  string  `json:"name,omitempty"`
	Score float64 `json:"score"`
}

// MatchResult is the outcome of one resolution call.
//
// Invariants: Confidence is in [0,1]; Matched implies Key is non-empty;
// Method is never empty.
type MatchResult struct {
	Matched      bool          `json:"matched"`
	Method       MatchMethod   `json:"method"`
	Confidence   float64       `json:"confidence"`
	Key          string        `json:"key,omitempty"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
	Reasons      []string      `json:"reasons,omitempty"`
}

// NoMatch builds an unmatched result carrying the ranked alternatives.
func NoMatch(alternatives []Alternative, reasons ...string) MatchResult {
	return MatchResult{
		Matched:      false,
		Method:       MethodNone,
		Confidence:   0,
		Alternatives: alternatives,
		Reasons:      reasons,
	}
}
