package model

import "time"

// AuditRecord is the append-only trace of one top-level resolution call.
// Written exactly once per call, success or failure, and never mutated.
type AuditRecord struct {
	ID          string        `json:"id"`
	Kind        EntityKind    `json:"kind"`
	Query       MatchQuery    `json:"query"`
	Candidates  []Alternative `json:"candidates,omitempty"` // top ranked, post-rerank
	ChosenKey   string        `json:"chosen_key,omitempty"`
	Method      MatchMethod   `json:"method"`
	Confidence  float64       `json:"confidence"`
	Reasons     []string      `json:"reasons,omitempty"`
	TiebreakRaw string        `json:"tiebreak_raw,omitempty"` // raw LLM response, if invoked
	CreatedAt   time.Time     `json:"created_at"`
}
