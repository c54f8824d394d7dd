package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/intake-cli/internal/model"
	"github.com/sells-group/intake-cli/pkg/anthropic"
)

const tiebreakSystemPrompt = `You are deciding which reference record, if any, a noisy business query refers to. You will receive a normalized query and a short list of candidate records with identifiers. Pick the single candidate the query most plausibly refers to, or NONE if no candidate is a confident match.

Respond with ONLY a single well-formed JSON object and nothing else:
{"selected_id": "<candidate id or NONE>", "reason": "<one short sentence>"}`

// tiebreakDecision is the strict schema for the LLM response. Anything that
// does not parse into exactly this shape is treated as NONE.
type tiebreakDecision struct {
	SelectedID *string `json:"selected_id"`
	Reason     string  `json:"reason"`
}

// tiebreak delegates a close-call ranking decision to the LLM. It returns
// the chosen key ("" for NONE), the raw response text for the audit trail,
// and the model's stated reason. Provider failures and malformed responses
// both come back as NONE; a broken response must never select a match.
func (r *Resolver) tiebreak(ctx context.Context, q model.MatchQuery, candidates []model.Candidate) (key, raw, reason string) {
	if len(candidates) > r.cfg.TiebreakCandidates {
		candidates = candidates[:r.cfg.TiebreakCandidates]
	}

	prompt := buildTiebreakPrompt(q, candidates)

	resp, err := r.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       r.cfg.TiebreakModel,
		MaxTokens:   r.cfg.TiebreakMaxTokens,
		System:      tiebreakSystemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: zero(),
	})
	r.health.Record(stageTiebreak, err)
	if err != nil {
		zap.L().Warn("tiebreak call failed, treating as NONE",
			zap.String("kind", string(q.Kind)),
			zap.Error(err),
		)
		return "", "", ""
	}
	resp.Usage.LogCost(r.cfg.TiebreakModel, "tiebreak")

	raw = resp.Text()
	key, reason, err = parseTiebreak(raw, candidates)
	if err != nil {
		zap.L().Warn("tiebreak response rejected",
			zap.String("kind", string(q.Kind)),
			zap.String("raw", truncate(raw, 200)),
			zap.Error(err),
		)
		return "", raw, ""
	}
	return key, raw, reason
}

func buildTiebreakPrompt(q model.MatchQuery, candidates []model.Candidate) string {
	var b strings.Builder
	b.WriteString("Query:\n")
	writeField(&b, "name", q.Name)
	writeField(&b, "email", q.Email)
	writeField(&b, "domain", q.Domain)
	writeField(&b, "phone", q.Phone)
	writeField(&b, "address", q.Address)
	writeField(&b, "title", q.Title)
	writeField(&b, "sku", q.SKU)
	writeField(&b, "description", q.Description)
	writeField(&b, "color", q.Color)

	b.WriteString("\nCandidates:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- id: %s\n", c.Entity.Key)
		writeField(&b, "  name", c.Entity.Name)
		writeField(&b, "  email", c.Entity.Email)
		writeField(&b, "  domain", c.Entity.Domain)
		writeField(&b, "  phone", c.Entity.Phone)
		writeField(&b, "  address", c.Entity.Address)
		writeField(&b, "  title", c.Entity.Title)
		writeField(&b, "  description", truncate(c.Entity.Description, 200))
		fmt.Fprintf(&b, "  score: %.3f\n", c.Score)
	}
	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	if value != "" {
		fmt.Fprintf(b, "%s: %s\n", name, value)
	}
}

// parseTiebreak validates the response against the strict schema. The
// returned key is "" for an explicit NONE. Errors mean the response was
// malformed or named an identifier outside the offered candidate set.
func parseTiebreak(raw string, candidates []model.Candidate) (key, reason string, err error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(strings.TrimSpace(raw))))
	dec.DisallowUnknownFields()

	var d tiebreakDecision
	if err := dec.Decode(&d); err != nil {
		return "", "", eris.Wrap(ErrMalformedResponse, err.Error())
	}
	// Exactly one JSON object, nothing trailing.
	if dec.More() {
		return "", "", eris.Wrap(ErrMalformedResponse, "trailing content after JSON object")
	}

	if d.SelectedID == nil || *d.SelectedID == "NONE" {
		return "", d.Reason, nil
	}
	for _, c := range candidates {
		if c.Entity.Key == *d.SelectedID {
			return *d.SelectedID, d.Reason, nil
		}
	}
	return "", "", eris.Wrapf(ErrMalformedResponse, "selected id %q not among offered candidates", *d.SelectedID)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func zero() *float64 {
	z := 0.0
	return &z
}
