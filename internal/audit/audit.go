// Package audit persists the append-only trace of resolution decisions.
// The cascade treats the sink as fire-and-forget: append failures are
// logged, never propagated to the caller.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/intake-cli/internal/db"
	"github.com/sells-group/intake-cli/internal/model"
)

// Sink receives one AuditRecord per top-level resolution call.
type Sink interface {
	Append(ctx context.Context, record model.AuditRecord) error
}

// PostgresSink writes audit records to the resolution_audit table.
type PostgresSink struct {
	pool db.Pool
}

// NewPostgresSink creates a sink backed by the shared pgx pool.
func NewPostgresSink(pool db.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

func (s *PostgresSink) Append(ctx context.Context, record model.AuditRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	queryJSON, err := json.Marshal(record.Query)
	if err != nil {
		return eris.Wrap(err, "audit: marshal query")
	}
	candidatesJSON, err := json.Marshal(record.Candidates)
	if err != nil {
		return eris.Wrap(err, "audit: marshal candidates")
	}
	reasonsJSON, err := json.Marshal(record.Reasons)
	if err != nil {
		return eris.Wrap(err, "audit: marshal reasons")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO resolution_audit (id, kind, query, candidates, chosen_key, method, confidence, reasons, tiebreak_raw, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, string(record.Kind), queryJSON, candidatesJSON,
		nilIfEmpty(record.ChosenKey), string(record.Method), record.Confidence,
		reasonsJSON, nilIfEmpty(record.TiebreakRaw), record.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "audit: insert record")
	}
	return nil
}

// nilIfEmpty returns nil for empty strings, allowing NULL storage.
func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// LogSink writes audit records to the structured log only. Used when no
// database is configured, so the decision trail still exists somewhere.
type LogSink struct{}

func (LogSink) Append(_ context.Context, record model.AuditRecord) error {
	fields := []zap.Field{
		zap.String("kind", string(record.Kind)),
		zap.String("method", string(record.Method)),
		zap.String("chosen_key", record.ChosenKey),
		zap.Float64("confidence", record.Confidence),
		zap.Int("candidates", len(record.Candidates)),
		zap.Strings("reasons", record.Reasons),
	}
	if record.TiebreakRaw != "" {
		fields = append(fields, zap.String("tiebreak_raw", record.TiebreakRaw))
	}
	zap.L().Info("resolution audit", fields...)
	return nil
}
