package refstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/intake-cli/internal/db"
	"github.com/sells-group/intake-cli/internal/model"
)

// PostgresStore implements Store using pgxpool with pgvector for top-K
// nearest-neighbor retrieval.
type PostgresStore struct {
	pool         db.Pool
	embeddingDim int
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, embeddingDim int, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "refstore: parse pool config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "refstore: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable(err, "ping")
	}
	return &PostgresStore{pool: pool, embeddingDim: embeddingDim}, nil
}

const postgresMigrationFmt = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS reference_entities (
	kind        TEXT NOT NULL,
	key         TEXT NOT NULL,
	name        TEXT NOT NULL,
	email       TEXT,
	phone       TEXT,
	domain      TEXT,
	title       TEXT,
	address     TEXT,
	description TEXT,
	aliases     JSONB NOT NULL DEFAULT '[]',
	embedding   vector(%d),
	active      BOOLEAN NOT NULL DEFAULT true,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (kind, key)
);

CREATE INDEX IF NOT EXISTS idx_ref_entities_email  ON reference_entities(kind, email);
CREATE INDEX IF NOT EXISTS idx_ref_entities_domain ON reference_entities(kind, domain) WHERE active;
CREATE INDEX IF NOT EXISTS idx_ref_entities_phone  ON reference_entities(kind, phone);
CREATE INDEX IF NOT EXISTS idx_ref_entities_name   ON reference_entities(kind, lower(name));

CREATE TABLE IF NOT EXISTS resolution_audit (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	query        JSONB NOT NULL,
	candidates   JSONB,
	chosen_key   TEXT,
	method       TEXT NOT NULL,
	confidence   DOUBLE PRECISION NOT NULL,
	reasons      JSONB,
	tiebreak_raw TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_resolution_audit_kind_created ON resolution_audit(kind, created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(postgresMigrationFmt, s.embeddingDim))
	return eris.Wrap(err, "refstore: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Pool exposes the underlying pool for subsystems that share the database,
// such as the audit sink.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const entityColumns = `kind, key, name, email, phone, domain, title, address, description, aliases, active`

func (s *PostgresStore) GetByKey(ctx context.Context, kind model.EntityKind, key string) (*model.ReferenceEntity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+entityColumns+` FROM reference_entities WHERE kind = $1 AND key = $2`,
		string(kind), key,
	)
	e, err := scanEntityRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, unavailable(err, "get by key")
	}
	return e, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, kind model.EntityKind, email string) ([]model.ReferenceEntity, error) {
	return s.findBy(ctx, "find by email",
		`SELECT `+entityColumns+` FROM reference_entities WHERE kind = $1 AND email = $2`,
		string(kind), email)
}

func (s *PostgresStore) FindByDomain(ctx context.Context, kind model.EntityKind, domain string) ([]model.ReferenceEntity, error) {
	return s.findBy(ctx, "find by domain",
		`SELECT `+entityColumns+` FROM reference_entities WHERE kind = $1 AND domain = $2 AND active`,
		string(kind), domain)
}

func (s *PostgresStore) FindByPhone(ctx context.Context, kind model.EntityKind, phone string) ([]model.ReferenceEntity, error) {
	return s.findBy(ctx, "find by phone",
		`SELECT `+entityColumns+` FROM reference_entities WHERE kind = $1 AND phone = $2`,
		string(kind), phone)
}

func (s *PostgresStore) FindByName(ctx context.Context, kind model.EntityKind, name string) ([]model.ReferenceEntity, error) {
	return s.findBy(ctx, "find by name",
		`SELECT `+entityColumns+` FROM reference_entities WHERE kind = $1 AND lower(name) = lower($2)`,
		string(kind), name)
}

func (s *PostgresStore) findBy(ctx context.Context, op, sql string, args ...any) ([]model.ReferenceEntity, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, unavailable(err, op)
	}
	defer rows.Close()

	var out []model.ReferenceEntity
	for rows.Next() {
		e, err := scanEntityRow(rows)
		if err != nil {
			return nil, unavailable(err, op+": scan")
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, op+": rows")
	}
	return out, nil
}

func (s *PostgresStore) TopKByEmbedding(ctx context.Context, kind model.EntityKind, vec []float32, k int, domainFilter string) ([]ScoredEntity, error) {
	sql := `SELECT ` + entityColumns + `, 1 - (embedding <=> $2::vector) AS similarity
		FROM reference_entities
		WHERE kind = $1 AND active AND embedding IS NOT NULL`
	args := []any{string(kind), vectorLiteral(vec)}
	if domainFilter != "" {
		sql += ` AND domain = $3`
		args = append(args, domainFilter)
	}
	sql += fmt.Sprintf(` ORDER BY embedding <=> $2::vector LIMIT %d`, k)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, unavailable(err, "top-k by embedding")
	}
	defer rows.Close()

	var out []ScoredEntity
	for rows.Next() {
		var (
			e          model.ReferenceEntity
			aliasesRaw []byte
			similarity float64
		)
		if err := rows.Scan(
			&e.Kind, &e.Key, &e.Name,
			nullable(&e.Email), nullable(&e.Phone), nullable(&e.Domain),
			nullable(&e.Title), nullable(&e.Address), nullable(&e.Description),
			&aliasesRaw, &e.Active, &similarity,
		); err != nil {
			return nil, unavailable(err, "top-k: scan")
		}
		if err := json.Unmarshal(aliasesRaw, &e.Aliases); err != nil {
			return nil, eris.Wrap(err, "refstore: top-k: decode aliases")
		}
		out = append(out, ScoredEntity{Entity: e, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, "top-k: rows")
	}
	return out, nil
}

func (s *PostgresStore) ListActive(ctx context.Context, kind model.EntityKind, limit, offset int) ([]model.ReferenceEntity, error) {
	return s.findBy(ctx, "list active",
		`SELECT `+entityColumns+` FROM reference_entities WHERE kind = $1 AND active ORDER BY key LIMIT $2 OFFSET $3`,
		string(kind), limit, offset)
}

// scanEntityRow reads one entity from a row with entityColumns order.
func scanEntityRow(row pgx.Row) (*model.ReferenceEntity, error) {
	var (
		e          model.ReferenceEntity
		aliasesRaw []byte
	)
	if err := row.Scan(
		&e.Kind, &e.Key, &e.Name,
		nullable(&e.Email), nullable(&e.Phone), nullable(&e.Domain),
		nullable(&e.Title), nullable(&e.Address), nullable(&e.Description),
		&aliasesRaw, &e.Active,
	); err != nil {
		return nil, err
	}
	if len(aliasesRaw) > 0 {
		if err := json.Unmarshal(aliasesRaw, &e.Aliases); err != nil {
			return nil, eris.Wrap(err, "refstore: decode aliases")
		}
	}
	return &e, nil
}

// nullable adapts a string field to scan SQL NULL as "".
func nullable(s *string) *nullString {
	return &nullString{dst: s}
}

type nullString struct {
	dst *string
}

func (n *nullString) Scan(v any) error {
	if v == nil {
		*n.dst = ""
		return nil
	}
	switch s := v.(type) {
	case string:
		*n.dst = s
	case []byte:
		*n.dst = string(s)
	default:
		return fmt.Errorf("refstore: cannot scan %T into string", v)
	}
	return nil
}

// vectorLiteral renders a float32 slice in pgvector's text format.
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%g", v)
	}
	b.WriteByte(']')
	return b.String()
}
