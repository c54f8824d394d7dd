package refstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/intake-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite for local and dev
// use. Embeddings are stored as JSON arrays and top-K retrieval ranks by
// cosine similarity in process; reference sets are bounded, so a full scan
// per query is acceptable at this tier.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "refstore: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "refstore: sqlite exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	aliases     TEXT NOT NULL DEFAULT '[]',
	embedding   TEXT,
	active      INTEGER NOT NULL DEFAULT 1,
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (kind, key)
);

CREATE INDEX IF NOT EXISTS idx_ref_entities_email  ON reference_entities(kind, email);
CREATE INDEX IF NOT EXISTS idx_ref_entities_domain ON reference_entities(kind, domain);
CREATE INDEX IF NOT EXISTS idx_ref_entities_phone  ON reference_entities(kind, phone);

CREATE TABLE IF NOT EXISTS resolution_audit (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	query        TEXT NOT NULL,
	candidates   TEXT,
	chosen_key   TEXT,
	method       TEXT NOT NULL,
	confidence   REAL NOT NULL,
	reasons      TEXT,
	tiebreak_raw TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "refstore: sqlite migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for subsystems that share the database.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

const sqliteEntityColumns = `kind, key, name, email, phone, domain, title, address, description, aliases, active`

func (s *SQLiteStore) GetByKey(ctx context.Context, kind model.EntityKind, key string) (*model.ReferenceEntity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteEntityColumns+` FROM reference_entities WHERE kind = ? AND key = ?`,
		string(kind), key,
	)
	e, err := scanSQLiteEntity(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, unavailable(err, "sqlite get by key")
	}
	return e, nil
}

func (s *SQLiteStore) FindByEmail(ctx context.Context, kind model.EntityKind, email string) ([]model.ReferenceEntity, error) {
	return s.findBy(ctx, "sqlite find by email",
		`SELECT `+sqliteEntityColumns+` FROM reference_entities WHERE kind = ? AND email = ?`,
		string(kind), email)
}

func (s *SQLiteStore) FindByDomain(ctx context.Context, kind model.EntityKind, domain string) ([]model.ReferenceEntity, error) {
	return s.findBy(ctx, "sqlite find by domain",
		`SELECT `+sqliteEntityColumns+` FROM reference_entities WHERE kind = ? AND domain = ? AND active = 1`,
		string(kind), domain)
}

func (s *SQLiteStore) FindByPhone(ctx context.Context, kind model.EntityKind, phone string) ([]model.ReferenceEntity, error) {
	return s.findBy(ctx, "sqlite find by phone",
		`SELECT `+sqliteEntityColumns+` FROM reference_entities WHERE kind = ? AND phone = ?`,
		string(kind), phone)
}

func (s *SQLiteStore) FindByName(ctx context.Context, kind model.EntityKind, name string) ([]model.ReferenceEntity, error) {
	return s.findBy(ctx, "sqlite find by name",
		`SELECT `+sqliteEntityColumns+` FROM reference_entities WHERE kind = ? AND name = ? COLLATE NOCASE`,
		string(kind), name)
}

func (s *SQLiteStore) ListActive(ctx context.Context, kind model.EntityKind, limit, offset int) ([]model.ReferenceEntity, error) {
	return s.findBy(ctx, "sqlite list active",
		`SELECT `+sqliteEntityColumns+` FROM reference_entities WHERE kind = ? AND active = 1 ORDER BY key LIMIT ? OFFSET ?`,
		string(kind), limit, offset)
}

func (s *SQLiteStore) TopKByEmbedding(ctx context.Context, kind model.EntityKind, vec []float32, k int, domainFilter string) ([]ScoredEntity, error) {
	query := `SELECT ` + sqliteEntityColumns + `, embedding FROM reference_entities
		WHERE kind = ? AND active = 1 AND embedding IS NOT NULL`
	args := []any{string(kind)}
	if domainFilter != "" {
		query += ` AND domain = ?`
		args = append(args, domainFilter)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(err, "sqlite top-k")
	}
	defer rows.Close()

	var scored []ScoredEntity
	for rows.Next() {
		var (
			e                                                         model.ReferenceEntity
			email, phone, domain, title, address, description, embRaw sql.NullString
			aliasesRaw                                                string
		)
		if err := rows.Scan(
			&e.Kind, &e.Key, &e.Name,
			&email, &phone, &domain, &title, &address, &description,
			&aliasesRaw, &e.Active, &embRaw,
		); err != nil {
			return nil, unavailable(err, "sqlite top-k: scan")
		}
		e.Email, e.Phone, e.Domain = email.String, phone.String, domain.String
		e.Title, e.Address, e.Description = title.String, address.String, description.String
		if err := json.Unmarshal([]byte(aliasesRaw), &e.Aliases); err != nil {
			return nil, eris.Wrap(err, "refstore: sqlite decode aliases")
		}
		if err := json.Unmarshal([]byte(embRaw.String), &e.Embedding); err != nil {
			return nil, eris.Wrap(err, "refstore: sqlite decode embedding")
		}
		scored = append(scored, ScoredEntity{
			Entity:     e,
			Similarity: CosineSimilarity(vec, e.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, "sqlite top-k: rows")
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Similarity > scored[j].Similarity })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (s *SQLiteStore) findBy(ctx context.Context, op, query string, args ...any) ([]model.ReferenceEntity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(err, op)
	}
	defer rows.Close()

	var out []model.ReferenceEntity
	for rows.Next() {
		e, err := scanSQLiteEntity(rows.Scan)
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

func scanSQLiteEntity(scan func(dest ...any) error) (*model.ReferenceEntity, error) {
	var (
		e                                                 model.ReferenceEntity
		email, phone, domain, title, address, description sql.NullString
		aliasesRaw                                        string
	)
	if err := scan(
		&e.Kind, &e.Key, &e.Name,
		&email, &phone, &domain, &title, &address, &description,
		&aliasesRaw, &e.Active,
	); err != nil {
		return nil, err
	}
	e.Email, e.Phone, e.Domain = email.String, phone.String, domain.String
	e.Title, e.Address, e.Description = title.String, address.String, description.String
	if err := json.Unmarshal([]byte(aliasesRaw), &e.Aliases); err != nil {
		return nil, eris.Wrap(err, "refstore: sqlite decode aliases")
	}
	return &e, nil
}
