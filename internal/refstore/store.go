// Package refstore provides read access to the canonical reference datasets
// the cascade resolves against: exact-attribute lookups, vector top-K
// retrieval, and a bounded TTL cache shared across concurrent resolutions.
package refstore

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/intake-cli/internal/model"
)

// ErrUnavailable marks store errors caused by infrastructure failure rather
// than missing data. Callers must surface these distinctly: a store outage
// is never the same thing as "record doesn't exist".
var ErrUnavailable = eris.New("refstore: reference store unavailable")

// ScoredEntity pairs an entity with its raw cosine similarity to a query
// vector.
type ScoredEntity struct {
	Entity     model.ReferenceEntity
	Similarity float64
}

// Store is the read interface over one or more reference datasets.
// Implementations must return a nil entity (not an error) when a key lookup
// finds nothing, and must wrap infrastructure failures with ErrUnavailable.
type Store interface {
	// GetByKey returns the entity with the given natural key, or nil.
	GetByKey(ctx context.Context, kind model.EntityKind, key string) (*model.ReferenceEntity, error)

	// FindByEmail returns entities with exactly this normalized email.
	FindByEmail(ctx context.Context, kind model.EntityKind, email string) ([]model.ReferenceEntity, error)

	// FindByDomain returns active entities with exactly this domain.
	FindByDomain(ctx context.Context, kind model.EntityKind, domain string) ([]model.ReferenceEntity, error)

	// FindByPhone returns entities with exactly these phone digits.
	FindByPhone(ctx context.Context, kind model.EntityKind, phone string) ([]model.ReferenceEntity, error)

	// FindByName returns entities whose name matches case-insensitively.
	FindByName(ctx context.Context, kind model.EntityKind, name string) ([]model.ReferenceEntity, error)

	// TopKByEmbedding returns the k active entities nearest to vec by cosine
	// similarity, optionally restricted to a domain when domainFilter != "".
	TopKByEmbedding(ctx context.Context, kind model.EntityKind, vec []float32, k int, domainFilter string) ([]ScoredEntity, error)

	// ListActive returns a bounded page of active entities for cache warm-up.
	ListActive(ctx context.Context, kind model.EntityKind, limit, offset int) ([]model.ReferenceEntity, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// unavailable tags err with ErrUnavailable and wraps it with the operation.
func unavailable(err error, op string) error {
	return eris.Wrap(errors.Join(ErrUnavailable, err), "refstore: "+op)
}
