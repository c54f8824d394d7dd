package resolver

import (
	"context"
	"sync"

	"github.com/sells-group/intake-cli/internal/model"
	"github.com/sells-group/intake-cli/internal/refstore"
	"github.com/sells-group/intake-cli/pkg/anthropic"
)

// mockStore implements refstore.Store for testing.
type mockStore struct {
	byKey    map[string]*model.ReferenceEntity
	byEmail  map[string][]model.ReferenceEntity
	byDomain map[string][]model.ReferenceEntity
	byPhone  map[string][]model.ReferenceEntity
	byName   map[string][]model.ReferenceEntity
	topK     []refstore.ScoredEntity
	err      error

	topKCalls int
}

func (m *mockStore) GetByKey(_ context.Context, _ model.EntityKind, key string) (*model.ReferenceEntity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byKey[key], nil
}

func (m *mockStore) FindByEmail(_ context.Context, _ model.EntityKind, email string) ([]model.ReferenceEntity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byEmail[email], nil
}

func (m *mockStore) FindByDomain(_ context.Context, _ model.EntityKind, domain string) ([]model.ReferenceEntity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byDomain[domain], nil
}

func (m *mockStore) FindByPhone(_ context.Context, _ model.EntityKind, phone string) ([]model.ReferenceEntity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byPhone[phone], nil
}

func (m *mockStore) FindByName(_ context.Context, _ model.EntityKind, name string) ([]model.ReferenceEntity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byName[name], nil
}

func (m *mockStore) TopKByEmbedding(_ context.Context, _ model.EntityKind, _ []float32, _ int, _ string) ([]refstore.ScoredEntity, error) {
	m.topKCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.topK, nil
}

func (m *mockStore) ListActive(_ context.Context, _ model.EntityKind, _, _ int) ([]model.ReferenceEntity, error) {
	return nil, m.err
}

func (m *mockStore) Migrate(_ context.Context) error { return m.err }
func (m *mockStore) Close() error                    { return nil }

// mockEmbedder implements voyage.Client.
type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.vec != nil {
		return m.vec, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// mockLLM implements anthropic.Client with a canned text response.
type mockLLM struct {
	text  string
	err   error
	calls int
}

func (m *mockLLM) CreateMessage(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: m.text}},
	}, nil
}

// captureSink records audit appends.
type captureSink struct {
	mu      sync.Mutex
	records []model.AuditRecord
}

func (s *captureSink) Append(_ context.Context, record model.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *captureSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *captureSink) last() model.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[len(s.records)-1]
}
