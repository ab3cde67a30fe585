package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/datamesh-io/marketplace/internal/adapter/memory"
	"github.com/datamesh-io/marketplace/internal/domain"
	"github.com/datamesh-io/marketplace/internal/domain/product"
	"github.com/datamesh-io/marketplace/internal/domain/user"
	"github.com/datamesh-io/marketplace/internal/port/cache"
	"github.com/datamesh-io/marketplace/internal/port/catalog"
	"github.com/datamesh-io/marketplace/internal/port/database"
	"github.com/datamesh-io/marketplace/internal/port/datareader"
	"github.com/datamesh-io/marketplace/internal/port/messagequeue"
)

// The memory store is the ledger double for service tests; it honors the
// same invariants as the postgres adapter.
var _ database.Store = (*memory.Store)(nil)

// newTestStore returns a store seeded with one user per test domain.
func newTestStore(t interface{ Fatalf(string, ...any) }) *memory.Store {
	s := memory.NewStore()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	ctx := context.Background()
	for _, u := range []user.User{
		{Username: "alice", Domain: "claims_management", DisplayName: "Alice", PasswordHash: string(hash)},
		{Username: "bob", Domain: "policy_administration", DisplayName: "Bob", PasswordHash: string(hash)},
		{Username: "charlie", Domain: "risk_assessment", DisplayName: "Charlie", PasswordHash: string(hash)},
	} {
		if err := s.CreateUser(ctx, &u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	return s
}

// --- Registry mock ---

type mockRegistry struct {
	products []product.DataProduct
	err      error
}

var _ catalog.Registry = (*mockRegistry)(nil)

func testProducts() []product.DataProduct {
	return []product.DataProduct{
		{Name: "claims_management", Environment: product.EnvProd, Region: "eu-central-1", EncryptionEnabled: true},
		{Name: "policy_administration", Environment: product.EnvProd, Region: "eu-central-1", EncryptionEnabled: true},
		{Name: "risk_assessment", Environment: product.EnvProd, Region: "eu-central-1", EncryptionEnabled: true},
		{Name: "open_data", Environment: product.EnvProd, Region: "eu-central-1", EncryptionEnabled: true, PublicAccess: true},
	}
}

func (m *mockRegistry) ListProducts(_ context.Context) ([]product.DataProduct, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *mockRegistry) GetProduct(_ context.Context, name string) (*product.DataProduct, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("product %s: %w", name, domain.ErrNotFound)
}

// --- Reader mock ---

type mockReader struct {
	records []datareader.Record
	err     error
	calls   int
}

var _ datareader.Reader = (*mockReader)(nil)

func (m *mockReader) Read(_ context.Context, _ string) ([]datareader.Record, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

// --- Queue mock ---

type published struct {
	subject string
	data    []byte
}

type mockQueue struct {
	mu        sync.Mutex
	published []published
	err       error
}

var _ messagequeue.Queue = (*mockQueue)(nil)

func (m *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, published{subject: subject, data: data})
	return nil
}

func (m *mockQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (m *mockQueue) Close() error { return nil }

func (m *mockQueue) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.published))
	for i, p := range m.published {
		out[i] = p.subject
	}
	return out
}

// --- Cache mock ---

type cacheEntry struct {
	value []byte
}

type mockCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	sets    int
	hits    int
}

var _ cache.Cache = (*mockCache)(nil)

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]cacheEntry)}
}

func (m *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if ok {
		m.hits++
	}
	return e.value, ok, nil
}

func (m *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = cacheEntry{value: value}
	m.sets++
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
