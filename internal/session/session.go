// Package session holds the client-side authentication record and the stores it lives in.
package session

import (
	"context"
	"sync"
)

type Role string

const (
	RoleClient   Role = "client"
	RoleEmployee Role = "employee"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleClient, RoleEmployee:
		return Role(s), true
	}
	return "", false
}

type Session struct {
	Token      string `json:"token,omitempty"`
	Role       Role   `json:"role,omitempty"`
	IsAdmin    bool   `json:"isAdmin,omitempty"`
	ClientID   int64  `json:"clientId,omitempty"`
	EmployeeID int64  `json:"employeeId,omitempty"`
}

func (s Session) LoggedIn() bool { return s.Token != "" }

// Store is the session of one browser.
type Store interface {
	Get(ctx context.Context) (Session, error)
	Set(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// Repository keeps sessions of many browsers keyed by an opaque id.
type Repository interface {
	Load(ctx context.Context, id string) (Session, bool, error)
	Save(ctx context.Context, id string, s Session) error
	Delete(ctx context.Context, id string) error
}

// Bind scopes a repository to one session id.
func Bind(r Repository, id string) Store { return &bound{repo: r, id: id} }

type bound struct {
	repo Repository
	id   string
}

func (b *bound) Get(ctx context.Context) (Session, error) {
	s, _, err := b.repo.Load(ctx, b.id)
	return s, err
}

func (b *bound) Set(ctx context.Context, s Session) error { return b.repo.Save(ctx, b.id, s) }
func (b *bound) Clear(ctx context.Context) error          { return b.repo.Delete(ctx, b.id) }

type MemoryRepository struct {
	mu   sync.RWMutex
	data map[string]Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: map[string]Session{}}
}

func (m *MemoryRepository) Load(_ context.Context, id string) (Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.data[id]
	return s, ok, nil
}

func (m *MemoryRepository) Save(_ context.Context, id string, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = s
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

// NewMemoryStore returns a standalone store, handy in tests.
func NewMemoryStore() Store { return Bind(NewMemoryRepository(), "local") }
