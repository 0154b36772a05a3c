package directory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/clinicstaff/internal/models"
)

// Memory is an in-process Directory used by tests and by the API when no
// database is configured.
type Memory struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.TenantUser
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[uuid.UUID]models.TenantUser),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) Filter(ctx context.Context, f Filter) ([]models.TenantUser, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.TenantUser, 0)
	for _, u := range m.users {
		if f.Matches(u) {
			out = append(out, u.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *Memory) Get(ctx context.Context, tenantID, id uuid.UUID) (models.TenantUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok || u.TenantID != tenantID {
		return models.TenantUser{}, ErrNotFound
	}
	return u.Clone(), nil
}

func (m *Memory) Create(ctx context.Context, u models.TenantUser) (models.TenantUser, error) {
	if err := validateRecord(u); err != nil {
		return models.TenantUser{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(u.TenantID, u.Email, uuid.Nil) {
		return models.TenantUser{}, &ValidationError{Field: "email", Message: "email already in use"}
	}

	rec := u.Clone()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if _, exists := m.users[rec.ID]; exists {
		return models.TenantUser{}, &ValidationError{Field: "id", Message: "id already in use"}
	}
	now := m.now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	m.users[rec.ID] = rec
	return rec.Clone(), nil
}

func (m *Memory) Update(ctx context.Context, u models.TenantUser) (models.TenantUser, error) {
	if err := validateRecord(u); err != nil {
		return models.TenantUser{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[u.ID]
	if !ok || existing.TenantID != u.TenantID {
		return models.TenantUser{}, ErrNotFound
	}
	if m.emailTaken(u.TenantID, u.Email, u.ID) {
		return models.TenantUser{}, &ValidationError{Field: "email", Message: "email already in use"}
	}

	rec := u.Clone()
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = m.now()

	m.users[rec.ID] = rec
	return rec.Clone(), nil
}

func (m *Memory) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok || u.TenantID != tenantID {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) emailTaken(tenantID uuid.UUID, email string, except uuid.UUID) bool {
	want := normalizeEmail(email)
	for id, u := range m.users {
		if id != except && u.TenantID == tenantID && normalizeEmail(u.Email) == want {
			return true
		}
	}
	return false
}
