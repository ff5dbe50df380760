package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/albedo-dev/albedo/internal/database"
)

// MockUserRepository is an in-memory UserRepository for tests. Each
// method can be overridden through its Fn field.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*User

	CreateFn func(ctx context.Context, user *User) error
	UpdateFn func(ctx context.Context, user *User) error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uuid.UUID]*User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return database.ErrDuplicate
		}
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, database.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *MockUserRepository) GetByVerificationToken(ctx context.Context, token string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			clone := *u
			return &clone, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return database.ErrNotFound
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

// MockPasswordResetRepository is an in-memory PasswordResetRepository.
type MockPasswordResetRepository struct {
	mu     sync.RWMutex
	resets map[uuid.UUID]*PasswordReset

	CreateFn func(ctx context.Context, reset *PasswordReset) error
}

func NewMockPasswordResetRepository() *MockPasswordResetRepository {
	return &MockPasswordResetRepository{resets: make(map[uuid.UUID]*PasswordReset)}
}

func (m *MockPasswordResetRepository) Create(ctx context.Context, reset *PasswordReset) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, reset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *reset
	m.resets[reset.ID] = &clone
	return nil
}

func (m *MockPasswordResetRepository) GetActiveByToken(ctx context.Context, token string) (*PasswordReset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.resets {
		if p.Token == token && !p.Used && p.ExpiresAt.After(time.Now()) {
			clone := *p
			return &clone, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *MockPasswordResetRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.resets[id]
	if !ok {
		return database.ErrNotFound
	}
	p.Used = true
	return nil
}

// MockAccessLogRepository collects access entries in memory.
type MockAccessLogRepository struct {
	mu      sync.Mutex
	Entries []AccessLog

	RecordFn func(ctx context.Context, entry AccessLog) error
}

func NewMockAccessLogRepository() *MockAccessLogRepository {
	return &MockAccessLogRepository{}
}

func (m *MockAccessLogRepository) Record(ctx context.Context, entry AccessLog) error {
	if m.RecordFn != nil {
		return m.RecordFn(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return nil
}

// Len returns the number of recorded entries.
func (m *MockAccessLogRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Entries)
}
