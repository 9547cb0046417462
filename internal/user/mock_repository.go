package user

import (
	"context"
	"sync"
	"time"
)

// MockRepository is an in-memory Repository with the same uniqueness rules
// as the users table.
type MockRepository struct {
	mu     sync.Mutex
	users  map[int64]*User
	nextID int64

	// Err, when set, is returned by every call.
	Err error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{users: make(map[int64]*User), nextID: 1}
}

func (m *MockRepository) Create(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := m.checkUniqueLocked(user.Username, user.Email); err != nil {
		return err
	}
	m.insertLocked(user)
	return nil
}

func (m *MockRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MockRepository) FindByID(_ context.Context, id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *MockRepository) FindOrCreateByEmail(_ context.Context, email string, defaults User) (*User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, false, m.Err
	}
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, false, nil
		}
	}
	if err := m.checkUniqueLocked(defaults.Username, email); err != nil {
		return nil, false, err
	}
	created := defaults
	created.Email = email
	m.insertLocked(&created)
	clone := created
	return &clone, true, nil
}

// Delete removes a user, simulating an account that vanished after a token was issued.
func (m *MockRepository) Delete(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

func (m *MockRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *MockRepository) checkUniqueLocked(username, email string) error {
	for _, u := range m.users {
		if u.Email == email {
			return ErrEmailAlreadyExists
		}
	}
	for _, u := range m.users {
		if u.Username == username {
			return ErrUsernameAlreadyExists
		}
	}
	return nil
}

func (m *MockRepository) insertLocked(user *User) {
	now := time.Now().UTC()
	user.ID = m.nextID
	m.nextID++
	user.Provider = providerOrDefault(user.Provider)
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	m.users[user.ID] = &stored
}
