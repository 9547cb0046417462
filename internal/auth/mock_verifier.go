package auth

import (
	"context"
	"fmt"
	"sync"
)

// MockVerifier maps assertion strings to identities. Unknown assertions fail
// with ErrExternalAuthFailure.
type MockVerifier struct {
	mu         sync.Mutex
	identities map[string]*ExternalIdentity
}

func NewMockVerifier() *MockVerifier {
	return &MockVerifier{identities: make(map[string]*ExternalIdentity)}
}

func (m *MockVerifier) Add(assertion string, identity ExternalIdentity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[assertion] = &identity
}

func (m *MockVerifier) Verify(_ context.Context, assertion string) (*ExternalIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[assertion]
	if !ok {
		return nil, fmt.Errorf("%w: unknown assertion", ErrExternalAuthFailure)
	}
	clone := *identity
	return &clone, nil
}
