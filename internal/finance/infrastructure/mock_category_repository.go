package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
)

// MockCategoryRepository is an in-memory domain.CategoryRepository.
type MockCategoryRepository struct {
	mu         sync.Mutex
	categories map[int64]domain.Category
	nextID     int64
	Err        error
}

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{categories: make(map[int64]domain.Category)}
}

func (m *MockCategoryRepository) Create(_ context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.nameTaken(category.UserID, category.Type, category.Name, 0) {
		return appErrors.NewValidationError("name", categoryNameTakenReason)
	}
	m.nextID++
	now := time.Now().UTC()
	category.ID = m.nextID
	category.CreatedAt = now
	category.UpdatedAt = now
	m.categories[category.ID] = *category
	return nil
}

func (m *MockCategoryRepository) FindByUser(_ context.Context, userID int64, categoryType string) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	categories := []domain.Category{}
	for _, c := range m.categories {
		if c.UserID == userID && (categoryType == "" || c.Type == categoryType) {
			categories = append(categories, c)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Type != categories[j].Type {
			return categories[i].Type < categories[j].Type
		}
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (m *MockCategoryRepository) FindByID(_ context.Context, userID, id int64) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.categories[id]
	if !ok || c.UserID != userID {
		return nil, appErrors.ErrNotFound
	}
	return &c, nil
}

func (m *MockCategoryRepository) Update(_ context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	existing, ok := m.categories[category.ID]
	if !ok || existing.UserID != category.UserID {
		return appErrors.ErrNotFound
	}
	if m.nameTaken(category.UserID, category.Type, category.Name, category.ID) {
		return appErrors.NewValidationError("name", categoryNameTakenReason)
	}
	category.CreatedAt = existing.CreatedAt
	category.UpdatedAt = time.Now().UTC()
	m.categories[category.ID] = *category
	return nil
}

func (m *MockCategoryRepository) Delete(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	c, ok := m.categories[id]
	if !ok || c.UserID != userID {
		return appErrors.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *MockCategoryRepository) ExistsByName(_ context.Context, userID int64, categoryType, name string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	return m.nameTaken(userID, categoryType, name, excludeID), nil
}

func (m *MockCategoryRepository) DoesUserCategoryExistByID(_ context.Context, userID, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	c, ok := m.categories[id]
	return ok && c.UserID == userID, nil
}

func (m *MockCategoryRepository) nameTaken(userID int64, categoryType, name string, excludeID int64) bool {
	for _, c := range m.categories {
		if c.UserID == userID && c.Type == categoryType && c.Name == name && c.ID != excludeID {
			return true
		}
	}
	return false
}
