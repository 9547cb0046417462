package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
)

// MockTransactionRepository is an in-memory domain.TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.Mutex
	Transactions []domain.Transaction
	Categories   *MockCategoryRepository
	Err          error
	nextID       int64
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{}
}

func (m *MockTransactionRepository) Create(_ context.Context, transaction *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.insert(transaction)
	return nil
}

func (m *MockTransactionRepository) insert(transaction *domain.Transaction) {
	for _, t := range m.Transactions {
		if t.ID > m.nextID {
			m.nextID = t.ID
		}
	}
	m.nextID++
	now := time.Now().UTC()
	transaction.ID = m.nextID
	transaction.CreatedAt = now
	transaction.UpdatedAt = now
	m.Transactions = append(m.Transactions, *transaction)
}

func (m *MockTransactionRepository) FindByID(_ context.Context, userID, id int64) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, t := range m.Transactions {
		if t.ID == id && t.UserID == userID {
			found := t
			return &found, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (m *MockTransactionRepository) List(_ context.Context, userID int64, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	filtered := []domain.Transaction{}
	for _, t := range m.Transactions {
		if t.UserID != userID {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.StartDate != nil && t.TransactionDate.Before(filter.StartDate.Time) {
			continue
		}
		if filter.EndDate != nil && t.TransactionDate.After(filter.EndDate.Time) {
			continue
		}
		filtered = append(filtered, t)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].TransactionDate.Equal(filtered[j].TransactionDate.Time) {
			return filtered[i].ID > filtered[j].ID
		}
		return filtered[i].TransactionDate.After(filtered[j].TransactionDate.Time)
	})

	if filter.Limit > 0 {
		offset := filter.Offset()
		if offset >= len(filtered) {
			return []domain.Transaction{}, nil
		}
		end := offset + filter.Limit
		if end > len(filtered) {
			end = len(filtered)
		}
		filtered = filtered[offset:end]
	}
	return filtered, nil
}

func (m *MockTransactionRepository) Update(_ context.Context, transaction *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i, t := range m.Transactions {
		if t.ID == transaction.ID && t.UserID == transaction.UserID {
			transaction.CreatedAt = t.CreatedAt
			transaction.UpdatedAt = time.Now().UTC()
			m.Transactions[i] = *transaction
			return nil
		}
	}
	return appErrors.ErrNotFound
}

func (m *MockTransactionRepository) Delete(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i, t := range m.Transactions {
		if t.ID == id && t.UserID == userID {
			m.Transactions = append(m.Transactions[:i], m.Transactions[i+1:]...)
			return nil
		}
	}
	return appErrors.ErrNotFound
}

func (m *MockTransactionRepository) GetTransactionsInDateRange(_ context.Context, userID int64, startDate, endDate domain.Date) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var filtered []domain.Transaction
	for _, t := range m.Transactions {
		if t.UserID == userID && inRange(t.TransactionDate, startDate, endDate) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func (m *MockTransactionRepository) GetTransactionSummaryByCategory(_ context.Context, userID int64, startDate, endDate domain.Date, transactionType string) ([]domain.TransactionByCategorySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	const uncategorized = int64(-1)
	var (
		order  []int64
		groups = map[int64]*domain.TransactionByCategorySummary{}
	)
	for _, t := range m.Transactions {
		if t.UserID != userID || !inRange(t.TransactionDate, startDate, endDate) {
			continue
		}
		if transactionType != "" && t.Type != transactionType {
			continue
		}
		key := uncategorized
		if t.CategoryID != nil {
			key = *t.CategoryID
		}
		group, ok := groups[key]
		if !ok {
			group = &domain.TransactionByCategorySummary{CategoryID: t.CategoryID, CategoryName: m.categoryName(userID, t.CategoryID)}
			groups[key] = group
			order = append(order, key)
		}
		group.Total += t.Amount
		group.Count++
	}

	summaries := make([]domain.TransactionByCategorySummary, 0, len(order))
	for _, key := range order {
		summaries = append(summaries, *groups[key])
	}
	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].Total > summaries[j].Total })
	return summaries, nil
}

func (m *MockTransactionRepository) categoryName(userID int64, id *int64) string {
	if id == nil || m.Categories == nil {
		return ""
	}
	category, err := m.Categories.FindByID(context.Background(), userID, *id)
	if err != nil {
		return ""
	}
	return category.Name
}

func (m *MockTransactionRepository) FindRecurringTemplates(_ context.Context, asOf domain.Date) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var templates []domain.Transaction
	for _, t := range m.Transactions {
		if !t.IsRecurring || t.RecurrenceFrequency == nil {
			continue
		}
		last := t.TransactionDate
		if t.LastOccurrenceDate != nil {
			last = *t.LastOccurrenceDate
		}
		if !last.Before(asOf.Time) {
			continue
		}
		if t.RecurrenceEndDate != nil && !last.Before(t.RecurrenceEndDate.Time) {
			continue
		}
		templates = append(templates, t)
	}
	return templates, nil
}

func (m *MockTransactionRepository) MaterializeOccurrences(_ context.Context, template domain.Transaction, dates []domain.Date) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if len(dates) == 0 {
		return 0, nil
	}

	index := -1
	for i, t := range m.Transactions {
		if t.ID == template.ID {
			index = i
			break
		}
	}
	if index < 0 || !sameDate(m.Transactions[index].LastOccurrenceDate, template.LastOccurrenceDate) {
		return 0, nil
	}

	last := dates[len(dates)-1]
	m.Transactions[index].LastOccurrenceDate = &last
	for _, date := range dates {
		occurrence := template.Occurrence(date)
		m.insert(&occurrence)
	}
	return len(dates), nil
}

func inRange(d, start, end domain.Date) bool {
	return !d.Before(start.Time) && !d.After(end.Time)
}

func sameDate(a, b *domain.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b.Time)
}
