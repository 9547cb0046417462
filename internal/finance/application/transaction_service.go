package application

import (
	"context"
	"math"
	"time"

	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// CategoryChecker reports whether a category belongs to the user.
type CategoryChecker interface {
	DoesUserCategoryExist(ctx context.Context, userID, id int64) (bool, error)
}

type TransactionService struct {
	repo       domain.TransactionRepository
	categories CategoryChecker
}

func NewTransactionService(repo domain.TransactionRepository, categories CategoryChecker) *TransactionService {
	return &TransactionService{repo: repo, categories: categories}
}

type TransactionSummary struct {
	Year         int                     `json:"year"`
	IncomeTotal  float64                 `json:"income_total"`
	ExpenseTotal float64                 `json:"expense_total"`
	Months       map[string]MonthSummary `json:"months"`
}

type MonthSummary struct {
	IncomeTotal  float64       `json:"income_total"`
	ExpenseTotal float64       `json:"expense_total"`
	Weeks        []WeekSummary `json:"weeks"`
}

type WeekSummary struct {
	Week         int     `json:"week"`
	IncomeTotal  float64 `json:"income_total"`
	ExpenseTotal float64 `json:"expense_total"`
}

// GetTransactionSummary groups the caller's transactions in [startDate, endDate]
// by year, month name and ISO week.
func (s *TransactionService) GetTransactionSummary(ctx context.Context, userID int64, startDate, endDate domain.Date) (map[int]TransactionSummary, error) {
	if err := validateRange(startDate, endDate); err != nil {
		return nil, err
	}
	transactions, err := s.repo.GetTransactionsInDateRange(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	summary := make(map[int]TransactionSummary)

	for _, transaction := range transactions {
		year := transaction.TransactionDate.Year()
		month := transaction.TransactionDate.Month().String()
		_, week := transaction.TransactionDate.ISOWeek()

		yearSummary, exists := summary[year]
		if !exists {
			yearSummary = TransactionSummary{
				Year:   year,
				Months: make(map[string]MonthSummary),
			}
		}

		monthSummary, exists := yearSummary.Months[month]
		if !exists {
			monthSummary = MonthSummary{Weeks: []WeekSummary{}}
		}

		weekIndex := -1
		for i := range monthSummary.Weeks {
			if monthSummary.Weeks[i].Week == week {
				weekIndex = i
				break
			}
		}
		if weekIndex < 0 {
			monthSummary.Weeks = append(monthSummary.Weeks, WeekSummary{Week: week})
			weekIndex = len(monthSummary.Weeks) - 1
		}

		switch transaction.Type {
		case domain.TypeIncome:
			yearSummary.IncomeTotal += transaction.Amount
			monthSummary.IncomeTotal += transaction.Amount
			monthSummary.Weeks[weekIndex].IncomeTotal += transaction.Amount
		case domain.TypeExpense:
			yearSummary.ExpenseTotal += transaction.Amount
			monthSummary.ExpenseTotal += transaction.Amount
			monthSummary.Weeks[weekIndex].ExpenseTotal += transaction.Amount
		}

		yearSummary.Months[month] = monthSummary
		summary[year] = yearSummary
	}

	for year, yearSummary := range summary {
		yearSummary.IncomeTotal = round2(yearSummary.IncomeTotal)
		yearSummary.ExpenseTotal = round2(yearSummary.ExpenseTotal)
		for month, monthSummary := range yearSummary.Months {
			monthSummary.IncomeTotal = round2(monthSummary.IncomeTotal)
			monthSummary.ExpenseTotal = round2(monthSummary.ExpenseTotal)
			for i := range monthSummary.Weeks {
				monthSummary.Weeks[i].IncomeTotal = round2(monthSummary.Weeks[i].IncomeTotal)
				monthSummary.Weeks[i].ExpenseTotal = round2(monthSummary.Weeks[i].ExpenseTotal)
			}
			yearSummary.Months[month] = monthSummary
		}
		summary[year] = yearSummary
	}

	return summary, nil
}

func (s *TransactionService) CreateTransaction(ctx context.Context, transaction *domain.Transaction) error {
	transaction.ID = 0
	transaction.RecurrenceParentID = nil
	transaction.LastOccurrenceDate = nil
	transaction.Normalize()
	if err := transaction.Validate(); err != nil {
		return err
	}
	if err := s.checkCategory(ctx, transaction); err != nil {
		return err
	}
	return s.repo.Create(ctx, transaction)
}

func (s *TransactionService) GetTransaction(ctx context.Context, userID, id int64) (*domain.Transaction, error) {
	return s.repo.FindByID(ctx, userID, id)
}

func (s *TransactionService) GetUserTransactions(ctx context.Context, userID int64, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if !domain.IsValidTransactionType(filter.Type) {
		return nil, appErrors.NewValidationError("type", "type must be 'income' or 'expense'")
	}
	if filter.StartDate != nil && filter.EndDate != nil {
		if err := validateRange(*filter.StartDate, *filter.EndDate); err != nil {
			return nil, err
		}
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultPageSize
	case filter.Limit > MaxPageSize:
		filter.Limit = MaxPageSize
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	transactions, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		return []domain.Transaction{}, nil
	}
	return transactions, nil
}

// UpdateTransaction applies patch to the caller's transaction and returns the result.
func (s *TransactionService) UpdateTransaction(ctx context.Context, userID, id int64, patch domain.TransactionPatch) (*domain.Transaction, error) {
	transaction, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	previousCategory := transaction.CategoryID
	patch.Apply(transaction)
	transaction.Normalize()
	if err := transaction.Validate(); err != nil {
		return nil, err
	}
	if !sameID(previousCategory, transaction.CategoryID) {
		if err := s.checkCategory(ctx, transaction); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *TransactionService) GetTransactionSummaryByCategory(ctx context.Context, userID int64, startDate, endDate domain.Date, transactionType string) ([]domain.TransactionByCategorySummary, error) {
	if !domain.IsValidTransactionType(transactionType) {
		return nil, appErrors.NewValidationError("type", "type must be 'income' or 'expense'")
	}
	if err := validateRange(startDate, endDate); err != nil {
		return nil, err
	}
	summaries, err := s.repo.GetTransactionSummaryByCategory(ctx, userID, startDate, endDate, transactionType)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		return []domain.TransactionByCategorySummary{}, nil
	}
	for i := range summaries {
		summaries[i].Total = round2(summaries[i].Total)
	}
	return summaries, nil
}

func (s *TransactionService) checkCategory(ctx context.Context, transaction *domain.Transaction) error {
	if transaction.CategoryID == nil {
		return nil
	}
	exists, err := s.categories.DoesUserCategoryExist(ctx, transaction.UserID, *transaction.CategoryID)
	if err != nil {
		return err
	}
	if !exists {
		return appErrors.NewValidationError("category_id", "category does not exist")
	}
	return nil
}

// DefaultSummaryRange is January 1st of the current year through today.
func DefaultSummaryRange(now time.Time) (domain.Date, domain.Date) {
	today := domain.DateOf(now)
	return domain.NewDate(today.Year(), time.January, 1), today
}

func validateRange(startDate, endDate domain.Date) error {
	if endDate.Before(startDate.Time) {
		return appErrors.NewValidationError("end_date", "end_date must not be before start_date")
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
